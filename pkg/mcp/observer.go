package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
)

// Outcomes reported for a tool call.
const (
	ToolCallSuccess   = "success"
	ToolCallToolError = "tool_error"
	ToolCallError     = "error"
)

// ToolCallObserver times MCP tool calls, records their outcome and logs failures.
type ToolCallObserver struct {
	metrics *instrumentation.Metrics
	logger  *zap.Logger
	now     func() time.Time

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewToolCallObserver creates an observer. metrics may be nil.
func NewToolCallObserver(metrics *instrumentation.Metrics, logger *zap.Logger) *ToolCallObserver {
	return &ToolCallObserver{
		metrics: metrics,
		logger:  logger.Named("mcp-tools"),
		now:     time.Now,
	}
}

// Hooks returns mcp-go Hooks wired to this observer.
func (o *ToolCallObserver) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(o.beforeCallTool)
	hooks.AddAfterCallTool(o.afterCallTool)
	hooks.AddOnError(o.onError)
	return hooks
}

func (o *ToolCallObserver) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	o.startTimes.Store(id, o.now())
}

func (o *ToolCallObserver) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	elapsed := o.elapsed(id)
	tool := req.Params.Name

	status := ToolCallSuccess
	if result != nil && result.IsError {
		status = ToolCallToolError
		o.logger.Info("MCP tool returned an error result",
			zap.String("tool", tool),
			zap.Duration("duration", elapsed))
	}
	o.metrics.ToolCallFinished(tool, status, elapsed)
}

func (o *ToolCallObserver) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	elapsed := o.elapsed(id)
	o.logger.Error("MCP tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Duration("duration", elapsed),
		zap.Error(err))
	o.metrics.ToolCallFinished(req.Params.Name, ToolCallError, elapsed)
}

// elapsed returns the time since the call with this id started, or zero if
// the start was never seen.
func (o *ToolCallObserver) elapsed(id any) time.Duration {
	v, ok := o.startTimes.LoadAndDelete(id)
	if !ok {
		return 0
	}
	return o.now().Sub(v.(time.Time))
}
