package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/instrumentation"
	"github.com/buildyoursite/buildyoursite-engine/pkg/mcp/tools"
	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// Server wraps the mcp-go MCPServer that exposes usage analytics to MCP clients.
type Server struct {
	mcp     *server.MCPServer
	version string
	logger  *zap.Logger
}

// NewServer creates a new MCP server instance. Tool calls are observed for
// logging and, when metrics is non-nil, Prometheus counters.
func NewServer(name, version string, metrics *instrumentation.Metrics, logger *zap.Logger) *Server {
	observer := NewToolCallObserver(metrics, logger)
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(observer.Hooks()),
	)

	return &Server{
		mcp:     mcpServer,
		version: version,
		logger:  logger.Named("mcp"),
	}
}

// MCP returns the underlying MCPServer for tool registration.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterAnalyticsTools registers the health tool and the read-only usage analytics tools.
func (s *Server) RegisterAnalyticsTools(usage services.UsageAnalytics, llmAvailable bool) {
	tools.RegisterHealthTool(s.mcp, s.version, llmAvailable)
	tools.RegisterAnalyticsTools(s.mcp, usage, s.logger)
}

// NewStreamableHTTPServer creates a stateless HTTP transport for this server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}

// RegisterTool is a convenience wrapper for registering a tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}
