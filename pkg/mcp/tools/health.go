package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	LLMAvailable bool   `json:"llm_available"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool reports the engine version and whether website generation is configured.
func RegisterHealthTool(s *server.MCPServer, version string, llmAvailable bool) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and whether website generation is available"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := json.Marshal(healthResult{Status: "ok", Version: version, LLMAvailable: llmAvailable})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
