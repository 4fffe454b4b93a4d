package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// RegisterAnalyticsTools adds the read-only usage analytics tools to the MCP server.
func RegisterAnalyticsTools(s *server.MCPServer, usage services.UsageAnalytics, logger *zap.Logger) {
	registerProjectUsageStatsTool(s, usage, logger)
	registerRecurringFeedbackPatternsTool(s, usage, logger)
	registerDailyUsageHistoryTool(s, usage, logger)
	registerMostEditedGenerationTypesTool(s, usage, logger)
}

func registerProjectUsageStatsTool(s *server.MCPServer, usage services.UsageAnalytics, logger *zap.Logger) {
	tool := mcp.NewTool(
		"project_usage_stats",
		mcp.WithDescription(
			"Returns usage statistics for one website project: generation and edit counts, "+
				"the percentage of work done by AI generation versus manual edits, "+
				"and the average client rating.",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project UUID"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("project_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		projectID, err := uuid.Parse(raw)
		if err != nil {
			return NewErrorResult("invalid_parameters", fmt.Sprintf("project_id %q is not a valid UUID", raw)), nil
		}

		stats, err := usage.ProjectUsageStats(ctx, projectID)
		if err != nil {
			logger.Error("project_usage_stats failed", zap.String("project_id", raw), zap.Error(err))
			return serviceErrorResult(err)
		}
		return jsonResult(stats)
	})
}

func registerRecurringFeedbackPatternsTool(s *server.MCPServer, usage services.UsageAnalytics, logger *zap.Logger) {
	tool := mcp.NewTool(
		"recurring_feedback_patterns",
		mcp.WithDescription(
			"Returns the most frequent feedback themes as TYPE-keyword patterns "+
				"(for example DESIGN-beautiful or PERFORMANCE-slow) with their counts, most frequent first. "+
				"Scans one project when project_id is given, otherwise every project.",
		),
		mcp.WithString(
			"project_id",
			mcp.Description("Optional project UUID to restrict the scan to"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var projectID *uuid.UUID
		if raw := getOptionalString(req, "project_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return NewErrorResult("invalid_parameters", fmt.Sprintf("project_id %q is not a valid UUID", raw)), nil
			}
			projectID = &id
		}

		patterns, err := usage.RecurringFeedbackPatterns(ctx, projectID)
		if err != nil {
			logger.Error("recurring_feedback_patterns failed", zap.Error(err))
			return serviceErrorResult(err)
		}
		return jsonResult(patterns)
	})
}

func registerDailyUsageHistoryTool(s *server.MCPServer, usage services.UsageAnalytics, logger *zap.Logger) {
	tool := mcp.NewTool(
		"daily_usage_history",
		mcp.WithDescription(
			"Returns the stored daily usage rollups for the last N days, oldest first. "+
				"Each day has the number of projects, AI generated and manual edit ratios, "+
				"event counts and the average rating.",
		),
		mcp.WithNumber(
			"days",
			mcp.Description("How many days back to look (default: 30)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var days *int
		if v, ok := getOptionalFloat(req, "days"); ok {
			if v != math.Trunc(v) {
				return NewErrorResult("invalid_parameters", fmt.Sprintf("days must be a whole number, got %v", v)), nil
			}
			n := int(v)
			days = &n
		}

		history, err := usage.HistoricalMetrics(ctx, days)
		if err != nil {
			logger.Error("daily_usage_history failed", zap.Error(err))
			return serviceErrorResult(err)
		}
		return jsonResult(history)
	})
}

func registerMostEditedGenerationTypesTool(s *server.MCPServer, usage services.UsageAnalytics, logger *zap.Logger) {
	tool := mcp.NewTool(
		"most_edited_generation_types",
		mcp.WithDescription(
			"Returns the generation types whose output is most often edited by hand, "+
				"with the number of edits made against each, across all projects.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		types, err := usage.MostEditedGenerationTypes(ctx)
		if err != nil {
			logger.Error("most_edited_generation_types failed", zap.Error(err))
			return serviceErrorResult(err)
		}
		return jsonResult(types)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, _ := args[key].(string)
	return val
}

// getOptionalFloat extracts an optional numeric argument from the request.
func getOptionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false
	}
	val, ok := args[key].(float64)
	return val, ok
}
