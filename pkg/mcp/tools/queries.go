package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// RegisterQueryTools registers SQL execution MCP tools.
func RegisterQueryTools(s *server.MCPServer, deps *ToolDeps) {
	registerRunTableQueryTool(s, deps)
}

// registerRunTableQueryTool adds the run_table_query tool for executing a
// read-only SQL statement against the project's data plane.
func registerRunTableQueryTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"run_table_query",
		mcp.WithDescription(
			"Execute a read-only SQL SELECT statement against the project's data "+
				"and return rows plus a chart-ready rendering. Only single SELECT "+
				"statements are accepted; anything else is rejected before it "+
				"reaches the data plane. Quote qualified table names, "+
				"e.g. SELECT \"department\" FROM \"hr.employees\" LIMIT 100.",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project to run the query against"),
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("A single SELECT statement"),
		),
		mcp.WithString(
			"chart",
			mcp.Description("Preferred chart for the rendering: table, bar, line, or pie (default table)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil {
			return nil, err
		}

		sqlText, err := req.RequireString("sql")
		if err != nil {
			return nil, err
		}

		sqlText = strings.TrimSpace(sqlText)
		if sqlText == "" {
			return NewErrorResult("invalid_parameters", "sql parameter cannot be empty"), nil
		}

		chart := models.ChartTypeTable
		if chartVal := getOptionalString(req, "chart"); chartVal != "" {
			chart = models.ChartType(chartVal)
			if !models.IsValidChartType(chart) {
				return NewErrorResultWithDetails(
					"invalid_chart",
					fmt.Sprintf("unsupported chart type %q", chartVal),
					map[string]any{"valid_charts": models.ValidChartTypes},
				), nil
			}
		}

		execution, err := deps.Service.RunSQL(ctx, projectID, sqlText, chart)
		if err != nil {
			if errResult := NewQueryErrorResult(err); errResult != nil {
				return errResult, nil
			}
			return nil, fmt.Errorf("query failed: %w", err)
		}

		jsonResult, err := json.Marshal(execution)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
