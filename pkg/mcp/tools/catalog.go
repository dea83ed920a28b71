// Package tools provides MCP tool implementations for explorer-engine.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/explorer"
)

// ToolDeps contains the dependencies shared by all explorer MCP tools.
type ToolDeps struct {
	Service explorer.Service
	Logger  *zap.Logger
}

// RegisterCatalogTools registers catalog navigation MCP tools.
func RegisterCatalogTools(s *server.MCPServer, deps *ToolDeps) {
	registerListCatalogTool(s, deps)
	registerSearchCatalogTool(s, deps)
	registerDescribeTableTool(s, deps)
}

// registerListCatalogTool adds the list_catalog tool for browsing the
// full table hierarchy of a project.
func registerListCatalogTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_catalog",
		mcp.WithDescription(
			"List the full table catalog of a project, grouped by truth type, "+
				"source file, and business domain. Truth types classify what a table "+
				"records: reality (events that happened), intent (plans and requests), "+
				"configuration, reference, or regulatory. "+
				"Use describe_table to see the columns of a specific table.",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project whose catalog to list"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil {
			return nil, err
		}

		view, err := deps.Service.Catalog(ctx, projectID)
		if err != nil {
			if errors.Is(err, apperrors.ErrCatalogLoading) {
				return NewErrorResult("catalog_loading", "catalog load already in progress; retry shortly"), nil
			}
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}

		// A failed load is part of the view, not a protocol error. The
		// caller sees the state and can ask for a refresh.
		jsonResult, err := json.Marshal(view)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerSearchCatalogTool adds the search_catalog tool for pruning the
// hierarchy to tables and columns matching a query.
func registerSearchCatalogTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"search_catalog",
		mcp.WithDescription(
			"Search the table catalog by table name, display name, or column name. "+
				"Returns the catalog hierarchy pruned to matching tables. "+
				"Example: search_catalog(query='pay') returns payroll tables and any "+
				"table with a matching column.",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project whose catalog to search"),
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Search query text (e.g., 'pay', 'employee', 'deduction')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil {
			return nil, err
		}

		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}

		query = strings.TrimSpace(query)
		if query == "" {
			return NewErrorResult("invalid_parameters", "query parameter cannot be empty"), nil
		}

		view, err := deps.Service.SearchCatalog(ctx, projectID, query)
		if err != nil {
			if errResult := NewQueryErrorResult(err); errResult != nil {
				return errResult, nil
			}
			return nil, fmt.Errorf("failed to search catalog: %w", err)
		}

		jsonResult, err := json.Marshal(view)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// registerDescribeTableTool adds the describe_table tool for column-level
// detail on a single table.
func registerDescribeTableTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"describe_table",
		mcp.WithDescription(
			"Describe a single table: its columns with inferred types (number, "+
				"date, string), truth type, business domain, and row count. "+
				"Use the qualified name from list_catalog or search_catalog, "+
				"e.g. describe_table(table='payroll.pay_runs').",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project the table belongs to"),
		),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Qualified table name (e.g., 'payroll.pay_runs')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil {
			return nil, err
		}

		table, err := req.RequireString("table")
		if err != nil {
			return nil, err
		}

		table = strings.TrimSpace(table)
		if table == "" {
			return NewErrorResult("invalid_parameters", "table parameter cannot be empty"), nil
		}

		descriptor, err := deps.Service.DescribeTable(ctx, projectID, table)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return NewErrorResult("table_not_found",
					fmt.Sprintf("no table named %q in the catalog; use search_catalog to find the qualified name", table)), nil
			}
			if errResult := NewQueryErrorResult(err); errResult != nil {
				return errResult, nil
			}
			return nil, fmt.Errorf("failed to describe table: %w", err)
		}

		jsonResult, err := json.Marshal(descriptor)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
