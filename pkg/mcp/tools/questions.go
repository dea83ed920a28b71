package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterQuestionTools registers natural language question MCP tools.
func RegisterQuestionTools(s *server.MCPServer, deps *ToolDeps) {
	registerAskQuestionTool(s, deps)
}

// registerAskQuestionTool adds the ask_question tool, which forwards a
// natural language question to the data plane's answering endpoint.
func registerAskQuestionTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"ask_question",
		mcp.WithDescription(
			"Ask a natural language question about the project's data. The data "+
				"plane translates the question into SQL, runs it, and returns a "+
				"narrative answer alongside the result rows and a recommended "+
				"chart. Example: ask_question(question='total payroll spend by "+
				"month this year').",
		),
		mcp.WithString(
			"project_id",
			mcp.Required(),
			mcp.Description("Project to ask about"),
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question, in plain language"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, err := req.RequireString("project_id")
		if err != nil {
			return nil, err
		}

		question, err := req.RequireString("question")
		if err != nil {
			return nil, err
		}

		question = strings.TrimSpace(question)
		if question == "" {
			return NewErrorResult("invalid_parameters", "question parameter cannot be empty"), nil
		}

		answer, err := deps.Service.Ask(ctx, projectID, question)
		if err != nil {
			if errResult := NewQueryErrorResult(err); errResult != nil {
				return errResult, nil
			}
			return nil, fmt.Errorf("failed to answer question: %w", err)
		}

		jsonResult, err := json.Marshal(answer)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}

		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
