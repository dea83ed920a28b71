package tools

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/dataplane"
	"github.com/velora-hq/explorer-engine/pkg/sql"
)

// ErrorResponse represents a structured error in tool results.
// This is used to return actionable error information to the calling
// model as a successful tool result, ensuring error details are visible
// rather than being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable/actionable errors that the caller should see
// and can potentially fix (e.g., invalid parameters, table not found).
//
// Do NOT use this for system failures (data plane unreachable, internal
// server errors) - those should still return Go errors.
//
// Example:
//
//	if table == nil {
//	    return NewErrorResult("table_not_found", "no table named 'pay_runs' in the catalog"), nil
//	}
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewErrorResultWithDetails creates an error result with additional context.
// The details field can contain any additional information that might help
// the caller understand and respond to the error.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "invalid_chart",
//	    "unsupported chart type",
//	    map[string]any{"valid_charts": []string{"table", "bar", "line", "pie"}},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// QueryErrorCode returns an error code for a failure the caller can act
// on. Returns empty string for system failures.
//
// Screening rejections come from the engine's own SQL checks. Upstream
// client errors are responses the data plane produced for a request it
// understood and refused; both mean the caller should fix the query and
// retry. Transport failures and upstream 5xx responses are neither.
func QueryErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, sql.ErrNotSelect):
		return "not_select"
	case errors.Is(err, sql.ErrMultipleStatements):
		return "multiple_statements"
	case errors.Is(err, sql.ErrInjectionDetected):
		return "injection_detected"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrCatalogLoading):
		return "catalog_loading"
	}

	if status, ok := dataplane.UpstreamStatus(err); ok && status < http.StatusInternalServerError {
		return "query_rejected"
	}

	return ""
}

// NewQueryErrorResult creates an error result from a query failure if the
// caller can act on it. Returns nil for system failures (caller should
// return a Go error instead).
//
// Example usage:
//
//	execution, err := deps.Service.RunSQL(ctx, projectID, sqlText, chart)
//	if err != nil {
//	    if errResult := NewQueryErrorResult(err); errResult != nil {
//	        return errResult, nil
//	    }
//	    return nil, fmt.Errorf("query failed: %w", err)
//	}
func NewQueryErrorResult(err error) *mcp.CallToolResult {
	code := QueryErrorCode(err)
	if code == "" {
		return nil
	}
	return NewErrorResult(code, err.Error())
}
