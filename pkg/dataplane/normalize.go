package dataplane

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/velora-hq/explorer-engine/pkg/jsonutil"
	"github.com/velora-hq/explorer-engine/pkg/models"
)

// NormalizeResult converts an execution response payload into a
// ResultSet. It never fails: a missing or non-array data field becomes
// an empty row list, an absent column list is derived from the first
// row's keys in sorted order, and a missing row_count falls back to the
// number of rows. The response's own sql field wins over the submitted
// statement when present.
func NormalizeResult(payload map[string]any, sqlQuery string) *models.ResultSet {
	rs := &models.ResultSet{
		Columns: []string{},
		Rows:    []map[string]any{},
		SQL:     sqlQuery,
	}
	if payload == nil {
		return rs
	}

	if s := jsonutil.StringValue(payload["sql"]); s != "" {
		rs.SQL = s
	}

	if data, ok := payload["data"].([]any); ok {
		for _, entry := range data {
			if row, ok := entry.(map[string]any); ok {
				rs.Rows = append(rs.Rows, row)
			}
		}
	}

	rs.Columns = resultColumns(payload["columns"], rs.Rows)

	if n, ok := jsonutil.IntValue(firstKey(payload, "row_count", "rowCount")); ok {
		rs.RowCount = n
	} else {
		rs.RowCount = len(rs.Rows)
	}

	return rs
}

// NormalizeAnswer converts a natural-language response payload into an
// Answer. The result portion shares NormalizeResult's defaulting; an
// absent or unknown chart recommendation falls back to table.
func NormalizeAnswer(payload map[string]any) *models.Answer {
	answer := &models.Answer{RecommendedChart: models.ChartTypeTable}
	if payload == nil {
		answer.Result = *NormalizeResult(nil, "")
		return answer
	}

	answer.Text = jsonutil.StringValue(firstKey(payload, "answer_text", "answerText", "answer"))
	answer.Result = *NormalizeResult(payload, "")

	if chart, ok := payload["chart"].(map[string]any); ok {
		rec := models.ChartType(strings.ToLower(jsonutil.StringValue(chart["recommended"])))
		if models.IsValidChartType(rec) {
			answer.RecommendedChart = rec
		}
	}

	return answer
}

// resultColumns prefers the server's explicit column list and derives one
// from the first row otherwise. Go maps are unordered, so derived names
// are sorted for determinism.
func resultColumns(v any, rows []map[string]any) []string {
	if raw, ok := v.([]any); ok {
		cols := make([]string, 0, len(raw))
		for _, entry := range raw {
			if s := jsonutil.StringValue(entry); s != "" {
				cols = append(cols, s)
			}
		}
		if len(cols) > 0 {
			return cols
		}
	}

	if len(rows) == 0 {
		return []string{}
	}
	keys := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// firstKey returns the first non-nil value among the given keys.
func firstKey(payload map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := payload[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// apiError is a failed data-plane response reduced to a single display
// string.
type apiError struct {
	statusCode int
	detail     string
}

func newAPIError(statusCode int, body []byte) *apiError {
	return &apiError{statusCode: statusCode, detail: errorDetail(statusCode, body)}
}

func (e *apiError) Error() string {
	return e.detail
}

// IsRetryable reports whether the failure is worth retrying. Only server
// errors and throttling qualify; client errors are permanent.
func (e *apiError) IsRetryable() bool {
	return e.statusCode >= http.StatusInternalServerError || e.statusCode == http.StatusTooManyRequests
}

// UpstreamStatus extracts the HTTP status of a failed data-plane
// response from err. ok is false when the error is a transport failure
// rather than a response the data plane produced.
func UpstreamStatus(err error) (status int, ok bool) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.statusCode, true
	}
	return 0, false
}

// errorDetail extracts a human-readable message from an error body,
// preferring the structured detail field.
func errorDetail(statusCode int, body []byte) string {
	if payload := parseObject(body); payload != nil {
		for _, key := range []string{"detail", "error", "message"} {
			if s := jsonutil.StringValue(payload[key]); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("data-plane returned status %d", statusCode)
}

func parseObject(body []byte) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}
