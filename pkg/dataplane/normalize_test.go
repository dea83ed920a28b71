package dataplane

import (
	"reflect"
	"testing"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

func TestNormalizeResult_DerivesColumnsFromFirstRow(t *testing.T) {
	payload := map[string]any{
		"data": []any{
			map[string]any{"b": 2.0, "a": 1.0},
		},
	}

	rs := NormalizeResult(payload, "SELECT 1")

	if !reflect.DeepEqual(rs.Columns, []string{"a", "b"}) {
		t.Errorf("Columns = %v, want sorted first-row keys [a b]", rs.Columns)
	}
	if rs.RowCount != 1 {
		t.Errorf("RowCount = %d, want 1", rs.RowCount)
	}
	if rs.SQL != "SELECT 1" {
		t.Errorf("SQL = %q, want submitted statement", rs.SQL)
	}
}

func TestNormalizeResult_ExplicitColumnsKeepOrder(t *testing.T) {
	payload := map[string]any{
		"columns": []any{"z_col", "a_col"},
		"data": []any{
			map[string]any{"a_col": 1.0, "z_col": 2.0},
		},
	}

	rs := NormalizeResult(payload, "")
	if !reflect.DeepEqual(rs.Columns, []string{"z_col", "a_col"}) {
		t.Errorf("Columns = %v, want server order preserved", rs.Columns)
	}
}

func TestNormalizeResult_DataNotArray(t *testing.T) {
	tests := []struct {
		name string
		data any
	}{
		{"string data", "oops"},
		{"object data", map[string]any{"a": 1}},
		{"nil data", nil},
		{"absent data", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{}
			if tt.data != nil {
				payload["data"] = tt.data
			}
			rs := NormalizeResult(payload, "")
			if len(rs.Rows) != 0 {
				t.Errorf("Rows = %v, want empty", rs.Rows)
			}
			if rs.RowCount != 0 {
				t.Errorf("RowCount = %d, want 0", rs.RowCount)
			}
			if rs.Columns == nil || rs.Rows == nil {
				t.Error("normalized slices must be non-nil")
			}
		})
	}
}

func TestNormalizeResult_SkipsNonRecordEntries(t *testing.T) {
	payload := map[string]any{
		"data": []any{
			map[string]any{"a": 1.0},
			"junk",
			nil,
			map[string]any{"a": 2.0},
		},
	}

	rs := NormalizeResult(payload, "")
	if len(rs.Rows) != 2 {
		t.Errorf("Rows = %d, want 2 record entries", len(rs.Rows))
	}
	if rs.RowCount != 2 {
		t.Errorf("RowCount = %d, want 2", rs.RowCount)
	}
}

func TestNormalizeResult_ServerRowCountWins(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    int
	}{
		{
			name: "snake case field",
			payload: map[string]any{
				"data":      []any{map[string]any{"a": 1.0}},
				"row_count": 250.0,
			},
			want: 250,
		},
		{
			name: "camel case field",
			payload: map[string]any{
				"data":     []any{map[string]any{"a": 1.0}},
				"rowCount": 99.0,
			},
			want: 99,
		},
		{
			name: "string count coerced",
			payload: map[string]any{
				"data":      []any{map[string]any{"a": 1.0}},
				"row_count": "17",
			},
			want: 17,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := NormalizeResult(tt.payload, "")
			if rs.RowCount != tt.want {
				t.Errorf("RowCount = %d, want %d", rs.RowCount, tt.want)
			}
		})
	}
}

func TestNormalizeResult_ResponseSQLWins(t *testing.T) {
	payload := map[string]any{
		"sql":  "SELECT rewritten",
		"data": []any{},
	}
	rs := NormalizeResult(payload, "SELECT submitted")
	if rs.SQL != "SELECT rewritten" {
		t.Errorf("SQL = %q, want the response's own statement", rs.SQL)
	}
}

func TestNormalizeResult_NilPayload(t *testing.T) {
	rs := NormalizeResult(nil, "SELECT 1")
	if rs == nil {
		t.Fatal("NormalizeResult(nil) returned nil")
	}
	if len(rs.Rows) != 0 || len(rs.Columns) != 0 || rs.RowCount != 0 {
		t.Errorf("want empty result, got %+v", rs)
	}
	if rs.SQL != "SELECT 1" {
		t.Errorf("SQL = %q, want submitted statement", rs.SQL)
	}
}

func TestNormalizeAnswer(t *testing.T) {
	payload := map[string]any{
		"answer_text": "Sales leads on gross pay.",
		"data": []any{
			map[string]any{"dept": "Sales", "sum_gross_amount": 1200.0},
		},
		"columns": []any{"dept", "sum_gross_amount"},
		"sql":     `SELECT "dept" FROM "t" LIMIT 100`,
		"chart":   map[string]any{"recommended": "bar"},
	}

	answer := NormalizeAnswer(payload)

	if answer.Text != "Sales leads on gross pay." {
		t.Errorf("Text = %q", answer.Text)
	}
	if answer.RecommendedChart != models.ChartTypeBar {
		t.Errorf("RecommendedChart = %q, want bar", answer.RecommendedChart)
	}
	if answer.Result.SQL != `SELECT "dept" FROM "t" LIMIT 100` {
		t.Errorf("Result.SQL = %q", answer.Result.SQL)
	}
	if len(answer.Result.Rows) != 1 {
		t.Errorf("Result.Rows = %d, want 1", len(answer.Result.Rows))
	}
}

func TestNormalizeAnswer_ChartFallback(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing chart", map[string]any{"answer_text": "x"}},
		{"unknown recommendation", map[string]any{"chart": map[string]any{"recommended": "hologram"}}},
		{"chart not an object", map[string]any{"chart": "bar"}},
		{"nil payload", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer := NormalizeAnswer(tt.payload)
			if answer.RecommendedChart != models.ChartTypeTable {
				t.Errorf("RecommendedChart = %q, want table fallback", answer.RecommendedChart)
			}
		})
	}
}

func TestNormalizeAnswer_TextFieldVariants(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"snake case", map[string]any{"answer_text": "a"}, "a"},
		{"camel case", map[string]any{"answerText": "b"}, "b"},
		{"short form", map[string]any{"answer": "c"}, "c"},
		{"missing", map[string]any{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAnswer(tt.payload).Text; got != tt.want {
				t.Errorf("Text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Detail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "detail field preferred",
			status: 400,
			body:   `{"detail": "no such table: payroll.ghosts", "error": "secondary"}`,
			want:   "no such table: payroll.ghosts",
		},
		{
			name:   "error field fallback",
			status: 500,
			body:   `{"error": "executor crashed"}`,
			want:   "executor crashed",
		},
		{
			name:   "message field fallback",
			status: 502,
			body:   `{"message": "bad gateway"}`,
			want:   "bad gateway",
		},
		{
			name:   "unparseable body falls back to status",
			status: 503,
			body:   "<html>Service Unavailable</html>",
			want:   "data-plane returned status 503",
		},
		{
			name:   "empty body",
			status: 404,
			body:   "",
			want:   "data-plane returned status 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(tt.status, []byte(tt.body))
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestAPIError_IsRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{500, true},
		{503, true},
		{429, true},
		{400, false},
		{404, false},
		{422, false},
	}

	for _, tt := range tests {
		err := newAPIError(tt.status, nil)
		if got := err.IsRetryable(); got != tt.want {
			t.Errorf("IsRetryable() for status %d = %v, want %v", tt.status, got, tt.want)
		}
	}
}
