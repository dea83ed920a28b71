package dataplane

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/retry"
)

// newTestClient points a client with fast retry timing at a test server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 0, 0, zap.NewNop())
	client.retryCfg = &retry.Config{
		MaxRetries:       3,
		InitialDelay:     time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		Multiplier:       2.0,
		JitterFactor:     0,
		MaxSameErrorType: 5,
	}
	return client
}

func TestClient_FetchCatalog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/v1/catalog" {
			t.Errorf("path = %s, want /api/v1/catalog", r.URL.Path)
		}
		if got := r.URL.Query().Get("project"); got != "p1" {
			t.Errorf("project = %q, want p1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"tables": [{"qualified_name": "payroll.pay_runs"}, null]}`)
	})

	tables, err := client.FetchCatalog(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}
	if len(tables) != 2 {
		t.Errorf("got %d raw entries, want 2 (null entries included)", len(tables))
	}
}

func TestClient_FetchCatalog_RetriesServerErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"tables": []}`)
	})

	_, err := client.FetchCatalog(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchCatalog failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestClient_FetchCatalog_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail": "unknown project"}`)
	})

	_, err := client.FetchCatalog(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (client errors are permanent)", attempts)
	}
	if !strings.Contains(err.Error(), "unknown project") {
		t.Errorf("error %q does not carry the server detail", err)
	}
}

func TestClient_ExecuteSQL(t *testing.T) {
	const sqlText = `SELECT "dept" FROM "t" LIMIT 100`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/sql" {
			t.Errorf("path = %s, want /api/v1/sql", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if body["project"] != "p1" || body["sql"] != sqlText {
			t.Errorf("body = %v, want project and verbatim sql", body)
		}
		io.WriteString(w, `{"data": [{"dept": "Sales"}], "row_count": 1}`)
	})

	rs, err := client.ExecuteSQL(context.Background(), "p1", sqlText)
	if err != nil {
		t.Fatalf("ExecuteSQL failed: %v", err)
	}
	if rs.RowCount != 1 || len(rs.Rows) != 1 {
		t.Errorf("result = %+v, want one row", rs)
	}
	if rs.SQL != sqlText {
		t.Errorf("SQL = %q, want submitted statement", rs.SQL)
	}
}

func TestClient_ExecuteSQL_NeverRetries(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail": "executor unavailable"}`)
	})

	_, err := client.ExecuteSQL(context.Background(), "p1", "SELECT 1")
	if err == nil {
		t.Fatal("expected execution error")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want exactly 1", attempts)
	}
	if !strings.Contains(err.Error(), "executor unavailable") {
		t.Errorf("error %q does not carry the server detail", err)
	}
}

func TestClient_Ask(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ask" {
			t.Errorf("path = %s, want /api/v1/ask", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if body["query"] != "which dept earns most" {
			t.Errorf("query = %v", body["query"])
		}
		io.WriteString(w, `{
			"answer_text": "Sales, by a wide margin.",
			"data": [{"dept": "Sales", "total": 9000}],
			"columns": ["dept", "total"],
			"sql": "SELECT 1",
			"chart": {"recommended": "pie"}
		}`)
	})

	answer, err := client.Ask(context.Background(), "p1", "which dept earns most")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer.Text != "Sales, by a wide margin." {
		t.Errorf("Text = %q", answer.Text)
	}
	if string(answer.RecommendedChart) != "pie" {
		t.Errorf("RecommendedChart = %q, want pie", answer.RecommendedChart)
	}
	if len(answer.Result.Rows) != 1 {
		t.Errorf("Result.Rows = %d, want 1", len(answer.Result.Rows))
	}
}

func TestClient_Export(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/export" {
			t.Errorf("path = %s, want /api/v1/export", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if body["sql"] != "SELECT 1" || body["format"] != "csv" {
			t.Errorf("body = %v, want verbatim sql and format", body)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="pay_runs.csv"`)
		io.WriteString(w, "dept,total\nSales,9000\n")
	})

	result, err := client.Export(context.Background(), "p1", "SELECT 1", "csv")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer result.Body.Close()

	if result.Filename != "pay_runs.csv" {
		t.Errorf("Filename = %q, want pay_runs.csv", result.Filename)
	}
	if result.ContentType != "text/csv" {
		t.Errorf("ContentType = %q, want text/csv", result.ContentType)
	}
	data, err := io.ReadAll(result.Body)
	if err != nil {
		t.Fatalf("reading export body: %v", err)
	}
	if !strings.HasPrefix(string(data), "dept,total") {
		t.Errorf("body = %q", data)
	}
}

func TestClient_Export_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "unsupported format"}`)
	})

	_, err := client.Export(context.Background(), "p1", "SELECT 1", "parquet")
	if err == nil {
		t.Fatal("expected export error")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error %q does not carry the server detail", err)
	}
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		format      string
		want        string
	}{
		{"from header", `attachment; filename="report.xlsx"`, "xlsx", "report.xlsx"},
		{"missing header", "", "csv", "export.csv"},
		{"malformed header", ";;;", "csv", "export.csv"},
		{"empty format fallback", "", "", "export.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportFilename(tt.disposition, tt.format); got != tt.want {
				t.Errorf("exportFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
