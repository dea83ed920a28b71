// explore is an operator console for a running explorer-engine.
//
// It drives the engine's HTTP API: browse and search the catalog, run
// ad-hoc SELECT statements, and ask natural-language questions. Result
// sets render as tables on stdout.
//
// Usage: go run ./scripts/explore [flags] <command> [args...]
//
// Commands:
//
//	catalog            Show the catalog hierarchy
//	refresh            Force a catalog reload
//	search <query>     Filter the catalog by table, column, or domain
//	describe <table>   Show one table's columns
//	run <sql>          Execute a SELECT statement
//	ask <question>     Ask a natural-language question
//
// The engine address comes from EXPLORER_ADDR (default
// http://localhost:8087) and the project from EXPLORER_PROJECT; flags
// override both.
//
// Flags:
//
//	-addr     Engine base URL
//	-project  Project ID
//	-chart    Chart to request for run results (default: table)
//	-json     Print raw response JSON instead of rendered tables
//	-timeout  HTTP request timeout (default: 60s)
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/models"
)

func main() {
	addr := flag.String("addr", getEnvOrDefault("EXPLORER_ADDR", "http://localhost:8087"), "Engine base URL")
	project := flag.String("project", os.Getenv("EXPLORER_PROJECT"), "Project ID")
	chart := flag.String("chart", "table", "Chart to request for run results")
	rawJSON := flag.Bool("json", false, "Print raw response JSON instead of rendered tables")
	timeout := flag.Duration("timeout", 60*time.Second, "HTTP request timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	if *project == "" {
		fmt.Fprintf(os.Stderr, "Project ID is required: set -project or EXPLORER_PROJECT\n")
		os.Exit(1)
	}
	if !models.IsValidChartType(models.ChartType(*chart)) {
		fmt.Fprintf(os.Stderr, "Unsupported chart %q; valid charts: %s\n", *chart, joinCharts())
		os.Exit(1)
	}

	client := &apiClient{
		base:    strings.TrimRight(*addr, "/"),
		project: *project,
		http:    &http.Client{Timeout: *timeout},
	}

	var err error
	switch cmd := args[0]; cmd {
	case "catalog":
		err = showCatalog(client, *rawJSON)
	case "refresh":
		err = refreshCatalog(client, *rawJSON)
	case "search":
		if len(args) < 2 {
			err = fmt.Errorf("usage: search <query>")
			break
		}
		err = searchCatalog(client, strings.Join(args[1:], " "), *rawJSON)
	case "describe":
		if len(args) < 2 {
			err = fmt.Errorf("usage: describe <table>")
			break
		}
		err = describeTable(client, args[1], *rawJSON)
	case "run":
		if len(args) < 2 {
			err = fmt.Errorf("usage: run <sql>")
			break
		}
		err = runSQL(client, strings.Join(args[1:], " "), models.ChartType(*chart), *rawJSON)
	case "ask":
		if len(args) < 2 {
			err = fmt.Errorf("usage: ask <question>")
			break
		}
		err = askQuestion(client, strings.Join(args[1:], " "), *rawJSON)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <command> [args...]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  catalog            Show the catalog hierarchy\n")
	fmt.Fprintf(os.Stderr, "  refresh            Force a catalog reload\n")
	fmt.Fprintf(os.Stderr, "  search <query>     Filter the catalog by table, column, or domain\n")
	fmt.Fprintf(os.Stderr, "  describe <table>   Show one table's columns\n")
	fmt.Fprintf(os.Stderr, "  run <sql>          Execute a SELECT statement\n")
	fmt.Fprintf(os.Stderr, "  ask <question>     Ask a natural-language question\n")
	fmt.Fprintf(os.Stderr, "\nFlags:\n")
	flag.PrintDefaults()
}

// apiClient speaks the engine's JSON envelope: success responses carry
// data, expected failures come back as 200 with success=false, and
// request errors use the error/message shape.
type apiClient struct {
	base    string
	project string
	http    *http.Client
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (c *apiClient) projectPath(suffix string) string {
	return "/api/projects/" + url.PathEscape(c.project) + suffix
}

func (c *apiClient) get(path string) (json.RawMessage, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *apiClient) post(path string, body any) (json.RawMessage, error) {
	return c.do(http.MethodPost, path, body)
}

func (c *apiClient) do(method, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Error)
		}
		return nil, fmt.Errorf("engine returned status %d", resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("%s", env.Error)
		}
		return nil, fmt.Errorf("engine reported failure")
	}
	return env.Data, nil
}

func showCatalog(c *apiClient, rawJSON bool) error {
	data, err := c.get(c.projectPath("/catalog"))
	if err != nil {
		return err
	}
	if rawJSON {
		return printJSON(data)
	}

	var view explorer.CatalogView
	if err := json.Unmarshal(data, &view); err != nil {
		return fmt.Errorf("failed to decode catalog: %w", err)
	}
	return renderCatalogView(&view)
}

func refreshCatalog(c *apiClient, rawJSON bool) error {
	data, err := c.post(c.projectPath("/catalog/refresh"), nil)
	if err != nil {
		return err
	}
	if rawJSON {
		return printJSON(data)
	}

	var view explorer.CatalogView
	if err := json.Unmarshal(data, &view); err != nil {
		return fmt.Errorf("failed to decode catalog: %w", err)
	}
	return renderCatalogView(&view)
}

func searchCatalog(c *apiClient, query string, rawJSON bool) error {
	data, err := c.get(c.projectPath("/catalog/search?q=" + url.QueryEscape(query)))
	if err != nil {
		return err
	}
	if rawJSON {
		return printJSON(data)
	}

	var view explorer.CatalogView
	if err := json.Unmarshal(data, &view); err != nil {
		return fmt.Errorf("failed to decode catalog: %w", err)
	}
	return renderCatalogView(&view)
}

func describeTable(c *apiClient, tableName string, rawJSON bool) error {
	data, err := c.get(c.projectPath("/catalog/tables/" + url.PathEscape(tableName)))
	if err != nil {
		return err
	}
	if rawJSON {
		return printJSON(data)
	}

	var td models.TableDescriptor
	if err := json.Unmarshal(data, &td); err != nil {
		return fmt.Errorf("failed to decode table: %w", err)
	}

	fmt.Printf("Table: %s\n", td.Label())
	if td.EntityName != "" {
		fmt.Printf("Entity: %s\n", td.EntityName)
	}
	fmt.Printf("Truth type: %s\n", td.TruthType)
	fmt.Printf("Source file: %s\n", td.SourceFile)
	fmt.Printf("Domain: %s\n", td.Domain)
	if td.RowCount > 0 {
		fmt.Printf("Rows: %d\n", td.RowCount)
	}
	fmt.Println()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, col := range td.Columns {
		t.AppendRow(table.Row{col.Name, col.Type})
	}
	t.Render()
	return nil
}

func runSQL(c *apiClient, sqlText string, chart models.ChartType, rawJSON bool) error {
	body := map[string]any{"sql": sqlText, "chart": chart}
	data, err := c.post(c.projectPath("/queries/run"), body)
	if err != nil {
		return err
	}
	if rawJSON {
		return printJSON(data)
	}

	var exec explorer.Execution
	if err := json.Unmarshal(data, &exec); err != nil {
		return fmt.Errorf("failed to decode execution: %w", err)
	}

	renderResultSet(exec.Result)
	if chart != models.ChartTypeTable {
		renderChart(exec.Render)
	}
	return nil
}

func askQuestion(c *apiClient, question string, rawJSON bool) error {
	body := map[string]any{"question": question}
	data, err := c.post(c.projectPath("/ask"), body)
	if err != nil {
		return err
	}
	if rawJSON {
		return printJSON(data)
	}

	var view explorer.AnswerView
	if err := json.Unmarshal(data, &view); err != nil {
		return fmt.Errorf("failed to decode answer: %w", err)
	}
	if view.Answer == nil {
		return fmt.Errorf("engine returned no answer")
	}

	fmt.Println(view.Answer.Text)
	fmt.Println()
	renderResultSet(&view.Answer.Result)
	if view.Answer.RecommendedChart != "" && view.Answer.RecommendedChart != models.ChartTypeTable {
		fmt.Printf("\nRecommended chart: %s\n", view.Answer.RecommendedChart)
	}
	return nil
}

// renderCatalogView prints a loaded catalog as one row per table. The
// loading and failed states print as status lines instead.
func renderCatalogView(view *explorer.CatalogView) error {
	switch view.State {
	case explorer.CatalogStateLoading:
		fmt.Println("Catalog is loading; try again shortly.")
		return nil
	case explorer.CatalogStateFailed:
		return fmt.Errorf("catalog load failed: %s", view.Error)
	}
	if view.Hierarchy == nil || view.Hierarchy.TableCount == 0 {
		fmt.Println("(0 tables)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Truth Type", "Source File", "Domain", "Table", "Rows", "Columns"})

	for _, tt := range view.Hierarchy.TruthTypes {
		for _, file := range tt.Files {
			for _, domain := range file.Domains {
				for _, tbl := range domain.Tables {
					t.AppendRow(table.Row{
						tt.TruthType,
						file.SourceFile,
						domain.Domain,
						tbl.Label(),
						tbl.RowCount,
						len(tbl.Columns),
					})
				}
			}
		}
	}

	t.Render()
	fmt.Printf("(%d tables)\n", view.Hierarchy.TableCount)
	if view.LoadedAt != nil {
		fmt.Printf("Loaded at %s\n", view.LoadedAt.Format(time.RFC3339))
	}
	return nil
}

func renderResultSet(rs *models.ResultSet) {
	if rs == nil || rs.RowCount == 0 {
		fmt.Println("(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rs.Rows {
		out := make(table.Row, len(rs.Columns))
		for i, col := range rs.Columns {
			out[i] = formatValue(row[col])
		}
		t.AppendRow(out)
	}

	t.Render()
	fmt.Printf("(%d rows)\n", rs.RowCount)
}

// renderChart prints the series points of a bar, line, or pie
// projection. An empty projection means the columns could not be
// mapped, which the engine reports rather than fails.
func renderChart(spec models.RenderSpec) {
	if spec.Empty || len(spec.Points) == 0 {
		fmt.Printf("\nNo %s chart available for these columns.\n", spec.Chart)
		return
	}

	fmt.Printf("\nChart data (%s):\n", spec.Chart)
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Label", "Value"})
	for _, p := range spec.Points {
		t.AppendRow(table.Row{p.Label, p.Value})
	}
	t.Render()
	if spec.Truncated {
		fmt.Printf("(truncated to %d points)\n", len(spec.Points))
	}
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func printJSON(data json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	fmt.Println(buf.String())
	return nil
}

func joinCharts() string {
	parts := make([]string, len(models.ValidChartTypes))
	for i, c := range models.ValidChartTypes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
