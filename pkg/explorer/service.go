package explorer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/catalog"
	"github.com/velora-hq/explorer-engine/pkg/dataplane"
	"github.com/velora-hq/explorer-engine/pkg/metrics"
	"github.com/velora-hq/explorer-engine/pkg/models"
	"github.com/velora-hq/explorer-engine/pkg/querybuilder"
	"github.com/velora-hq/explorer-engine/pkg/sql"
	"github.com/velora-hq/explorer-engine/pkg/viz"
)

// DataplaneClient is the slice of the data-plane API the explorer uses.
type DataplaneClient interface {
	FetchCatalog(ctx context.Context, projectID string) ([]any, error)
	ExecuteSQL(ctx context.Context, projectID, sqlQuery string) (*models.ResultSet, error)
	Ask(ctx context.Context, projectID, question string) (*models.Answer, error)
	Export(ctx context.Context, projectID, sqlQuery, format string) (*dataplane.ExportResult, error)
}

// ExecuteRequest selects chart and execution mode for a session run.
type ExecuteRequest struct {
	Chart models.ChartType `json:"chart"`
	// Compact tightens chart caps for inline renderings.
	Compact bool `json:"compact"`
	// AllowPreview runs the table preview when no columns are selected
	// instead of failing with an empty-selection error.
	AllowPreview bool `json:"allow_preview"`
}

// Execution is one query run: the statement sent upstream, the
// normalized result, and its chart projection.
type Execution struct {
	SQL    string            `json:"sql"`
	Result *models.ResultSet `json:"result"`
	Render models.RenderSpec `json:"render"`
}

// AnswerView pairs a natural-language answer with its rendering.
type AnswerView struct {
	Answer *models.Answer    `json:"answer"`
	Render models.RenderSpec `json:"render"`
}

// Service is the explorer's orchestration surface: catalog lifecycle,
// sessions, command dispatch, and the compile-guard-execute-map
// pipeline. HTTP handlers and MCP tools drive the engine through this
// interface only.
type Service interface {
	// Catalog returns the project's catalog view, loading it on first
	// access.
	Catalog(ctx context.Context, projectID string) (*CatalogView, error)
	// RefreshCatalog forces a reload. A refresh while a load is in
	// flight is suppressed and returns ErrCatalogLoading.
	RefreshCatalog(ctx context.Context, projectID string) (*CatalogView, error)
	// SearchCatalog returns a filtered projection of the catalog.
	SearchCatalog(ctx context.Context, projectID, query string) (*CatalogView, error)
	// DescribeTable returns one table's descriptor.
	DescribeTable(ctx context.Context, projectID, qualifiedName string) (*models.TableDescriptor, error)

	// CreateSession registers a fresh exploration session.
	CreateSession(projectID string) *SessionView
	// Session returns the current state of a session.
	Session(sessionID string) (*SessionView, error)
	// ApplyCommand dispatches one builder command to a session.
	ApplyCommand(sessionID string, cmd querybuilder.Command) (*SessionView, error)
	// DeleteSession discards a session. Unknown IDs are a no-op.
	DeleteSession(sessionID string)

	// Execute compiles and runs the session's current selection.
	Execute(ctx context.Context, sessionID string, req ExecuteRequest) (*Execution, error)
	// RunSpec compiles and runs a caller-supplied spec without touching
	// session state.
	RunSpec(ctx context.Context, projectID string, spec models.QuerySpec, chart models.ChartType) (*Execution, error)
	// RunSQL executes one ad-hoc SELECT statement.
	RunSQL(ctx context.Context, projectID, sqlText string, chart models.ChartType) (*Execution, error)
	// Ask forwards a natural-language question and renders the answer.
	Ask(ctx context.Context, projectID, question string) (*AnswerView, error)
	// Export streams an export download for previously produced SQL.
	Export(ctx context.Context, projectID, sqlText, format string) (*dataplane.ExportResult, error)
}

type service struct {
	client    DataplaneClient
	organizer *catalog.Organizer
	catalogs  *catalogStore
	registry  SessionRegistry
	logger    *zap.Logger
}

// NewService wires the explorer together.
func NewService(client DataplaneClient, organizer *catalog.Organizer, registry SessionRegistry, logger *zap.Logger) Service {
	return &service{
		client:    client,
		organizer: organizer,
		catalogs:  newCatalogStore(),
		registry:  registry,
		logger:    logger.Named("explorer"),
	}
}

func (s *service) Catalog(ctx context.Context, projectID string) (*CatalogView, error) {
	if s.catalogs.state(projectID) == CatalogStateIdle {
		s.load(ctx, projectID)
	}
	return s.catalogs.view(projectID), nil
}

func (s *service) RefreshCatalog(ctx context.Context, projectID string) (*CatalogView, error) {
	if !s.catalogs.begin(projectID) {
		metrics.CatalogLoads.WithLabelValues("suppressed").Inc()
		s.logger.Debug("catalog refresh suppressed, load already in flight",
			zap.String("project_id", projectID))
		return s.catalogs.view(projectID), apperrors.ErrCatalogLoading
	}
	s.runLoad(ctx, projectID)
	return s.catalogs.view(projectID), nil
}

func (s *service) SearchCatalog(ctx context.Context, projectID, query string) (*CatalogView, error) {
	view, err := s.Catalog(ctx, projectID)
	if err != nil || view.State != CatalogStateLoaded {
		return view, err
	}

	filtered := s.organizer.Search(s.catalogs.tableList(projectID), query)
	view.Hierarchy = &filtered
	return view, nil
}

func (s *service) DescribeTable(ctx context.Context, projectID, qualifiedName string) (*models.TableDescriptor, error) {
	if _, err := s.Catalog(ctx, projectID); err != nil {
		return nil, err
	}
	table, ok := s.catalogs.resolve(projectID, qualifiedName)
	if !ok {
		return nil, fmt.Errorf("%w: table %q", apperrors.ErrNotFound, qualifiedName)
	}
	return &table, nil
}

// load starts a catalog load unless one is already in flight.
func (s *service) load(ctx context.Context, projectID string) {
	if !s.catalogs.begin(projectID) {
		return
	}
	s.runLoad(ctx, projectID)
}

// runLoad fetches, normalizes, and organizes one catalog. Callers must
// have moved the project to Loading via begin.
func (s *service) runLoad(ctx context.Context, projectID string) {
	start := time.Now()
	raw, err := s.client.FetchCatalog(ctx, projectID)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues("failed").Inc()
		metrics.CatalogLoadDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		s.logger.Warn("catalog load failed",
			zap.String("project_id", projectID),
			zap.Error(err))
		s.catalogs.fail(projectID, err.Error())
		return
	}

	tables := s.organizer.Normalize(raw)
	hierarchy := s.organizer.Organize(tables)
	s.catalogs.complete(projectID, tables, hierarchy)

	metrics.CatalogLoads.WithLabelValues("loaded").Inc()
	metrics.CatalogLoadDuration.WithLabelValues("loaded").Observe(time.Since(start).Seconds())
	s.logger.Info("catalog loaded",
		zap.String("project_id", projectID),
		zap.Int("tables", len(tables)))
}

func (s *service) CreateSession(projectID string) *SessionView {
	return s.registry.Create(projectID).View()
}

func (s *service) Session(sessionID string) (*SessionView, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.View(), nil
}

func (s *service) ApplyCommand(sessionID string, cmd querybuilder.Command) (*SessionView, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.resolveCommandColumn(sess, &cmd)
	if err := sess.Apply(cmd); err != nil {
		return nil, err
	}
	return sess.View(), nil
}

func (s *service) DeleteSession(sessionID string) {
	s.registry.Delete(sessionID)
}

// resolveCommandColumn fills in a missing column type from the loaded
// catalog, falling back to name inference. UI payloads carry full
// descriptors; agent-built commands often name the column only.
func (s *service) resolveCommandColumn(sess *Session, cmd *querybuilder.Command) {
	if cmd.Column == nil || cmd.Column.Name == "" || models.IsValidColumnType(cmd.Column.Type) {
		return
	}

	table := cmd.Table
	if table == "" {
		spec, _ := sess.Snapshot()
		table = spec.Table
	}
	if td, ok := s.catalogs.resolve(sess.ProjectID, table); ok {
		if col, ok := td.Column(cmd.Column.Name); ok {
			cmd.Column.Type = col.Type
			return
		}
	}
	cmd.Column.Type = catalog.InferColumnType(cmd.Column.Name)
}

func (s *service) Execute(ctx context.Context, sessionID string, req ExecuteRequest) (*Execution, error) {
	sess, err := s.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}

	spec, epoch := sess.Snapshot()
	if spec.Table == "" {
		return nil, apperrors.ErrNoTableSelected
	}

	mode := "builder"
	sqlText := sql.Compile(&spec)
	if sqlText == "" {
		if !req.AllowPreview {
			return nil, apperrors.ErrNoColumnsSelected
		}
		mode = "preview"
		sqlText = sql.Preview(spec.Table)
	}

	if err := sql.GuardSpec(&spec); err != nil {
		metrics.InjectionRejections.Inc()
		metrics.QueryExecutions.WithLabelValues(mode, "rejected").Inc()
		s.logger.Warn("execution rejected by injection guard",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}

	rs, err := s.runQuery(ctx, sess.ProjectID, sqlText, mode)
	if err != nil {
		sess.ClearResult()
		return nil, err
	}

	if err := sess.CommitResult(rs, epoch); err != nil {
		metrics.StaleResults.Inc()
		s.logger.Debug("discarded stale execution result",
			zap.String("session_id", sessionID))
		return nil, err
	}

	return s.execution(rs, sqlText, req.Chart, req.Compact), nil
}

func (s *service) RunSpec(ctx context.Context, projectID string, spec models.QuerySpec, chart models.ChartType) (*Execution, error) {
	if spec.Table == "" {
		return nil, apperrors.ErrNoTableSelected
	}
	sqlText := sql.Compile(&spec)
	if sqlText == "" {
		return nil, apperrors.ErrNoColumnsSelected
	}
	if err := sql.GuardSpec(&spec); err != nil {
		metrics.InjectionRejections.Inc()
		metrics.QueryExecutions.WithLabelValues("builder", "rejected").Inc()
		return nil, err
	}

	rs, err := s.runQuery(ctx, projectID, sqlText, "builder")
	if err != nil {
		return nil, err
	}
	return s.execution(rs, sqlText, chart, false), nil
}

func (s *service) RunSQL(ctx context.Context, projectID, sqlText string, chart models.ChartType) (*Execution, error) {
	result := sql.ValidateAndNormalize(sqlText)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := sql.RequireSelect(result.NormalizedSQL); err != nil {
		return nil, err
	}

	rs, err := s.runQuery(ctx, projectID, result.NormalizedSQL, "adhoc")
	if err != nil {
		return nil, err
	}
	alignColumns(rs)
	return s.execution(rs, result.NormalizedSQL, chart, false), nil
}

func (s *service) Ask(ctx context.Context, projectID, question string) (*AnswerView, error) {
	start := time.Now()
	answer, err := s.client.Ask(ctx, projectID, question)
	metrics.QueryDuration.WithLabelValues("natural").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryExecutions.WithLabelValues("natural", "error").Inc()
		return nil, err
	}
	metrics.QueryExecutions.WithLabelValues("natural", "ok").Inc()

	render := viz.Map(&answer.Result, answer.RecommendedChart, viz.Options{})
	return &AnswerView{Answer: answer, Render: render}, nil
}

func (s *service) Export(ctx context.Context, projectID, sqlText, format string) (*dataplane.ExportResult, error) {
	result := sql.ValidateAndNormalize(sqlText)
	if result.Error != nil {
		return nil, result.Error
	}
	if err := sql.RequireSelect(result.NormalizedSQL); err != nil {
		return nil, err
	}
	if format == "" {
		format = "csv"
	}
	return s.client.Export(ctx, projectID, result.NormalizedSQL, format)
}

// runQuery executes one statement and records execution metrics.
func (s *service) runQuery(ctx context.Context, projectID, sqlText, mode string) (*models.ResultSet, error) {
	start := time.Now()
	rs, err := s.client.ExecuteSQL(ctx, projectID, sqlText)
	metrics.QueryDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueryExecutions.WithLabelValues(mode, "error").Inc()
		return nil, err
	}
	metrics.QueryExecutions.WithLabelValues(mode, "ok").Inc()
	metrics.ResultRows.Observe(float64(rs.RowCount))
	return rs, nil
}

func (s *service) execution(rs *models.ResultSet, sqlText string, chart models.ChartType, compact bool) *Execution {
	if !models.IsValidChartType(chart) {
		chart = models.ChartTypeTable
	}
	return &Execution{
		SQL:    sqlText,
		Result: rs,
		Render: viz.Map(rs, chart, viz.Options{Compact: compact}),
	}
}

// alignColumns reorders derived column names to the statement's SELECT
// list when every parsed name matches. Derived names are alphabetical;
// the author's order reads better.
func alignColumns(rs *models.ResultSet) {
	parsed := sql.ParseSelectColumns(rs.SQL)
	if len(parsed) == 0 || len(parsed) != len(rs.Columns) {
		return
	}

	have := make(map[string]bool, len(rs.Columns))
	for _, name := range rs.Columns {
		have[name] = true
	}
	ordered := make([]string, 0, len(parsed))
	for _, col := range parsed {
		if !have[col.Name] {
			return
		}
		ordered = append(ordered, col.Name)
	}
	rs.Columns = ordered
}

// Ensure service implements Service at compile time.
var _ Service = (*service)(nil)
