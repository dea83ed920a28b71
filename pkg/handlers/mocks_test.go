package handlers

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/velora-hq/explorer-engine/pkg/dataplane"
	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/models"
	"github.com/velora-hq/explorer-engine/pkg/querybuilder"
)

// mockExplorerService is a configurable mock for all handler tests.
type mockExplorerService struct {
	catalogView *explorer.CatalogView
	catalogErr  error
	refreshErr  error
	searched    []string

	table       *models.TableDescriptor
	describeErr error

	sessionView *explorer.SessionView
	sessionErr  error
	applied     []querybuilder.Command
	applyErr    error
	deleted     []string

	execution   *explorer.Execution
	executeErr  error
	executeReqs []explorer.ExecuteRequest
	ranSpecs    []models.QuerySpec
	ranSQL      []string

	answer *explorer.AnswerView
	askErr error
	asked  []string

	exportResult  *dataplane.ExportResult
	exportErr     error
	exported      []string
	exportFormats []string
}

func (m *mockExplorerService) Catalog(ctx context.Context, projectID string) (*explorer.CatalogView, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	if m.catalogView != nil {
		return m.catalogView, nil
	}
	return &explorer.CatalogView{State: explorer.CatalogStateLoaded}, nil
}

func (m *mockExplorerService) RefreshCatalog(ctx context.Context, projectID string) (*explorer.CatalogView, error) {
	if m.refreshErr != nil {
		// A suppressed refresh reports the in-flight view alongside the error.
		return m.catalogView, m.refreshErr
	}
	return m.Catalog(ctx, projectID)
}

func (m *mockExplorerService) SearchCatalog(ctx context.Context, projectID, query string) (*explorer.CatalogView, error) {
	m.searched = append(m.searched, query)
	return m.Catalog(ctx, projectID)
}

func (m *mockExplorerService) DescribeTable(ctx context.Context, projectID, qualifiedName string) (*models.TableDescriptor, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	if m.table != nil {
		return m.table, nil
	}
	return &models.TableDescriptor{QualifiedName: qualifiedName, DisplayName: "Table"}, nil
}

func (m *mockExplorerService) CreateSession(projectID string) *explorer.SessionView {
	if m.sessionView != nil {
		return m.sessionView
	}
	return &explorer.SessionView{ID: uuid.NewString(), ProjectID: projectID}
}

func (m *mockExplorerService) Session(sessionID string) (*explorer.SessionView, error) {
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	if m.sessionView != nil {
		return m.sessionView, nil
	}
	return &explorer.SessionView{ID: sessionID, ProjectID: "proj-1"}, nil
}

func (m *mockExplorerService) ApplyCommand(sessionID string, cmd querybuilder.Command) (*explorer.SessionView, error) {
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	m.applied = append(m.applied, cmd)
	if m.sessionView != nil {
		return m.sessionView, nil
	}
	return &explorer.SessionView{ID: sessionID, ProjectID: "proj-1"}, nil
}

func (m *mockExplorerService) DeleteSession(sessionID string) {
	m.deleted = append(m.deleted, sessionID)
}

func (m *mockExplorerService) Execute(ctx context.Context, sessionID string, req explorer.ExecuteRequest) (*explorer.Execution, error) {
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	m.executeReqs = append(m.executeReqs, req)
	return m.defaultExecution(), nil
}

func (m *mockExplorerService) RunSpec(ctx context.Context, projectID string, spec models.QuerySpec, chart models.ChartType) (*explorer.Execution, error) {
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	m.ranSpecs = append(m.ranSpecs, spec)
	return m.defaultExecution(), nil
}

func (m *mockExplorerService) RunSQL(ctx context.Context, projectID, sqlText string, chart models.ChartType) (*explorer.Execution, error) {
	if m.executeErr != nil {
		return nil, m.executeErr
	}
	m.ranSQL = append(m.ranSQL, sqlText)
	return m.defaultExecution(), nil
}

func (m *mockExplorerService) Ask(ctx context.Context, projectID, question string) (*explorer.AnswerView, error) {
	if m.askErr != nil {
		return nil, m.askErr
	}
	m.asked = append(m.asked, question)
	if m.answer != nil {
		return m.answer, nil
	}
	return &explorer.AnswerView{
		Answer: &models.Answer{Text: "42 employees"},
		Render: models.RenderSpec{Chart: models.ChartTypeTable},
	}, nil
}

func (m *mockExplorerService) Export(ctx context.Context, projectID, sqlText, format string) (*dataplane.ExportResult, error) {
	if m.exportErr != nil {
		return nil, m.exportErr
	}
	m.exported = append(m.exported, sqlText)
	m.exportFormats = append(m.exportFormats, format)
	if m.exportResult != nil {
		return m.exportResult, nil
	}
	return &dataplane.ExportResult{
		Body:        io.NopCloser(strings.NewReader("department,total\nEngineering,12\n")),
		ContentType: "text/csv",
		Filename:    "export.csv",
	}, nil
}

func (m *mockExplorerService) defaultExecution() *explorer.Execution {
	if m.execution != nil {
		return m.execution
	}
	return &explorer.Execution{
		SQL: `SELECT "department" FROM "hr.employees" LIMIT 100`,
		Result: &models.ResultSet{
			Columns:  []string{"department"},
			Rows:     []map[string]any{{"department": "Engineering"}},
			RowCount: 1,
		},
		Render: models.RenderSpec{
			Chart:   models.ChartTypeTable,
			Columns: []string{"department"},
			Rows:    []map[string]any{{"department": "Engineering"}},
		},
	}
}
