package tools

import (
	"context"

	"github.com/velora-hq/explorer-engine/pkg/dataplane"
	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/models"
	"github.com/velora-hq/explorer-engine/pkg/querybuilder"
)

// mockExplorerService implements explorer.Service for testing. Only the
// operations the MCP tools reach are configurable; the session-scoped
// operations are stubs.
type mockExplorerService struct {
	catalogView *explorer.CatalogView
	catalogErr  error
	searched    []string

	table       *models.TableDescriptor
	describeErr error

	execution *explorer.Execution
	runErr    error
	ranSQL    []string
	ranCharts []models.ChartType

	answer *explorer.AnswerView
	askErr error
	asked  []string
}

func (m *mockExplorerService) Catalog(ctx context.Context, projectID string) (*explorer.CatalogView, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return m.catalogView, nil
}

func (m *mockExplorerService) RefreshCatalog(ctx context.Context, projectID string) (*explorer.CatalogView, error) {
	return m.catalogView, nil
}

func (m *mockExplorerService) SearchCatalog(ctx context.Context, projectID, query string) (*explorer.CatalogView, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	m.searched = append(m.searched, query)
	return m.catalogView, nil
}

func (m *mockExplorerService) DescribeTable(ctx context.Context, projectID, qualifiedName string) (*models.TableDescriptor, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	return m.table, nil
}

func (m *mockExplorerService) CreateSession(projectID string) *explorer.SessionView {
	return nil
}

func (m *mockExplorerService) Session(sessionID string) (*explorer.SessionView, error) {
	return nil, nil
}

func (m *mockExplorerService) ApplyCommand(sessionID string, cmd querybuilder.Command) (*explorer.SessionView, error) {
	return nil, nil
}

func (m *mockExplorerService) DeleteSession(sessionID string) {}

func (m *mockExplorerService) Execute(ctx context.Context, sessionID string, req explorer.ExecuteRequest) (*explorer.Execution, error) {
	return nil, nil
}

func (m *mockExplorerService) RunSpec(ctx context.Context, projectID string, spec models.QuerySpec, chart models.ChartType) (*explorer.Execution, error) {
	return nil, nil
}

func (m *mockExplorerService) RunSQL(ctx context.Context, projectID, sqlText string, chart models.ChartType) (*explorer.Execution, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	m.ranSQL = append(m.ranSQL, sqlText)
	m.ranCharts = append(m.ranCharts, chart)
	return m.execution, nil
}

func (m *mockExplorerService) Ask(ctx context.Context, projectID, question string) (*explorer.AnswerView, error) {
	if m.askErr != nil {
		return nil, m.askErr
	}
	m.asked = append(m.asked, question)
	return m.answer, nil
}

func (m *mockExplorerService) Export(ctx context.Context, projectID, sqlText, format string) (*dataplane.ExportResult, error) {
	return nil, nil
}
