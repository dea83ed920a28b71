package tools

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/models"
	"github.com/velora-hq/explorer-engine/pkg/sql"
)

func sampleExecution() *explorer.Execution {
	return &explorer.Execution{
		SQL: `SELECT "department", SUM("gross_amount") AS "total" FROM "payroll.pay_runs" GROUP BY "department" LIMIT 100`,
		Result: &models.ResultSet{
			Columns: []string{"department", "total"},
			Rows: []map[string]any{
				{"department": "Engineering", "total": 125000.0},
				{"department": "Sales", "total": 98000.0},
			},
			RowCount: 2,
		},
		Render: models.RenderSpec{
			Chart:   models.ChartTypeBar,
			Columns: []string{"department", "total"},
		},
	}
}

func TestRunTableQueryTool(t *testing.T) {
	t.Run("executes and returns rows with a rendering", func(t *testing.T) {
		mock := &mockExplorerService{execution: sampleExecution()}
		s := newToolServer(mock)

		outcome := callTool(t, s, "run_table_query", map[string]any{
			"project_id": "proj-1",
			"sql":        `SELECT "department" FROM "hr.employees" LIMIT 100`,
			"chart":      "bar",
		})

		require.Empty(t, outcome.protocolErr)
		require.False(t, outcome.isError)

		require.Len(t, mock.ranSQL, 1)
		assert.Equal(t, `SELECT "department" FROM "hr.employees" LIMIT 100`, mock.ranSQL[0])
		require.Len(t, mock.ranCharts, 1)
		assert.Equal(t, models.ChartTypeBar, mock.ranCharts[0])

		var execution explorer.Execution
		require.NoError(t, json.Unmarshal([]byte(outcome.text), &execution))
		require.NotNil(t, execution.Result)
		assert.Equal(t, 2, execution.Result.RowCount)
		assert.Equal(t, models.ChartTypeBar, execution.Render.Chart)
	})

	t.Run("chart defaults to table", func(t *testing.T) {
		mock := &mockExplorerService{execution: sampleExecution()}
		s := newToolServer(mock)

		outcome := callTool(t, s, "run_table_query", map[string]any{
			"project_id": "proj-1",
			"sql":        `SELECT "department" FROM "hr.employees" LIMIT 100`,
		})

		require.False(t, outcome.isError)
		require.Len(t, mock.ranCharts, 1)
		assert.Equal(t, models.ChartTypeTable, mock.ranCharts[0])
	})

	t.Run("unsupported chart is rejected with the valid list", func(t *testing.T) {
		mock := &mockExplorerService{execution: sampleExecution()}
		s := newToolServer(mock)

		outcome := callTool(t, s, "run_table_query", map[string]any{
			"project_id": "proj-1",
			"sql":        `SELECT "department" FROM "hr.employees"`,
			"chart":      "scatter",
		})

		require.True(t, outcome.isError)
		assert.Empty(t, mock.ranSQL, "query should not run with an invalid chart")

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal([]byte(outcome.text), &errResp))
		assert.Equal(t, "invalid_chart", errResp.Code)
		assert.NotNil(t, errResp.Details)
	})

	t.Run("blank sql is rejected", func(t *testing.T) {
		s := newToolServer(&mockExplorerService{})

		outcome := callTool(t, s, "run_table_query", map[string]any{
			"project_id": "proj-1",
			"sql":        "  ",
		})

		require.True(t, outcome.isError)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal([]byte(outcome.text), &errResp))
		assert.Equal(t, "invalid_parameters", errResp.Code)
	})

	t.Run("screened statement is an actionable error", func(t *testing.T) {
		mock := &mockExplorerService{
			runErr: fmt.Errorf("statement rejected: %w", sql.ErrNotSelect),
		}
		s := newToolServer(mock)

		outcome := callTool(t, s, "run_table_query", map[string]any{
			"project_id": "proj-1",
			"sql":        `DROP TABLE "payroll.pay_runs"`,
		})

		require.True(t, outcome.isError)

		var errResp ErrorResponse
		require.NoError(t, json.Unmarshal([]byte(outcome.text), &errResp))
		assert.Equal(t, "not_select", errResp.Code)
		assert.Contains(t, errResp.Message, "SELECT")
	})
}
