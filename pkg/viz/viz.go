// Package viz maps normalized result sets onto chart-ready render
// specs, enforcing the per-chart display caps.
package viz

import (
	"github.com/velora-hq/explorer-engine/pkg/jsonutil"
	"github.com/velora-hq/explorer-engine/pkg/models"
)

// Display caps per chart type. Rows beyond the cap are dropped and the
// rendering is flagged truncated.
const (
	TableRowCap      = 100
	BarRowCap        = 20
	LineRowCap       = 50
	PieRowCap        = 10
	PieCompactRowCap = 8
)

// Palette is the fixed color cycle for pie slices, indexed by row
// position.
var Palette = [...]string{
	"#5470c6", "#91cc75", "#fac858", "#ee6666",
	"#73c0de", "#3ba272", "#fc8452", "#9a60b4",
}

// Options adjusts mapping for the rendering context.
type Options struct {
	// Compact tightens the pie cap for inline renderings.
	Compact bool
}

// Map projects a result set onto a render spec for the requested chart.
// It never fails: unknown chart types fall back to table, and series
// charts that lack the two required columns come back Empty rather than
// erroring. The caller offers the table fallback for empty renderings.
func Map(rs *models.ResultSet, chart models.ChartType, opts Options) models.RenderSpec {
	if !models.IsValidChartType(chart) {
		chart = models.ChartTypeTable
	}
	if rs == nil {
		return models.RenderSpec{Chart: chart, Empty: true}
	}

	switch chart {
	case models.ChartTypeBar:
		return series(rs, chart, BarRowCap, false)
	case models.ChartTypeLine:
		return series(rs, chart, LineRowCap, false)
	case models.ChartTypePie:
		rowCap := PieRowCap
		if opts.Compact {
			rowCap = PieCompactRowCap
		}
		return series(rs, chart, rowCap, true)
	default:
		return table(rs)
	}
}

// table passes rows through under the display cap. A table is always
// drawable, so it is never Empty.
func table(rs *models.ResultSet) models.RenderSpec {
	rows := rs.Rows
	truncated := false
	if len(rows) > TableRowCap {
		rows = rows[:TableRowCap]
		truncated = true
	}
	return models.RenderSpec{
		Chart:     models.ChartTypeTable,
		Columns:   rs.Columns,
		Rows:      rows,
		Truncated: truncated,
	}
}

// series reads the first two columns as label and value. Colors are
// assigned for pie slices only.
func series(rs *models.ResultSet, chart models.ChartType, rowCap int, colored bool) models.RenderSpec {
	if len(rs.Columns) < 2 {
		return models.RenderSpec{Chart: chart, Empty: true}
	}
	labelCol, valueCol := rs.Columns[0], rs.Columns[1]

	rows := rs.Rows
	truncated := false
	if len(rows) > rowCap {
		rows = rows[:rowCap]
		truncated = true
	}

	points := make([]models.SeriesPoint, 0, len(rows))
	for i, row := range rows {
		value, _ := jsonutil.NumberValue(row[valueCol])
		point := models.SeriesPoint{
			Label: jsonutil.StringValue(row[labelCol]),
			Value: value,
		}
		if colored {
			point.Color = Palette[i%len(Palette)]
		}
		points = append(points, point)
	}

	return models.RenderSpec{
		Chart:     chart,
		Columns:   []string{labelCol, valueCol},
		Points:    points,
		Truncated: truncated,
		Empty:     len(points) == 0,
	}
}
