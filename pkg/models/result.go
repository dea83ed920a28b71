package models

// ResultSet is the normalized shape of an execution response. It is created
// per run and replaced, never merged.
type ResultSet struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	SQL      string           `json:"sql,omitempty"`
}

// Answer is the normalized response to a natural-language question.
type Answer struct {
	Text             string    `json:"answer_text"`
	Result           ResultSet `json:"result"`
	RecommendedChart ChartType `json:"recommended_chart,omitempty"`
}

// ChartType selects a result rendering.
type ChartType string

const (
	ChartTypeTable ChartType = "table"
	ChartTypeBar   ChartType = "bar"
	ChartTypeLine  ChartType = "line"
	ChartTypePie   ChartType = "pie"
)

// ValidChartTypes contains all valid chart type values.
var ValidChartTypes = []ChartType{
	ChartTypeTable,
	ChartTypeBar,
	ChartTypeLine,
	ChartTypePie,
}

// IsValidChartType checks if the given chart type is valid.
func IsValidChartType(t ChartType) bool {
	for _, v := range ValidChartTypes {
		if v == t {
			return true
		}
	}
	return false
}

// SeriesPoint is one plotted datum of a bar, line, or pie rendering. Color
// is assigned for pie slices only.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// RenderSpec is the chart-ready projection of a result set. Table mode
// carries rows; the series modes carry points. Empty marks a chart that
// cannot be drawn from the available columns, which is not an error.
type RenderSpec struct {
	Chart     ChartType        `json:"chart"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
	Points    []SeriesPoint    `json:"points,omitempty"`
	Truncated bool             `json:"truncated"`
	Empty     bool             `json:"empty"`
}
