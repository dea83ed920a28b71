package models

// Aggregation is a SQL summarization function applied to a column in the
// SELECT list.
type Aggregation string

const (
	AggregationSum           Aggregation = "SUM"
	AggregationAvg           Aggregation = "AVG"
	AggregationCount         Aggregation = "COUNT"
	AggregationMin           Aggregation = "MIN"
	AggregationMax           Aggregation = "MAX"
	AggregationCountDistinct Aggregation = "COUNT DISTINCT"
)

// ValidAggregations contains all valid aggregation values.
var ValidAggregations = []Aggregation{
	AggregationSum,
	AggregationAvg,
	AggregationCount,
	AggregationMin,
	AggregationMax,
	AggregationCountDistinct,
}

// IsValidAggregation checks if the given aggregation is valid.
func IsValidAggregation(a Aggregation) bool {
	for _, v := range ValidAggregations {
		if v == a {
			return true
		}
	}
	return false
}

// FilterOperator is the comparison operator of a filter condition.
type FilterOperator string

const (
	FilterOperatorEquals       FilterOperator = "="
	FilterOperatorNotEquals    FilterOperator = "!="
	FilterOperatorGreater      FilterOperator = ">"
	FilterOperatorLess         FilterOperator = "<"
	FilterOperatorGreaterEqual FilterOperator = ">="
	FilterOperatorLessEqual    FilterOperator = "<="
	FilterOperatorLike         FilterOperator = "LIKE"
	FilterOperatorIn           FilterOperator = "IN"
)

// ValidFilterOperators contains all valid filter operator values.
var ValidFilterOperators = []FilterOperator{
	FilterOperatorEquals,
	FilterOperatorNotEquals,
	FilterOperatorGreater,
	FilterOperatorLess,
	FilterOperatorGreaterEqual,
	FilterOperatorLessEqual,
	FilterOperatorLike,
	FilterOperatorIn,
}

// IsValidFilterOperator checks if the given operator is valid.
func IsValidFilterOperator(op FilterOperator) bool {
	for _, v := range ValidFilterOperators {
		if v == op {
			return true
		}
	}
	return false
}

// SelectedColumn is one entry of the SELECT list. An empty Aggregation
// means the column is selected bare.
type SelectedColumn struct {
	Column      ColumnDescriptor `json:"column"`
	Aggregation Aggregation      `json:"aggregation,omitempty"`
}

// Filter is one WHERE condition. A filter with an empty value is inert and
// never reaches the compiled SQL.
type Filter struct {
	Column   ColumnDescriptor `json:"column"`
	Operator FilterOperator   `json:"operator"`
	Value    string           `json:"value"`
}

// OrderBy is an explicit sort request. Column names a selected column; the
// compiler resolves it to the aggregation alias when the column is
// aggregated.
type OrderBy struct {
	Column     string `json:"column"`
	Descending bool   `json:"descending"`
}

// AxisBinding associates a selected column with a chart axis. Aggregation
// is populated for y-axis bindings only.
type AxisBinding struct {
	Column      ColumnDescriptor `json:"column"`
	Aggregation Aggregation      `json:"aggregation,omitempty"`
}

// Axis identifies a chart axis slot.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// QuerySpec is the complete, mutable description of a user's in-progress
// query against one table. A fresh spec is created whenever a new table is
// selected; nothing carries over.
//
// Invariant: XAxis and YAxis, when set, reference a column present in
// Columns or GroupBy. Removing a bound column clears the binding.
type QuerySpec struct {
	Table   string             `json:"table"`
	Columns []SelectedColumn   `json:"columns"`
	GroupBy []ColumnDescriptor `json:"group_by"`
	Filters []Filter           `json:"filters"`
	OrderBy *OrderBy           `json:"order_by,omitempty"`
	XAxis   *AxisBinding       `json:"x_axis,omitempty"`
	YAxis   *AxisBinding       `json:"y_axis,omitempty"`
}

// HasColumn reports whether the named column is in the SELECT list.
func (s *QuerySpec) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Column.Name == name {
			return true
		}
	}
	return false
}

// HasGroupBy reports whether the named column is in the GROUP BY list.
func (s *QuerySpec) HasGroupBy(name string) bool {
	for _, c := range s.GroupBy {
		if c.Name == name {
			return true
		}
	}
	return false
}

// HasFilter reports whether a filter already exists for the named column.
func (s *QuerySpec) HasFilter(name string) bool {
	for _, f := range s.Filters {
		if f.Column.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the spec. Handlers return clones so callers
// can never mutate session state through a response.
func (s *QuerySpec) Clone() *QuerySpec {
	if s == nil {
		return nil
	}
	out := &QuerySpec{Table: s.Table}
	out.Columns = append([]SelectedColumn(nil), s.Columns...)
	out.GroupBy = append([]ColumnDescriptor(nil), s.GroupBy...)
	out.Filters = append([]Filter(nil), s.Filters...)
	if s.OrderBy != nil {
		ob := *s.OrderBy
		out.OrderBy = &ob
	}
	if s.XAxis != nil {
		x := *s.XAxis
		out.XAxis = &x
	}
	if s.YAxis != nil {
		y := *s.YAxis
		out.YAxis = &y
	}
	return out
}
