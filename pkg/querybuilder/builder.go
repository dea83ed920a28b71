// Package querybuilder holds the mutable selection state of one table
// exploration. Every mutation goes through an operation on Builder, which
// keeps the axis bindings consistent with the selected columns in one
// place. Operations are total: inapplicable input leaves the state
// untouched rather than failing.
package querybuilder

import (
	"github.com/velora-hq/explorer-engine/pkg/models"
)

// Builder owns one QuerySpec. It is not safe for concurrent use; callers
// serialize access per exploration session.
type Builder struct {
	spec models.QuerySpec
}

// New returns a builder with no table selected.
func New() *Builder {
	return &Builder{spec: emptySpec("")}
}

func emptySpec(table string) models.QuerySpec {
	return models.QuerySpec{
		Table:   table,
		Columns: []models.SelectedColumn{},
		GroupBy: []models.ColumnDescriptor{},
		Filters: []models.Filter{},
	}
}

// Spec exposes the live state. Callers that hand it across an API
// boundary clone it first.
func (b *Builder) Spec() *models.QuerySpec {
	return &b.spec
}

// SelectTable resets the entire spec for a new table. Nothing carries
// over from the previous selection.
func (b *Builder) SelectTable(table string) {
	b.spec = emptySpec(table)
}

// AddColumn appends a column to the SELECT list. Numeric columns get a
// default SUM aggregation. Already-selected columns are left alone, so
// the operation is idempotent.
func (b *Builder) AddColumn(col models.ColumnDescriptor) {
	if b.spec.HasColumn(col.Name) {
		return
	}

	sel := models.SelectedColumn{Column: col}
	if col.Type.IsNumeric() {
		sel.Aggregation = models.AggregationSum
	}
	b.spec.Columns = append(b.spec.Columns, sel)

	// Auto-assign axes, first applicable slot wins
	if b.spec.XAxis == nil && !col.Type.IsNumeric() {
		b.spec.XAxis = &models.AxisBinding{Column: col}
	} else if b.spec.YAxis == nil && col.Type.IsNumeric() {
		b.spec.YAxis = &models.AxisBinding{Column: col, Aggregation: sel.Aggregation}
	}
}

// AddGroupBy appends a non-numeric column to the GROUP BY list and claims
// the x axis when free. Numeric columns are ignored.
func (b *Builder) AddGroupBy(col models.ColumnDescriptor) {
	if col.Type.IsNumeric() || b.spec.HasGroupBy(col.Name) {
		return
	}

	b.spec.GroupBy = append(b.spec.GroupBy, col)
	if b.spec.XAxis == nil {
		b.spec.XAxis = &models.AxisBinding{Column: col}
	}
}

// SetAxis binds a column to a chart axis. The x axis accepts any column
// and pulls non-numeric ones into GROUP BY; the y axis accepts only
// numeric columns, adding the column to the SELECT list with a SUM
// default when absent.
func (b *Builder) SetAxis(axis models.Axis, col models.ColumnDescriptor) {
	switch axis {
	case models.AxisX:
		b.spec.XAxis = &models.AxisBinding{Column: col}
		if !col.Type.IsNumeric() && !b.spec.HasGroupBy(col.Name) {
			b.spec.GroupBy = append(b.spec.GroupBy, col)
		}
	case models.AxisY:
		if !col.Type.IsNumeric() {
			return
		}
		idx := b.columnIndex(col.Name)
		if idx < 0 {
			b.spec.Columns = append(b.spec.Columns, models.SelectedColumn{
				Column:      col,
				Aggregation: models.AggregationSum,
			})
			idx = len(b.spec.Columns) - 1
		} else if b.spec.Columns[idx].Aggregation == "" {
			b.spec.Columns[idx].Aggregation = models.AggregationSum
		}
		b.spec.YAxis = &models.AxisBinding{
			Column:      b.spec.Columns[idx].Column,
			Aggregation: b.spec.Columns[idx].Aggregation,
		}
	}
}

// RemoveColumn deletes the SELECT entry at i. An axis bound to the
// removed column is cleared, as is an ORDER BY that referenced it.
func (b *Builder) RemoveColumn(i int) {
	if i < 0 || i >= len(b.spec.Columns) {
		return
	}
	removed := b.spec.Columns[i].Column
	b.spec.Columns = append(b.spec.Columns[:i], b.spec.Columns[i+1:]...)
	b.clearBindingsFor(removed.Name)
}

// RemoveGroupBy deletes the GROUP BY entry at i with the same binding
// cleanup as RemoveColumn.
func (b *Builder) RemoveGroupBy(i int) {
	if i < 0 || i >= len(b.spec.GroupBy) {
		return
	}
	removed := b.spec.GroupBy[i]
	b.spec.GroupBy = append(b.spec.GroupBy[:i], b.spec.GroupBy[i+1:]...)
	b.clearBindingsFor(removed.Name)
}

// AddFilter creates a filter for the column with operator "=" and an
// empty value. Empty-value filters are inert until a value arrives. One
// filter per column; repeats are ignored.
func (b *Builder) AddFilter(col models.ColumnDescriptor) {
	if b.spec.HasFilter(col.Name) {
		return
	}
	b.spec.Filters = append(b.spec.Filters, models.Filter{
		Column:   col,
		Operator: models.FilterOperatorEquals,
		Value:    "",
	})
}

// UpdateFilter sets the operator and value of the filter at i. Unknown
// operators keep the existing one; the value is always taken.
func (b *Builder) UpdateFilter(i int, op models.FilterOperator, value string) {
	if i < 0 || i >= len(b.spec.Filters) {
		return
	}
	if models.IsValidFilterOperator(op) {
		b.spec.Filters[i].Operator = op
	}
	b.spec.Filters[i].Value = value
}

// RemoveFilter deletes the filter at i.
func (b *Builder) RemoveFilter(i int) {
	if i < 0 || i >= len(b.spec.Filters) {
		return
	}
	b.spec.Filters = append(b.spec.Filters[:i], b.spec.Filters[i+1:]...)
}

// UpdateAggregation reassigns the aggregation of the SELECT entry at i.
// A y-axis binding on the same column follows the change.
func (b *Builder) UpdateAggregation(i int, agg models.Aggregation) {
	if i < 0 || i >= len(b.spec.Columns) {
		return
	}
	if !models.IsValidAggregation(agg) {
		return
	}
	b.spec.Columns[i].Aggregation = agg
	if b.spec.YAxis != nil && b.spec.YAxis.Column.Name == b.spec.Columns[i].Column.Name {
		b.spec.YAxis.Aggregation = agg
	}
}

// SetOrderBy records an explicit sort on a selected or grouped column.
// Unknown columns are ignored.
func (b *Builder) SetOrderBy(column string, descending bool) {
	if column == "" {
		return
	}
	if !b.spec.HasColumn(column) && !b.spec.HasGroupBy(column) {
		return
	}
	b.spec.OrderBy = &models.OrderBy{Column: column, Descending: descending}
}

// ClearOrderBy reverts to the default ordering.
func (b *Builder) ClearOrderBy() {
	b.spec.OrderBy = nil
}

func (b *Builder) columnIndex(name string) int {
	for i, c := range b.spec.Columns {
		if c.Column.Name == name {
			return i
		}
	}
	return -1
}

// clearBindingsFor drops axis bindings and the explicit order once their
// column is gone from the selection.
func (b *Builder) clearBindingsFor(name string) {
	if b.spec.XAxis != nil && b.spec.XAxis.Column.Name == name {
		b.spec.XAxis = nil
	}
	if b.spec.YAxis != nil && b.spec.YAxis.Column.Name == name {
		b.spec.YAxis = nil
	}
	if b.spec.OrderBy != nil && b.spec.OrderBy.Column == name {
		b.spec.OrderBy = nil
	}
}
