package querybuilder

import (
	"fmt"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/models"
)

// Op names a discrete explorer action. Each drop target and control of
// the original builder surface maps to one op.
type Op string

const (
	OpSelectTable       Op = "select_table"
	OpAddColumn         Op = "add_column"
	OpAddGroupBy        Op = "add_group_by"
	OpSetAxis           Op = "set_axis"
	OpRemoveColumn      Op = "remove_column"
	OpRemoveGroupBy     Op = "remove_group_by"
	OpAddFilter         Op = "add_filter"
	OpUpdateFilter      Op = "update_filter"
	OpRemoveFilter      Op = "remove_filter"
	OpUpdateAggregation Op = "update_aggregation"
	OpSetOrderBy        Op = "set_order_by"
	OpClearOrderBy      Op = "clear_order_by"
)

// Command is one declarative builder mutation, decodable straight from a
// request body. Only the fields relevant to the op need to be set.
type Command struct {
	Op          Op                       `json:"op"`
	Table       string                   `json:"table,omitempty"`
	Column      *models.ColumnDescriptor `json:"column,omitempty"`
	Axis        models.Axis              `json:"axis,omitempty"`
	Index       *int                     `json:"index,omitempty"`
	Operator    models.FilterOperator    `json:"operator,omitempty"`
	Value       string                   `json:"value,omitempty"`
	Aggregation models.Aggregation       `json:"aggregation,omitempty"`
	OrderColumn string                   `json:"order_column,omitempty"`
	Descending  bool                     `json:"descending,omitempty"`
}

// Apply dispatches the command to the builder. Commands with a known op
// never fail; missing arguments make them a no-op, matching the
// builder's total-operation contract. Unknown ops are reported so the
// API layer can reject them.
func (c Command) Apply(b *Builder) error {
	switch c.Op {
	case OpSelectTable:
		b.SelectTable(c.Table)
	case OpAddColumn:
		if c.Column != nil {
			b.AddColumn(*c.Column)
		}
	case OpAddGroupBy:
		if c.Column != nil {
			b.AddGroupBy(*c.Column)
		}
	case OpSetAxis:
		if c.Column != nil {
			b.SetAxis(c.Axis, *c.Column)
		}
	case OpRemoveColumn:
		if c.Index != nil {
			b.RemoveColumn(*c.Index)
		}
	case OpRemoveGroupBy:
		if c.Index != nil {
			b.RemoveGroupBy(*c.Index)
		}
	case OpAddFilter:
		if c.Column != nil {
			b.AddFilter(*c.Column)
		}
	case OpUpdateFilter:
		if c.Index != nil {
			b.UpdateFilter(*c.Index, c.Operator, c.Value)
		}
	case OpRemoveFilter:
		if c.Index != nil {
			b.RemoveFilter(*c.Index)
		}
	case OpUpdateAggregation:
		if c.Index != nil {
			b.UpdateAggregation(*c.Index, c.Aggregation)
		}
	case OpSetOrderBy:
		b.SetOrderBy(c.OrderColumn, c.Descending)
	case OpClearOrderBy:
		b.ClearOrderBy()
	default:
		return fmt.Errorf("%w: %q", apperrors.ErrUnknownCommand, string(c.Op))
	}
	return nil
}
