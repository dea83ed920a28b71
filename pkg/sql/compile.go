package sql

import (
	"fmt"
	"strings"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// selectIndent aligns continuation lines under the SELECT keyword.
const selectIndent = "       "

// Compile renders a QuerySpec as SQL text. It is deterministic: equal
// specs yield byte-identical statements. The empty string is the sentinel
// for an incomplete spec (no table or no columns); callers check it
// before executing. A hard LIMIT 100 is always appended.
func Compile(spec *models.QuerySpec) string {
	if spec == nil || spec.Table == "" || len(spec.Columns) == 0 {
		return ""
	}

	var sb strings.Builder

	items := make([]string, 0, len(spec.Columns))
	for _, col := range spec.Columns {
		items = append(items, renderSelectItem(col))
	}
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(items, ",\n"+selectIndent))

	sb.WriteString("\nFROM ")
	sb.WriteString(quoteIdent(spec.Table))

	if conds := renderConditions(spec.Filters); len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(spec.GroupBy) > 0 {
		names := make([]string, 0, len(spec.GroupBy))
		for _, col := range spec.GroupBy {
			names = append(names, quoteIdent(col.Name))
		}
		sb.WriteString("\nGROUP BY ")
		sb.WriteString(strings.Join(names, ", "))
	}

	if clause := renderOrderBy(spec); clause != "" {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(clause)
	}

	sb.WriteString("\nLIMIT 100")
	return sb.String()
}

// Preview is the seed statement shown when a table is first selected,
// before any columns are chosen.
func Preview(table string) string {
	if table == "" {
		return ""
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT 100", quoteIdent(table))
}

// Render returns the SQL for the current builder state: the compiled
// statement once columns are selected, else the table preview, else
// nothing.
func Render(spec *models.QuerySpec) string {
	if compiled := Compile(spec); compiled != "" {
		return compiled
	}
	if spec == nil {
		return ""
	}
	return Preview(spec.Table)
}

// renderSelectItem emits either a bare quoted column or an aggregated
// expression with its derived alias.
func renderSelectItem(col models.SelectedColumn) string {
	if col.Aggregation == "" {
		return quoteIdent(col.Column.Name)
	}
	if col.Aggregation == models.AggregationCountDistinct {
		return fmt.Sprintf("COUNT(DISTINCT %s) AS %s",
			quoteIdent(col.Column.Name), AggregationAlias(col.Aggregation, col.Column.Name))
	}
	return fmt.Sprintf("%s(%s) AS %s",
		col.Aggregation, quoteIdent(col.Column.Name), AggregationAlias(col.Aggregation, col.Column.Name))
}

// AggregationAlias derives the result column name of an aggregated
// expression: the aggregation lower-cased with spaces turned into
// underscores, then the column name. SUM on gross_amount becomes
// sum_gross_amount.
func AggregationAlias(agg models.Aggregation, column string) string {
	name := column
	if name == "" {
		name = "column"
	}
	prefix := strings.ReplaceAll(strings.ToLower(string(agg)), " ", "_")
	return prefix + "_" + name
}

// renderConditions drops inert filters (empty value) and renders the
// rest. Operators follow the type of the filtered column: string values
// are quoted, numeric values stay bare, LIKE wraps the value in
// wildcards, and IN trusts the caller-supplied list text.
func renderConditions(filters []models.Filter) []string {
	conds := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Value == "" {
			continue
		}
		conds = append(conds, renderCondition(f))
	}
	return conds
}

func renderCondition(f models.Filter) string {
	name := quoteIdent(f.Column.Name)
	op := f.Operator
	if !models.IsValidFilterOperator(op) {
		op = models.FilterOperatorEquals
	}

	switch op {
	case models.FilterOperatorLike:
		return fmt.Sprintf("%s LIKE '%%%s%%'", name, escapeString(f.Value))
	case models.FilterOperatorIn:
		return fmt.Sprintf("%s IN (%s)", name, f.Value)
	default:
		if f.Column.Type == models.ColumnTypeNumber {
			return fmt.Sprintf("%s %s %s", name, op, f.Value)
		}
		return fmt.Sprintf("%s %s '%s'", name, op, escapeString(f.Value))
	}
}

// renderOrderBy prefers the explicit order; otherwise the first
// aggregated column orders the result descending, and specs with no
// aggregation at all get no ORDER BY.
func renderOrderBy(spec *models.QuerySpec) string {
	if spec.OrderBy != nil {
		dir := "ASC"
		if spec.OrderBy.Descending {
			dir = "DESC"
		}
		return orderTerm(spec, spec.OrderBy.Column) + " " + dir
	}

	for _, col := range spec.Columns {
		if col.Aggregation != "" {
			return AggregationAlias(col.Aggregation, col.Column.Name) + " DESC"
		}
	}
	return ""
}

// orderTerm resolves an order column to its aggregation alias when the
// column is aggregated in the SELECT list, else to the quoted name.
func orderTerm(spec *models.QuerySpec, column string) string {
	for _, col := range spec.Columns {
		if col.Column.Name == column && col.Aggregation != "" {
			return AggregationAlias(col.Aggregation, column)
		}
	}
	return quoteIdent(column)
}

// quoteIdent double-quotes an identifier. A missing name degrades to the
// literal "column" so the statement stays parseable.
func quoteIdent(name string) string {
	if name == "" {
		name = "column"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// escapeString doubles single quotes inside a string literal.
func escapeString(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
