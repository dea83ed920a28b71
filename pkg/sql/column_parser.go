package sql

import (
	"regexp"
	"strings"
)

// SelectColumn is one entry of a SELECT projection: the output name
// the executor reports and the expression that produced it.
type SelectColumn struct {
	Name string
	Expr string
}

var (
	asAliasPattern  = regexp.MustCompile(`(?i)\s+as\s+("[^"]+"|\w+)\s*$`)
	funcNamePattern = regexp.MustCompile(`^(\w+)\s*\(`)
)

// ParseSelectColumns reads the projection list of a SELECT statement
// and returns its output column names in author order. It handles
// plain and table-qualified columns, quoted identifiers, AS and
// implicit aliases, and aggregate calls. SELECT * and projections it
// cannot read yield nil; callers keep the result set's own column
// order in that case.
func ParseSelectColumns(statement string) []SelectColumn {
	// Collapse whitespace so keyword scanning works on multi-line
	// statements.
	flat := strings.Join(strings.Fields(statement), " ")
	lower := strings.ToLower(flat)

	start := strings.Index(lower, "select ")
	if start == -1 {
		return nil
	}
	start += len("select ")

	end := len(flat)
	for _, kw := range []string{" from ", " where ", " group by ", " order by ", " limit ", ";"} {
		if idx := strings.Index(lower[start:], kw); idx != -1 && start+idx < end {
			end = start + idx
		}
	}

	projection := strings.TrimSpace(flat[start:end])
	if lowered := strings.ToLower(projection); strings.HasPrefix(lowered, "distinct ") {
		projection = strings.TrimSpace(projection[len("distinct "):])
	}
	if projection == "" || strings.HasPrefix(projection, "*") {
		return nil
	}

	var cols []SelectColumn
	for _, expr := range splitProjection(projection) {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		cols = append(cols, parseProjectionEntry(expr))
	}
	return cols
}

// splitProjection splits a projection list on top-level commas,
// leaving commas inside call parentheses alone.
func splitProjection(list string) []string {
	var (
		parts []string
		buf   strings.Builder
		depth int
	)
	for _, r := range list {
		switch r {
		case '(':
			depth++
			buf.WriteRune(r)
		case ')':
			depth--
			buf.WriteRune(r)
		case ',':
			if depth == 0 {
				parts = append(parts, buf.String())
				buf.Reset()
				continue
			}
			buf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
	}
	if buf.Len() > 0 {
		parts = append(parts, buf.String())
	}
	return parts
}

// parseProjectionEntry resolves the output name of one projection
// expression.
func parseProjectionEntry(expr string) SelectColumn {
	if m := asAliasPattern.FindStringSubmatch(expr); m != nil {
		return SelectColumn{Name: unquoteIdent(m[1]), Expr: expr}
	}

	// Implicit alias: a trailing bare word after a complete
	// expression, as in COUNT(*) total.
	if strings.Count(expr, "(") == strings.Count(expr, ")") {
		parts := strings.Fields(expr)
		if len(parts) > 1 {
			last := parts[len(parts)-1]
			if !strings.ContainsAny(last, "()") && !reservedWord(last) {
				return SelectColumn{Name: unquoteIdent(last), Expr: expr}
			}
		}
	}

	return SelectColumn{Name: outputName(expr), Expr: expr}
}

// outputName derives the name an executor reports for an unaliased
// expression. Aggregate calls report the function name, matching
// PostgreSQL.
func outputName(expr string) string {
	expr = strings.TrimSpace(expr)

	if m := funcNamePattern.FindStringSubmatch(expr); m != nil {
		return strings.ToLower(m[1])
	}
	if lowered := strings.ToLower(expr); lowered == "case" || strings.HasPrefix(lowered, "case ") {
		return "case"
	}
	if dot := strings.LastIndex(expr, "."); dot != -1 {
		expr = expr[dot+1:]
	}
	return unquoteIdent(expr)
}

func reservedWord(word string) bool {
	switch strings.ToLower(word) {
	case "from", "where", "group", "order", "limit", "and", "or", "as", "by",
		"distinct", "case", "when", "then", "else", "end", "asc", "desc":
		return true
	}
	return false
}

// unquoteIdent strips identifier quoting without touching case.
func unquoteIdent(ident string) string {
	ident = strings.TrimSpace(ident)
	ident = strings.Trim(ident, "`\"[]")
	return strings.TrimSpace(ident)
}
