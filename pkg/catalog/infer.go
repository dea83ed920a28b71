package catalog

import (
	"strings"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// Token lists for name-based type inference, checked in order.
var (
	dateTokens   = []string{"date", "_at", "time", "_dt", "_ts"}
	numberTokens = []string{"amount", "rate", "total", "count", "salary", "hours", "price", "qty", "sum", "_num"}
	idTokens     = []string{"_id", "code", "key"}
)

// InferColumnType assigns a semantic type to a column from its name alone.
// The heuristic is total: names matching no token come back as strings.
// Matching is case-insensitive; the first token list hit wins.
func InferColumnType(name string) models.ColumnType {
	lower := strings.ToLower(name)

	for _, tok := range dateTokens {
		if strings.Contains(lower, tok) {
			return models.ColumnTypeDate
		}
	}
	for _, tok := range numberTokens {
		if strings.Contains(lower, tok) {
			return models.ColumnTypeNumber
		}
	}
	for _, tok := range idTokens {
		if strings.Contains(lower, tok) {
			return models.ColumnTypeString
		}
	}

	return models.ColumnTypeString
}

// ResolveColumnType prefers a declared type over inference. Declared values
// outside the known set fall back to inference from the name.
func ResolveColumnType(name, declared string) models.ColumnType {
	t := models.ColumnType(strings.ToLower(strings.TrimSpace(declared)))
	if models.IsValidColumnType(t) {
		return t
	}
	return InferColumnType(name)
}
