package sql

import (
	"errors"
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// ErrInjectionDetected indicates a filter value carries a SQL injection
// pattern.
var ErrInjectionDetected = errors.New("sql injection pattern detected")

// FilterCheckResult contains the result of an injection check on a
// filter value.
type FilterCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Column      string // name of the filtered column
	Value       string // the value that was checked
}

// CheckFilterValue uses libinjection to detect SQL injection patterns in
// a user-typed filter value. Filter values are the only user text
// interpolated into compiled statements.
//
// Returns nil if no injection is detected.
//
// Example:
//
//	// Safe value - no injection
//	result := CheckFilterValue("dept", "Engineering")
//	// result == nil
//
//	// Injection attempt detected
//	result := CheckFilterValue("dept", "'; DROP TABLE pay_runs--")
//	// result.Fingerprint == "s&1c" (or similar)
func CheckFilterValue(column, value string) *FilterCheckResult {
	if value == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return &FilterCheckResult{
			Fingerprint: string(fingerprint),
			Column:      column,
			Value:       value,
		}
	}

	return nil
}

// CheckFilters validates every filter value of a spec. Returns one
// result per dirty filter, or an empty slice when all values are clean.
func CheckFilters(spec *models.QuerySpec) []*FilterCheckResult {
	if spec == nil {
		return nil
	}
	var results []*FilterCheckResult
	for _, f := range spec.Filters {
		if result := CheckFilterValue(f.Column.Name, f.Value); result != nil {
			results = append(results, result)
		}
	}
	return results
}

// GuardSpec aborts compilation of a spec whose filters trip the
// detector. The error names the first offending column.
func GuardSpec(spec *models.QuerySpec) error {
	results := CheckFilters(spec)
	if len(results) == 0 {
		return nil
	}
	return fmt.Errorf("%w: filter on %q (fingerprint %s)",
		ErrInjectionDetected, results[0].Column, results[0].Fingerprint)
}
