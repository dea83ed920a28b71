package catalog

import (
	"strings"

	"github.com/velora-hq/explorer-engine/pkg/models"
)

// Filter returns the tables matching a case-insensitive substring query
// against the qualified name, display name, and every column name. An
// empty query matches everything. The base list is never mutated, so the
// full hierarchy can always be rebuilt from it.
func (o *Organizer) Filter(tables []models.TableDescriptor, query string) []models.TableDescriptor {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tables
	}

	matched := make([]models.TableDescriptor, 0, len(tables))
	for _, table := range tables {
		if tableMatches(table, q) {
			matched = append(matched, table)
		}
	}
	return matched
}

// Search is Filter followed by Organize: the filtered hierarchy contains
// no empty groups because groups are only created for surviving tables.
func (o *Organizer) Search(tables []models.TableDescriptor, query string) models.CatalogHierarchy {
	return o.Organize(o.Filter(tables, query))
}

func tableMatches(table models.TableDescriptor, q string) bool {
	if strings.Contains(strings.ToLower(table.QualifiedName), q) {
		return true
	}
	if strings.Contains(strings.ToLower(table.DisplayName), q) {
		return true
	}
	for _, col := range table.Columns {
		if strings.Contains(strings.ToLower(col.Name), q) {
			return true
		}
	}
	return false
}
