package catalog

import (
	"strings"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/jsonutil"
	"github.com/velora-hq/explorer-engine/pkg/models"
)

// DefaultSourceFile labels tables whose catalog entry names no source file.
const DefaultSourceFile = "unknown"

// Organizer normalizes raw catalog payloads and projects them into the
// explorer hierarchy. It is safe for concurrent use; all methods are pure
// over the receiver's rule set.
type Organizer struct {
	rules  []DomainRule
	logger *zap.Logger
}

// NewOrganizer creates an Organizer. Nil or empty rules select the
// built-in defaults.
func NewOrganizer(rules []DomainRule, logger *zap.Logger) *Organizer {
	if len(rules) == 0 {
		rules = DefaultDomainRules()
	}
	return &Organizer{
		rules:  rules,
		logger: logger.Named("catalog"),
	}
}

// Normalize converts a raw tables payload into well-typed descriptors. It
// never fails: nil entries are dropped, malformed entries keep their place
// with defaulted fields, and plain-string columns are promoted to
// descriptors with inferred types. Everything downstream of this boundary
// may assume well-formed data.
func (o *Organizer) Normalize(raw []any) []models.TableDescriptor {
	tables := make([]models.TableDescriptor, 0, len(raw))
	for _, entry := range raw {
		if entry == nil {
			continue
		}
		tables = append(tables, o.normalizeTable(entry))
	}
	return tables
}

func (o *Organizer) normalizeTable(entry any) models.TableDescriptor {
	table := models.TableDescriptor{
		TruthType:  models.TruthTypeReality,
		SourceFile: DefaultSourceFile,
		Domain:     models.DomainGeneral,
		Columns:    []models.ColumnDescriptor{},
	}

	fields, ok := entry.(map[string]any)
	if !ok {
		o.logger.Debug("catalog entry is not an object, keeping placeholder",
			zap.String("entry", jsonutil.StringValue(entry)))
		table.DisplayName = "(unnamed table)"
		return table
	}

	table.QualifiedName = firstString(fields, "qualified_name", "qualifiedName", "name", "table_name")
	table.DisplayName = firstString(fields, "display_name", "displayName", "label")
	table.EntityName = EntityLabel(table.QualifiedName)
	if table.QualifiedName == "" && table.DisplayName == "" {
		table.DisplayName = "(unnamed table)"
	}

	if tt := models.TruthType(strings.ToLower(firstString(fields, "truth_type", "truthType"))); models.IsValidTruthType(tt) {
		table.TruthType = tt
	}
	if sf := firstString(fields, "source_file", "sourceFile", "file"); sf != "" {
		table.SourceFile = sf
	}
	if d := strings.ToLower(firstString(fields, "domain")); d != "" {
		// Server-supplied domains are trusted verbatim, known or not
		table.Domain = models.Domain(d)
	} else {
		table.Domain = InferDomain(table.QualifiedName, o.rules)
	}

	for _, key := range []string{"row_count", "rowCount", "rows"} {
		if rc, ok := jsonutil.NumberValue(fields[key]); ok {
			table.RowCount = int64(rc)
			break
		}
	}

	table.Columns = normalizeColumns(fields["columns"])
	return table
}

// normalizeColumns accepts the column list in any of the shapes the
// catalog backends produce: descriptor objects, bare name strings, or
// garbage to be skipped.
func normalizeColumns(v any) []models.ColumnDescriptor {
	raw, ok := v.([]any)
	if !ok {
		return []models.ColumnDescriptor{}
	}

	cols := make([]models.ColumnDescriptor, 0, len(raw))
	for _, entry := range raw {
		var col models.ColumnDescriptor
		switch c := entry.(type) {
		case string:
			col = models.ColumnDescriptor{Name: c, Type: InferColumnType(c)}
		case map[string]any:
			name := firstString(c, "name", "column_name", "columnName")
			col = models.ColumnDescriptor{Name: name, Type: ResolveColumnType(name, jsonutil.StringValue(c["type"]))}
		default:
			continue
		}
		if col.Name == "" {
			continue
		}
		cols = append(cols, col)
	}
	return cols
}

// firstString returns the first non-empty string value among the given
// keys, coercing scalars as needed.
func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key]; ok {
			if s := strings.TrimSpace(jsonutil.StringValue(v)); s != "" {
				return s
			}
		}
	}
	return ""
}
