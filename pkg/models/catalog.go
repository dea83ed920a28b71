package models

// ColumnType is the semantic type assigned to a catalog column. It drives
// aggregation defaults, group-by eligibility, and chart axis rules.
type ColumnType string

const (
	ColumnTypeNumber ColumnType = "number"
	ColumnTypeDate   ColumnType = "date"
	ColumnTypeString ColumnType = "string"
)

// IsNumeric reports whether the column type participates in aggregations
// and y-axis bindings.
func (t ColumnType) IsNumeric() bool {
	return t == ColumnTypeNumber
}

// ValidColumnTypes contains all valid column type values.
var ValidColumnTypes = []ColumnType{
	ColumnTypeNumber,
	ColumnTypeDate,
	ColumnTypeString,
}

// IsValidColumnType checks if the given type is valid.
func IsValidColumnType(t ColumnType) bool {
	for _, v := range ValidColumnTypes {
		if v == t {
			return true
		}
	}
	return false
}

// TruthType classifies a table's epistemic category and is the top grouping
// level of the catalog hierarchy.
type TruthType string

const (
	TruthTypeReality       TruthType = "reality"
	TruthTypeIntent        TruthType = "intent"
	TruthTypeConfiguration TruthType = "configuration"
	TruthTypeReference     TruthType = "reference"
	TruthTypeRegulatory    TruthType = "regulatory"
)

// ValidTruthTypes contains all valid truth type values.
var ValidTruthTypes = []TruthType{
	TruthTypeReality,
	TruthTypeIntent,
	TruthTypeConfiguration,
	TruthTypeReference,
	TruthTypeRegulatory,
}

// IsValidTruthType checks if the given truth type is valid.
func IsValidTruthType(t TruthType) bool {
	for _, v := range ValidTruthTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Domain is a business-topic grouping assigned to a table, either supplied
// by the catalog source or inferred from the table name.
type Domain string

const (
	DomainPayroll  Domain = "payroll"
	DomainHR       Domain = "hr"
	DomainTime     Domain = "time"
	DomainBenefits Domain = "benefits"
	DomainGeneral  Domain = "general"
)

// ColumnDescriptor describes a single column of a catalog table. Type is
// either declared by the source or inferred from the name; once assigned it
// is immutable for the session.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// TableDescriptor describes one catalog table. Descriptors are created once
// per catalog load and are read-only thereafter.
type TableDescriptor struct {
	QualifiedName string             `json:"qualified_name"`
	DisplayName   string             `json:"display_name,omitempty"`
	EntityName    string             `json:"entity_name,omitempty"`
	TruthType     TruthType          `json:"truth_type"`
	SourceFile    string             `json:"source_file"`
	Domain        Domain             `json:"domain"`
	RowCount      int64              `json:"row_count,omitempty"`
	Columns       []ColumnDescriptor `json:"columns"`
}

// Label returns the name shown to users: the display name when present,
// otherwise the qualified name.
func (t TableDescriptor) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.QualifiedName
}

// Column returns the descriptor for the named column, if present.
func (t TableDescriptor) Column(name string) (ColumnDescriptor, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// CatalogHierarchy is the navigable projection of a flat table list. It is
// derived and recomputable; callers rebuild it from a fresh table list
// rather than editing it in place.
type CatalogHierarchy struct {
	TruthTypes []TruthTypeGroup `json:"truth_types"`
	TableCount int              `json:"table_count"`
}

// TruthTypeGroup holds every source file bucketed under one truth type,
// ordered by descending table count.
type TruthTypeGroup struct {
	TruthType  TruthType   `json:"truth_type"`
	TableCount int         `json:"table_count"`
	Files      []FileGroup `json:"files"`
}

// FileGroup holds every domain bucketed under one source file, ordered by
// descending table count.
type FileGroup struct {
	SourceFile string        `json:"source_file"`
	TableCount int           `json:"table_count"`
	Domains    []DomainGroup `json:"domains"`
}

// DomainGroup holds the tables of one business domain, ordered
// lexicographically by label.
type DomainGroup struct {
	Domain     Domain            `json:"domain"`
	TableCount int               `json:"table_count"`
	Tables     []TableDescriptor `json:"tables"`
}
