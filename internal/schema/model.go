// Package schema introspects a live database into a typed model: tables,
// columns in declaration order, sampled values, lexical surface forms, and
// per-column type hints.
package schema

// TableInfo describes one table of the learned model.
type TableInfo struct {
	Columns  []string            `json:"columns"`
	Surfaces []string            `json:"surfaces"`
	Samples  map[string][]string `json:"samples"`
}

// ColumnInfo holds per-column lexical surfaces and type hints.
type ColumnInfo struct {
	Surfaces  []string `json:"surfaces"`
	IsNumeric bool     `json:"is_numeric"`
	IsDate    bool     `json:"is_date"`
}

// ColumnRef identifies a column as (table, column).
type ColumnRef struct {
	Table  string
	Column string
}

// Model is the learned schema. TableNames preserves a deterministic
// iteration order; every "table.column" key referenced anywhere in the model
// exists in Tables[table].Columns.
type Model struct {
	TableNames []string
	Tables     map[string]TableInfo
	Columns    map[string]ColumnInfo

	valueIndex map[string][]ColumnRef
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Tables:     map[string]TableInfo{},
		Columns:    map[string]ColumnInfo{},
		valueIndex: map[string][]ColumnRef{},
	}
}

// Empty reports whether no tables were learned.
func (m *Model) Empty() bool {
	return len(m.TableNames) == 0
}

// ColumnKey builds the canonical "table.column" key.
func ColumnKey(table, column string) string {
	return table + "." + column
}

// LookupValue returns the columns whose sampled values contain v
// (lowercased, trimmed). Used for equality-filter prediction.
func (m *Model) LookupValue(v string) []ColumnRef {
	return m.valueIndex[v]
}

// IndexValue registers a sampled value for equality-filter lookup.
func (m *Model) IndexValue(v, table, column string) {
	m.valueIndex[v] = append(m.valueIndex[v], ColumnRef{Table: table, Column: column})
}
