package models

// TableEntry is one table or view in a schema listing.
type TableEntry struct {
	Name   string `json:"name"`
	IsView bool   `json:"is_view"`
}

// ColumnInfo describes a column for schema browsing and completion.
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// ColumnDetail extends ColumnInfo with the default expression, for the full
// table structure view.
type ColumnDetail struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	DefaultValue string `json:"default_value,omitempty"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// IndexInfo describes one index on a table.
type IndexInfo struct {
	Name      string   `json:"name"`
	Columns   []string `json:"columns"`
	IsUnique  bool     `json:"is_unique"`
	IsPrimary bool     `json:"is_primary"`
}

// ForeignKeyInfo describes one foreign-key constraint on a table.
type ForeignKeyInfo struct {
	Name              string   `json:"name"`
	Columns           []string `json:"columns"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
}

// TableStructure is the full description of a single table.
type TableStructure struct {
	Columns     []ColumnDetail   `json:"columns"`
	Indexes     []IndexInfo      `json:"indexes"`
	ForeignKeys []ForeignKeyInfo `json:"foreign_keys"`
}

// SchemaInfo is a schema with its tables, used to refresh completions.
type SchemaInfo struct {
	Name   string
	Tables []TableInfo
}

// TableInfo is a table plus its columns, used to refresh completions.
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
	IsView  bool
}

// PKColumn is a primary-key column name/value pair identifying one row.
type PKColumn struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
