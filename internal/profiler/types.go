/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package profiler

// ColumnSchema describes a single column as declared in the database.
type ColumnSchema struct {
	Name             string
	DataType         string
	Nullable         bool
	Default          *string // nil if no default
	Key              string  // "PRI", "UNI", "MUL", or ""
	Extra            string  // engine extras such as auto_increment
	MaxLength        *int64  // nil for non-character types
	NumericPrecision *int64
	NumericScale     *int64
}

// ForeignKey describes one outbound foreign-key edge of a table.
type ForeignKey struct {
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// TableSchema describes a table, its ordered columns, and its foreign keys.
// Produced fresh on every profiling run and never mutated afterwards.
type TableSchema struct {
	TableName   string
	Columns     []ColumnSchema
	ForeignKeys []ForeignKey
}

// ColumnProfile summarises the data in one column.
type ColumnProfile struct {
	Name          string
	DataType      string
	NullCount     int64
	DistinctCount int64
	// SampleValues holds up to five non-null values rendered as strings.
	SampleValues []string
}

// TableProfile summarises the data in one table.
type TableProfile struct {
	TableName string
	RowCount  int64
	Columns   []ColumnProfile
}

// TableError records a table whose extraction failed. The run continues
// past it; the error is reported, never silently dropped.
type TableError struct {
	Table string
	Err   error
}

// SchemaReport is the outcome of a schema extraction run. Partial success
// is a valid terminal state: Tables holds everything that extracted
// cleanly and Errors holds one record per failed table.
type SchemaReport struct {
	Tables []TableSchema
	Errors []TableError
}

// ProfileReport is the outcome of a data-profiling run, with the same
// partial-failure semantics as SchemaReport.
type ProfileReport struct {
	Tables []TableProfile
	Errors []TableError
}
