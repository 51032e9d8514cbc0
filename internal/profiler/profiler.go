/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package profiler extracts schema metadata and per-column data profiles
// from a relational database through information_schema. Extraction is
// strictly read-only and tolerates per-table failures: a table whose
// metadata cannot be read is recorded in the report's error list while
// the remaining tables are still processed.
package profiler

import (
	"context"
	"database/sql"
	"fmt"

	"etlvalid/internal/database"
	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

// sampleLimit caps the number of sample values collected per column.
const sampleLimit = 5

// Profiler reads schema and profile information from one open connection.
type Profiler struct {
	conn *database.Conn
}

// New creates a profiler over an open connection.
func New(conn *database.Conn) *Profiler {
	return &Profiler{conn: conn}
}

// ExtractSchema enumerates all tables visible to the connection and
// returns their column definitions and foreign keys. An empty database
// yields an empty report, not an error.
func (p *Profiler) ExtractSchema(ctx context.Context) (*SchemaReport, error) {
	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	report := &SchemaReport{}
	for _, table := range tables {
		ts, err := p.extractTable(ctx, table)
		if err != nil {
			logging.Warn("schema extraction failed for table", "table", table, "error", err)
			report.Errors = append(report.Errors, TableError{Table: table, Err: err})
			continue
		}
		report.Tables = append(report.Tables, *ts)
	}
	return report, nil
}

// ExtractProfile computes row counts, null counts, distinct counts, and
// sample values for every table visible to the connection.
func (p *Profiler) ExtractProfile(ctx context.Context) (*ProfileReport, error) {
	tables, err := p.listTables(ctx)
	if err != nil {
		return nil, err
	}

	report := &ProfileReport{}
	for _, table := range tables {
		tp, err := p.profileTable(ctx, table)
		if err != nil {
			logging.Warn("profiling failed for table", "table", table, "error", err)
			report.Errors = append(report.Errors, TableError{Table: table, Err: err})
			continue
		}
		report.Tables = append(report.Tables, *tp)
	}
	return report, nil
}

func (p *Profiler) schemaName() string {
	if p.conn.Driver() == "postgres" {
		return "public"
	}
	return p.conn.DatabaseName()
}

func (p *Profiler) listTables(ctx context.Context) ([]string, error) {
	q := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ` + p.placeholder(1) + `
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := p.conn.Query(ctx, q, p.schemaName())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errs.Query(q, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Query(q, err)
	}
	return tables, nil
}

func (p *Profiler) extractTable(ctx context.Context, table string) (*TableSchema, error) {
	cols, err := p.extractColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	fks, err := p.extractForeignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	return &TableSchema{TableName: table, Columns: cols, ForeignKeys: fks}, nil
}

func (p *Profiler) extractColumns(ctx context.Context, table string) ([]ColumnSchema, error) {
	var q string
	if p.conn.Driver() == "postgres" {
		q = `
			SELECT
				c.column_name,
				c.data_type,
				c.is_nullable = 'YES',
				c.column_default,
				CASE WHEN pk.column_name IS NOT NULL THEN 'PRI' ELSE '' END,
				'',
				c.character_maximum_length,
				c.numeric_precision,
				c.numeric_scale
			FROM information_schema.columns c
			LEFT JOIN (
				SELECT kcu.column_name
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = $1
				  AND tc.table_name = $2
			) pk ON pk.column_name = c.column_name
			WHERE c.table_schema = $1 AND c.table_name = $2
			ORDER BY c.ordinal_position`
	} else {
		q = `
			SELECT
				column_name,
				data_type,
				is_nullable = 'YES',
				column_default,
				column_key,
				extra,
				character_maximum_length,
				numeric_precision,
				numeric_scale
			FROM information_schema.columns
			WHERE table_schema = ? AND table_name = ?
			ORDER BY ordinal_position`
	}

	rows, err := p.conn.Query(ctx, q, p.schemaName(), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []ColumnSchema
	for rows.Next() {
		var (
			col        ColumnSchema
			defaultVal sql.NullString
			key        sql.NullString
			extra      sql.NullString
			maxLen     sql.NullInt64
			precision  sql.NullInt64
			scale      sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &defaultVal,
			&key, &extra, &maxLen, &precision, &scale); err != nil {
			return nil, errs.Query(q, err)
		}
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		col.Key = key.String
		col.Extra = extra.String
		if maxLen.Valid {
			col.MaxLength = &maxLen.Int64
		}
		if precision.Valid {
			col.NumericPrecision = &precision.Int64
		}
		if scale.Valid {
			col.NumericScale = &scale.Int64
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Query(q, err)
	}
	return cols, nil
}

func (p *Profiler) extractForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	var q string
	if p.conn.Driver() == "postgres" {
		q = `
			SELECT kcu.column_name, ccu.table_name, ccu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			JOIN information_schema.constraint_column_usage ccu
				ON tc.constraint_name = ccu.constraint_name
				AND tc.table_schema = ccu.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY'
			  AND tc.table_schema = $1
			  AND tc.table_name = $2
			ORDER BY kcu.ordinal_position`
	} else {
		q = `
			SELECT column_name, referenced_table_name, referenced_column_name
			FROM information_schema.key_column_usage
			WHERE table_schema = ?
			  AND table_name = ?
			  AND referenced_table_name IS NOT NULL
			ORDER BY ordinal_position`
	}

	rows, err := p.conn.Query(ctx, q, p.schemaName(), table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, errs.Query(q, err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Query(q, err)
	}
	return fks, nil
}

func (p *Profiler) profileTable(ctx context.Context, table string) (*TableProfile, error) {
	quoted := p.quoteIdent(table)

	countQ := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted)
	var rowCount int64
	if err := p.conn.QueryRow(ctx, countQ).Scan(&rowCount); err != nil {
		return nil, errs.Query(countQ, err)
	}

	cols, err := p.extractColumns(ctx, table)
	if err != nil {
		return nil, err
	}

	profile := &TableProfile{TableName: table, RowCount: rowCount}
	for _, col := range cols {
		cp, err := p.profileColumn(ctx, quoted, col)
		if err != nil {
			return nil, err
		}
		profile.Columns = append(profile.Columns, *cp)
	}
	return profile, nil
}

func (p *Profiler) profileColumn(ctx context.Context, quotedTable string, col ColumnSchema) (*ColumnProfile, error) {
	quotedCol := p.quoteIdent(col.Name)

	statsQ := fmt.Sprintf(`
		SELECT
			SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END),
			COUNT(DISTINCT %s)
		FROM %s`, quotedCol, quotedCol, quotedTable)

	// SUM over an empty table is NULL, not zero.
	var nullCount, distinctCount sql.NullInt64
	if err := p.conn.QueryRow(ctx, statsQ).Scan(&nullCount, &distinctCount); err != nil {
		return nil, errs.Query(statsQ, err)
	}

	sampleQ := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s IS NOT NULL
		LIMIT %d`, quotedCol, quotedTable, quotedCol, sampleLimit)

	rows, err := p.conn.Query(ctx, sampleQ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []string
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, errs.Query(sampleQ, err)
		}
		samples = append(samples, renderValue(v))
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Query(sampleQ, err)
	}

	return &ColumnProfile{
		Name:          col.Name,
		DataType:      col.DataType,
		NullCount:     nullCount.Int64,
		DistinctCount: distinctCount.Int64,
		SampleValues:  samples,
	}, nil
}

func (p *Profiler) placeholder(n int) string {
	return placeholder(p.conn.Driver(), n)
}

func (p *Profiler) quoteIdent(name string) string {
	return quoteIdent(p.conn.Driver(), name)
}

func placeholder(driver string, n int) string {
	if driver == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func quoteIdent(driver, name string) string {
	if driver == "postgres" {
		return `"` + name + `"`
	}
	return "`" + name + "`"
}

// renderValue converts a scanned sample value to its display string.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}
