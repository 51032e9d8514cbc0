/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package profiler

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"etlvalid/internal/config"
	"etlvalid/internal/database"
)

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		driver string
		name   string
		want   string
	}{
		{"mysql", "orders", "`orders`"},
		{"mysql", "order items", "`order items`"},
		{"postgres", "orders", `"orders"`},
		{"postgres", "Order", `"Order"`},
	}

	for _, tt := range tests {
		if got := quoteIdent(tt.driver, tt.name); got != tt.want {
			t.Errorf("quoteIdent(%q, %q) = %q, want %q", tt.driver, tt.name, got, tt.want)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	if got := placeholder("mysql", 1); got != "?" {
		t.Errorf("mysql placeholder = %q, want ?", got)
	}
	if got := placeholder("postgres", 2); got != "$2" {
		t.Errorf("postgres placeholder = %q, want $2", got)
	}
}

func TestRenderValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "NULL"},
		{"bytes", []byte("hello"), "hello"},
		{"int", int64(42), "42"},
		{"float", 3.5, "3.5"},
		{"string", "plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderValue(tt.in); got != tt.want {
				t.Errorf("renderValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// fixtureConn opens a file-backed sqlite database posing as a MySQL
// endpoint. An attached schema named information_schema carries the
// catalog tables the introspection queries read, so the profiler runs
// its real query paths against local fixtures.
func fixtureConn(t *testing.T) (*database.Conn, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "fixture.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	// The attached schema lives on one physical connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`ATTACH DATABASE ':memory:' AS information_schema`,
		`CREATE TABLE information_schema.tables (
			table_schema TEXT, table_name TEXT, table_type TEXT)`,
		`CREATE TABLE information_schema.columns (
			table_schema TEXT, table_name TEXT, column_name TEXT,
			data_type TEXT, is_nullable TEXT, column_default TEXT,
			column_key TEXT, extra TEXT,
			character_maximum_length INTEGER, numeric_precision INTEGER,
			numeric_scale INTEGER, ordinal_position INTEGER)`,
		`CREATE TABLE information_schema.key_column_usage (
			table_schema TEXT, table_name TEXT, column_name TEXT,
			ordinal_position INTEGER, referenced_table_name TEXT,
			referenced_column_name TEXT)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture setup: %v", err)
		}
	}

	conn := database.Wrap(db, config.DatabaseConfig{
		Driver:       "mysql",
		Database:     "fixtures",
		QueryTimeout: 5 * time.Second,
	})
	return conn, db
}

func catalogTable(t *testing.T, db *sql.DB, name string) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO information_schema.tables VALUES ('fixtures', ?, 'BASE TABLE')`,
		name); err != nil {
		t.Fatal(err)
	}
}

func catalogColumn(t *testing.T, db *sql.DB, table, column, dataType, nullable, key string, precision any, position int) {
	t.Helper()
	if _, err := db.Exec(
		`INSERT INTO information_schema.columns VALUES ('fixtures', ?, ?, ?, ?, NULL, ?, '', NULL, ?, NULL, ?)`,
		table, column, dataType, nullable, key, precision, position); err != nil {
		t.Fatal(err)
	}
}

func TestExtractSchemaEmptyDatabase(t *testing.T) {
	conn, _ := fixtureConn(t)
	p := New(conn)

	schema, err := p.ExtractSchema(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(schema.Tables) != 0 || len(schema.Errors) != 0 {
		t.Errorf("empty database: tables=%d errors=%d, want 0/0", len(schema.Tables), len(schema.Errors))
	}

	profile, err := p.ExtractProfile(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(profile.Tables) != 0 || len(profile.Errors) != 0 {
		t.Errorf("empty database: profiles=%d errors=%d, want 0/0", len(profile.Tables), len(profile.Errors))
	}
}

func TestExtractSchemaPartialFailure(t *testing.T) {
	conn, db := fixtureConn(t)

	catalogTable(t, db, "customers")
	catalogTable(t, db, "orders")
	catalogTable(t, db, "payments")

	catalogColumn(t, db, "customers", "id", "int", "NO", "PRI", 10, 1)
	catalogColumn(t, db, "customers", "name", "varchar", "YES", "", nil, 2)
	// An unreadable catalog value makes orders fail column extraction.
	catalogColumn(t, db, "orders", "total", "decimal", "NO", "", "not-a-number", 1)
	catalogColumn(t, db, "payments", "id", "int", "NO", "PRI", 10, 1)
	catalogColumn(t, db, "payments", "customer_id", "int", "NO", "MUL", 10, 2)

	if _, err := db.Exec(
		`INSERT INTO information_schema.key_column_usage
		 VALUES ('fixtures', 'payments', 'customer_id', 1, 'customers', 'id')`); err != nil {
		t.Fatal(err)
	}

	report, err := New(conn).ExtractSchema(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Tables) != 2 {
		t.Fatalf("tables = %d, want 2 (got %+v)", len(report.Tables), report.Tables)
	}
	customers, payments := report.Tables[0], report.Tables[1]
	if customers.TableName != "customers" || payments.TableName != "payments" {
		t.Fatalf("surviving tables = %q, %q", customers.TableName, payments.TableName)
	}
	if len(customers.Columns) != 2 {
		t.Fatalf("customers columns = %d, want 2", len(customers.Columns))
	}
	if c := customers.Columns[0]; c.Name != "id" || c.Nullable || c.Key != "PRI" {
		t.Errorf("customers.id = %+v", c)
	}
	if c := customers.Columns[1]; c.Name != "name" || !c.Nullable {
		t.Errorf("customers.name = %+v", c)
	}
	if len(payments.ForeignKeys) != 1 ||
		payments.ForeignKeys[0].Column != "customer_id" ||
		payments.ForeignKeys[0].ReferencedTable != "customers" ||
		payments.ForeignKeys[0].ReferencedColumn != "id" {
		t.Errorf("payments foreign keys = %+v", payments.ForeignKeys)
	}

	if len(report.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(report.Errors))
	}
	if report.Errors[0].Table != "orders" || report.Errors[0].Err == nil {
		t.Errorf("error record = %+v", report.Errors[0])
	}
}

func TestExtractProfilePartialFailure(t *testing.T) {
	conn, db := fixtureConn(t)

	// ghosts is cataloged but never created, so its row count fails.
	catalogTable(t, db, "customers")
	catalogTable(t, db, "ghosts")
	catalogTable(t, db, "payments")

	catalogColumn(t, db, "customers", "id", "int", "NO", "PRI", 10, 1)
	catalogColumn(t, db, "customers", "name", "varchar", "YES", "", nil, 2)
	catalogColumn(t, db, "payments", "id", "int", "NO", "PRI", 10, 1)

	for _, stmt := range []string{
		`CREATE TABLE customers (id INTEGER, name TEXT)`,
		`INSERT INTO customers VALUES (1, 'ada'), (2, NULL), (3, 'eve')`,
		`CREATE TABLE payments (id INTEGER)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}

	report, err := New(conn).ExtractProfile(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Tables) != 2 {
		t.Fatalf("profiles = %d, want 2 (got %+v)", len(report.Tables), report.Tables)
	}
	customers, payments := report.Tables[0], report.Tables[1]
	if customers.TableName != "customers" || customers.RowCount != 3 {
		t.Errorf("customers profile = %+v", customers)
	}
	if len(customers.Columns) != 2 {
		t.Fatalf("customers column profiles = %d, want 2", len(customers.Columns))
	}
	name := customers.Columns[1]
	if name.NullCount != 1 || name.DistinctCount != 2 || len(name.SampleValues) != 2 {
		t.Errorf("name profile = %+v", name)
	}

	// Profiling an empty table must report zeroes, not fail on the
	// NULL aggregate results.
	if payments.TableName != "payments" || payments.RowCount != 0 {
		t.Errorf("payments profile = %+v", payments)
	}
	if p := payments.Columns[0]; p.NullCount != 0 || p.DistinctCount != 0 || len(p.SampleValues) != 0 {
		t.Errorf("payments.id profile = %+v", p)
	}

	if len(report.Errors) != 1 || report.Errors[0].Table != "ghosts" {
		t.Fatalf("errors = %+v, want one record for ghosts", report.Errors)
	}
}
