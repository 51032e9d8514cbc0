/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"etlvalid/internal/config"
	"etlvalid/internal/errs"
)

func sqliteConn(t *testing.T) *Conn {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "conn.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	return Wrap(db, config.DatabaseConfig{
		Driver:       "mysql",
		Database:     "conns",
		QueryTimeout: 5 * time.Second,
	})
}

func TestQueryRowsSurviveIteration(t *testing.T) {
	conn := sqliteConn(t)
	ctx := context.Background()

	if _, err := conn.db.Exec(`CREATE TABLE nums (n INTEGER)`); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 500; i++ {
		if _, err := conn.db.Exec(`INSERT INTO nums (n) VALUES (?)`, i); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := conn.Query(ctx, `SELECT n FROM nums ORDER BY n`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()

	// The query deadline must stay live while the caller drains the
	// result set; a deadline released when Query returned would cancel
	// the rows mid-iteration.
	var count int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			t.Fatalf("scan failed after %d rows: %v", count, err)
		}
		if n != count {
			t.Fatalf("row %d = %d", count, n)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iteration broke after %d of 500 rows: %v", count, err)
	}
	if count != 500 {
		t.Errorf("iterated %d rows, want 500", count)
	}
}

func TestQueryAllDrainsFullResultSet(t *testing.T) {
	conn := sqliteConn(t)
	ctx := context.Background()

	if _, err := conn.db.Exec(`CREATE TABLE pairs (a INTEGER, b TEXT)`); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if _, err := conn.db.Exec(`INSERT INTO pairs (a, b) VALUES (?, ?)`, i, fmt.Sprint(i)); err != nil {
			t.Fatal(err)
		}
	}

	cols, result, err := conn.QueryAll(ctx, `SELECT a, b FROM pairs ORDER BY a`)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cols[0] != "a" || cols[1] != "b" {
		t.Errorf("columns = %v", cols)
	}
	if len(result) != 100 {
		t.Errorf("rows = %d, want 100", len(result))
	}
}

func TestOpenDefaultsZeroConnectTimeout(t *testing.T) {
	// An endpoint that never passed through config defaulting has a
	// zero connect timeout. Open must dial anyway; the failure should
	// be the refused connection, not an already-expired deadline.
	_, err := Open(context.Background(), config.DatabaseConfig{
		Driver:   "mysql",
		Host:     "127.0.0.1",
		Port:     1,
		User:     "u",
		Database: "d",
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !errs.IsConnection(err) {
		t.Errorf("error kind = %v, want connection", err)
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		t.Errorf("connect failed on an expired deadline instead of dialing: %v", err)
	}
}
