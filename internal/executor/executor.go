/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package executor runs generated validation scripts statement by
// statement. A failing statement is recorded and execution moves on to
// the next one; partial success is a valid terminal outcome.
package executor

import (
	"context"

	"etlvalid/internal/database"
	"etlvalid/internal/logging"
	"etlvalid/internal/sqlextract"
)

// StatementResult reports the outcome of one executed statement.
type StatementResult struct {
	Statement string   `json:"query"`
	Columns   []string `json:"columns,omitempty"`
	Rows      [][]any  `json:"rows,omitempty"`
	RowCount  int      `json:"row_count"`
	Error     string   `json:"error,omitempty"`
}

// Report is the outcome of a whole script run.
type Report struct {
	Results []StatementResult `json:"results"`
	Failed  int               `json:"failed"`
}

// Execute splits the script into statements and runs each against the
// connection. Statements run in order; errors do not stop the run.
func Execute(ctx context.Context, conn *database.Conn, script string) *Report {
	report := &Report{}

	for _, stmt := range sqlextract.SplitStatements(script) {
		cols, rows, err := conn.QueryAll(ctx, stmt)
		if err != nil {
			logging.Warn("statement failed", "statement", stmt, "error", err)
			report.Results = append(report.Results, StatementResult{
				Statement: stmt,
				Error:     err.Error(),
			})
			report.Failed++
			continue
		}
		report.Results = append(report.Results, StatementResult{
			Statement: stmt,
			Columns:   cols,
			Rows:      rows,
			RowCount:  len(rows),
		})
	}

	return report
}
