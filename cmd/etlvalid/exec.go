/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <script.sql>",
	Short: "Run a saved validation script against the source database",
	Long: `exec reads a script from the results directory, splits it into
statements, and runs each against the source database. A failing
statement is reported and the run continues with the next one.`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	session, _, err := loadSession(cmd)
	if err != nil {
		return err
	}

	report, err := session.ExecuteScript(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printReport(report.Results)
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d statements failed", report.Failed, len(report.Results))
	}
	fmt.Printf("\n%d statements executed\n", len(report.Results))
	return nil
}
