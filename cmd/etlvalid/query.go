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
	"strings"

	"github.com/spf13/cobra"

	"etlvalid/internal/executor"
	"etlvalid/internal/scripts"
	"etlvalid/internal/tabular"
)

var (
	queryOutput string
	queryPrefix string
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer a data-quality question with a generated validation script",
	Long: `query classifies the question, retrieves relevant schema and profile
context from the vector index, and asks the LLM for a validation
script. The --output flag decides what happens with the generated SQL:
show it, save it to the results directory, or save and execute it
against the source database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryOutput, "output", "o", "show",
		"Output mode: show, save, or execute")
	queryCmd.Flags().StringVar(&queryPrefix, "filename", "",
		"File name prefix for saved scripts (default derives from the query intent)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	mode, err := scripts.ParseOutputMode(queryOutput)
	if err != nil {
		return err
	}

	session, _, err := loadSession(cmd)
	if err != nil {
		return err
	}

	if err := session.LoadIndex(); err != nil {
		return err
	}

	question := strings.Join(args, " ")
	result, err := session.AnswerQuery(cmd.Context(), question)
	if err != nil {
		return err
	}

	fmt.Printf("Model: %s  (%.1fs)\n\n%s\n", result.ModelUsed, result.ProcessingTime, result.Answer)

	if mode == scripts.OutputShow {
		return nil
	}

	prefix := queryPrefix
	if prefix == "" {
		prefix = "validation"
	}
	name, err := session.SaveScript(result.Answer, prefix)
	if err != nil {
		return err
	}
	fmt.Printf("\nScript saved to %s\n", name)

	if mode != scripts.OutputExecute {
		return nil
	}

	report, err := session.ExecuteScript(cmd.Context(), name)
	if err != nil {
		return err
	}
	printReport(report.Results)
	if report.Failed > 0 {
		fmt.Printf("\n%d of %d statements failed\n", report.Failed, len(report.Results))
	}
	return nil
}

func printReport(results []executor.StatementResult) {
	for i, r := range results {
		fmt.Printf("\n-- statement %d --\n%s\n", i+1, r.Statement)
		if r.Error != "" {
			fmt.Printf("error: %s\n", r.Error)
			continue
		}
		if r.RowCount == 0 {
			fmt.Println("(no rows)")
			continue
		}
		fmt.Println(tabular.FormatResultsLimit(r.Columns, r.Rows, 20))
	}
}
