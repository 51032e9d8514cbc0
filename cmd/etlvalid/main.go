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
	"os"

	"github.com/spf13/cobra"

	"etlvalid/internal/config"
	"etlvalid/internal/logging"
	"etlvalid/internal/rag"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "etlvalid",
	Short: "ETL validation assistant backed by retrieval-augmented generation",
	Long: `etlvalid profiles source and target relational databases, indexes
their schemas and data profiles into a local vector store, and answers
data-quality questions by generating validation SQL with a local LLM.

Typical flow: "etlvalid build" to create the embedding index, then
"etlvalid query" to generate validation scripts, "etlvalid exec" to run
a saved script, or "etlvalid serve" to expose the same operations over
HTTP.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "etlvalid.yaml",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error); overrides config file")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadSession loads configuration and wires a session from it.
func loadSession(cmd *cobra.Command) (*rag.Session, *config.Config, error) {
	cmd.SilenceUsage = true

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logging.Configure(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	session, err := rag.NewSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	return session, cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
