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

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Profile the configured databases and build the embedding index",
	Long: `build connects to the source (and, if configured, target) database,
extracts schemas and data profiles, and embeds them into the local
vector index. Rebuilding replaces the index atomically; a failed build
leaves the previous index intact.`,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	session, cfg, err := loadSession(cmd)
	if err != nil {
		return err
	}

	if err := session.BuildIndex(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Embedding index written to %s\n", cfg.Index.Path)
	return nil
}
