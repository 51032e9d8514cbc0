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
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"etlvalid/internal/api"
	"etlvalid/internal/errs"
	"etlvalid/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the assistant over a JSON HTTP API",
	Long: `serve starts an HTTP server with endpoints for configuring databases,
building embeddings, querying, and managing generated scripts. An
existing vector index is loaded at startup when present; otherwise
clients must call create-embeddings first.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	session, cfg, err := loadSession(cmd)
	if err != nil {
		return err
	}

	if err := session.LoadIndex(); err != nil {
		if !errs.IsIndexNotFound(err) {
			return err
		}
		logging.Warn("no vector index found, queries will fail until embeddings are created",
			"path", cfg.Index.Path)
	}

	server := api.NewServer(session)
	fmt.Printf("Listening on %s\n", cfg.HTTP.Address)
	if err := http.ListenAndServe(cfg.HTTP.Address, server.Router()); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
