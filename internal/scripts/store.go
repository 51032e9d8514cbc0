/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package scripts persists generated SQL scripts to a results
// directory and reads them back for execution.
package scripts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"etlvalid/internal/errs"
)

// OutputMode selects what happens with a generated script. It replaces
// interactive console prompting so non-interactive callers stay in
// control.
type OutputMode string

const (
	// OutputShow only returns the script text.
	OutputShow OutputMode = "show"
	// OutputSave writes the script to the results directory.
	OutputSave OutputMode = "save"
	// OutputExecute saves the script and runs it against the source
	// database.
	OutputExecute OutputMode = "execute"
)

// ParseOutputMode validates a mode string.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(s) {
	case OutputShow, OutputSave, OutputExecute:
		return OutputMode(s), nil
	case "":
		return OutputShow, nil
	default:
		return "", errs.New(errs.KindConfig,
			fmt.Sprintf("unknown output mode %q (supported: show, save, execute)", s))
	}
}

// Store manages SQL files under one directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "results"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes content under prefix.sql, appending _1, _2, ... when the
// name is taken. Returns the final file name.
func (s *Store) Save(prefix, content string) (string, error) {
	prefix = sanitizeName(prefix)
	if prefix == "" {
		prefix = "validation"
	}

	name := prefix + ".sql"
	for counter := 1; ; counter++ {
		if _, err := os.Stat(filepath.Join(s.dir, name)); os.IsNotExist(err) {
			break
		}
		name = fmt.Sprintf("%s_%d.sql", prefix, counter)
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to save script %s: %w", name, err)
	}
	return name, nil
}

// List returns the saved script file names, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the content of a saved script. The name must be a bare
// file name inside the store.
func (s *Store) Read(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", errs.New(errs.KindNotFound, fmt.Sprintf("invalid script name %q", name))
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.New(errs.KindNotFound, fmt.Sprintf("script not found: %s", name))
		}
		return "", fmt.Errorf("failed to read script %s: %w", name, err)
	}
	return string(data), nil
}

// sanitizeName strips path separators and whitespace from a
// caller-supplied file name prefix.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".sql")
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_")
	return replacer.Replace(name)
}
