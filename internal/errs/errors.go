/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package errs provides the unified error type used across the assistant.
//
// Every subsystem (database, profiler, vector index, LLM client, …) wraps
// its native errors into *errs.Error before returning them. Callers use
// the Is* predicates to handle errors without importing driver-specific
// packages.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorises an error without exposing subsystem-specific codes.
type Kind int

const (
	KindUnknown       Kind = iota
	KindConfig             // missing or invalid configuration, user-correctable
	KindConnection         // database or service unreachable
	KindQuery              // a single SQL statement failed
	KindIndexNotFound      // no persisted vector index at the given path
	KindIndexNotReady      // query issued before an index was built or loaded
	KindGeneration         // the LLM failed or returned an unusable response
	KindTimeout            // context deadline or cancellation
	KindNotFound           // missing script, table, or record
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindQuery:
		return "query"
	case KindIndexNotFound:
		return "index_not_found"
	case KindIndexNotReady:
		return "index_not_ready"
	case KindGeneration:
		return "generation"
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all subsystems.
type Error struct {
	Kind    Kind
	Message string
	// Statement holds the offending SQL for query errors, empty otherwise.
	Statement string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and underlying cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Query creates a query error carrying the statement that failed.
func Query(stmt string, cause error) *Error {
	return &Error{Kind: KindQuery, Message: "statement failed", Statement: stmt, Cause: cause}
}

// IsConfig reports whether err is a configuration error.
func IsConfig(err error) bool { return kindOf(err) == KindConfig }

// IsConnection reports whether err is a connectivity failure.
func IsConnection(err error) bool { return kindOf(err) == KindConnection }

// IsQuery reports whether err is a failed SQL statement.
func IsQuery(err error) bool { return kindOf(err) == KindQuery }

// IsIndexNotFound reports whether err means no index exists at a path.
func IsIndexNotFound(err error) bool { return kindOf(err) == KindIndexNotFound }

// IsIndexNotReady reports whether err means a query arrived before an
// index was built or loaded. Always recoverable by building the index.
func IsIndexNotReady(err error) bool { return kindOf(err) == KindIndexNotReady }

// IsGeneration reports whether err came from the LLM service.
func IsGeneration(err error) bool { return kindOf(err) == KindGeneration }

// IsTimeout reports whether err was caused by a deadline or cancellation.
func IsTimeout(err error) bool { return kindOf(err) == KindTimeout }

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// StatementOf returns the offending SQL statement recorded on a query
// error, or "" when err carries none.
func StatementOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Statement
	}
	return ""
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
