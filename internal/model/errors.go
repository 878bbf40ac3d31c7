package model

import (
	"fmt"
	"strings"
	"time"
)

// The pipeline's failure taxonomy. Callers branch on these with errors.As
// instead of parsing message text: parse and transport failures are isolated
// per file by the bulk loader, rejection aborts an aggregation call, and
// timeouts are fatal only for the reachability wait.

// ParseError means a file's content is not valid structured data.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError is a connection-level failure, classified distinctly from
// HTTP-level rejection so polling waits can treat it as "not yet ready".
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StoreRejectedError is a non-success HTTP response from the record store.
// Issues holds the human-readable diagnostics extracted from an
// OperationOutcome body, when the store sent one.
type StoreRejectedError struct {
	Status int
	Issues []string
}

func (e *StoreRejectedError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("store rejected request: status %d", e.Status)
	}
	return fmt.Sprintf("store rejected request: status %d: %s", e.Status, strings.Join(e.Issues, "; "))
}

// TimeoutError means a bounded wait elapsed without its predicate holding.
// LastStatus and LastErr record the final observation so the failure is
// actionable.
type TimeoutError struct {
	Op         string
	LastStatus int
	LastErr    error
	Elapsed    time.Duration
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("%s: timed out after %s", e.Op, e.Elapsed)
	if e.LastStatus != 0 {
		msg += fmt.Sprintf(" (last status %d)", e.LastStatus)
	}
	if e.LastErr != nil {
		msg += fmt.Sprintf(" (last error: %v)", e.LastErr)
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }
