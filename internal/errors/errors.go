// Package errors defines the pipeline failure types and the API error
// responses of the serve surface.
package errors

import (
	"errors"
	"fmt"
)

// StageError reports which stage and output table a run failed on. A failed
// stage aborts the run; no partial table is ever published downstream.
type StageError struct {
	Stage string
	Table string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("stage %s (table %s): %v", e.Stage, e.Table, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps a stage failure with its stage ID and output table.
func NewStageError(stage, table string, err error) *StageError {
	return &StageError{Stage: stage, Table: table, Err: err}
}

// IsStageError reports whether err carries stage failure context and returns
// it when present.
func IsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
