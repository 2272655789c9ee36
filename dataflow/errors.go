package dataflow

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation is returned when debug checks find a corrupted set
// or map. It always indicates a bug in this module.
var ErrInvariantViolation = errors.New("invariant violation")

// ErrNotConverged is returned when the fixed point was not reached within
// the configured number of passes.
type ErrNotConverged struct {
	Method     string
	Iterations int
}

func (e *ErrNotConverged) Error() string {
	return fmt.Sprintf("method %q: no fixed point after %d passes", e.Method, e.Iterations)
}

// ErrInvalidMethod reports a malformed control-flow graph.
type ErrInvalidMethod struct {
	Method string
	Block  int
	Reason string
}

func (e *ErrInvalidMethod) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("invalid method %q: %s", e.Method, e.Reason)
	}
	return fmt.Sprintf("invalid method %q: block %d: %s", e.Method, e.Block, e.Reason)
}
