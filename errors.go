package ssaflow

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ssaflow/dataflow"
	"github.com/hupe1980/ssaflow/snapshot"
)

var (
	// ErrNilMethod is returned when a nil method is passed for analysis.
	ErrNilMethod = errors.New("nil method")

	// ErrInvalidMethod is returned for malformed control-flow graphs.
	ErrInvalidMethod = errors.New("invalid method")

	// ErrNotConverged is returned when the solver hit its pass limit.
	ErrNotConverged = errors.New("analysis did not converge")

	// ErrCorruptSnapshot is returned when a snapshot cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// ErrMethodFailed reports which method of a batch failed.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrMethodFailed struct {
	Index  int
	Method string
	cause  error
}

func (e *ErrMethodFailed) Error() string {
	return fmt.Sprintf("method %d (%q): %v", e.Index, e.Method, e.cause)
}

func (e *ErrMethodFailed) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var im *dataflow.ErrInvalidMethod
	if errors.As(err, &im) {
		return fmt.Errorf("%w: %w", ErrInvalidMethod, err)
	}
	var nc *dataflow.ErrNotConverged
	if errors.As(err, &nc) {
		return fmt.Errorf("%w: %w", ErrNotConverged, err)
	}
	if errors.Is(err, snapshot.ErrBadMagic) ||
		errors.Is(err, snapshot.ErrUnsupportedVersion) ||
		errors.Is(err, snapshot.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}

	return err
}
