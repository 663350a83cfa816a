package extract

import (
	"errors"
	"fmt"

	"github.com/sadopc/matviewddl/internal/adapter"
)

// Phase names the step of an extraction that failed.
type Phase string

const (
	PhaseSession     Phase = "acquire session"
	PhaseListViews   Phase = "list materialized views"
	PhaseListIndexes Phase = "list indexes"
)

// ValidationError reports bad input. It is raised before any catalog
// access and must not be retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConnectionError reports an unusable or unreachable catalog session.
type ConnectionError struct {
	Phase Phase
	View  string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection: %v", describe(e.Phase, e.View), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a catalog query that failed for any reason other than
// a broken session. View is set when the failure is specific to one view.
type QueryError struct {
	Phase Phase
	View  string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", describe(e.Phase, e.View), e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func describe(phase Phase, view string) string {
	if view == "" {
		return string(phase)
	}
	return fmt.Sprintf("%s of %q", phase, view)
}

// phaseError sorts err into ConnectionError or QueryError.
func phaseError(phase Phase, view string, err error) error {
	if errors.Is(err, adapter.ErrConnection) {
		return &ConnectionError{Phase: phase, View: view, Err: err}
	}
	return &QueryError{Phase: phase, View: view, Err: err}
}
