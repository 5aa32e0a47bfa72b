package domain

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Structural violations. These are always returned synchronously to the
// caller of the mutating operation and never swallowed, since they signal a
// risk of tree corruption. Match with errors.Is.
var (
	// ErrAlreadyAttached is returned when a candidate is already a child of
	// the target entity.
	ErrAlreadyAttached = errors.New("child already attached")

	// ErrAlreadyHasParent is returned when a candidate belongs to another
	// parent; the caller must detach it first.
	ErrAlreadyHasParent = errors.New("child already has a parent")

	// ErrCircularReference is returned when an attach would make an entity
	// an ancestor of itself.
	ErrCircularReference = errors.New("circular reference")

	// ErrNotAttached is returned when detaching an entity that is not a
	// child of the target.
	ErrNotAttached = errors.New("not a child of this workflow")

	// ErrNotRoot is returned when registering an observer on a non-root
	// entity.
	ErrNotRoot = errors.New("observers may only be registered on a root workflow")
)

// AggregateErrorName identifies the cause of a merged concurrent failure.
const AggregateErrorName = "WorkflowAggregateError"

// WorkflowError captures one workflow's execution failure together with the
// context needed to diagnose it without access to the live tree: the state
// snapshot and logs collected up to the failure.
type WorkflowError struct {
	Message    string
	Cause      error
	WorkflowID string
	Stack      string
	Snapshot   map[string]any
	Logs       []LogEntry
}

// NewWorkflowError builds a WorkflowError from a failing node record,
// freezing its snapshot and logs at failure time.
func NewWorkflowError(message string, cause error, rec *NodeRecord) *WorkflowError {
	e := &WorkflowError{
		Message: message,
		Cause:   cause,
		Stack:   string(debug.Stack()),
	}
	if rec != nil {
		e.WorkflowID = rec.ID
		e.Snapshot = rec.Snapshot()
		e.Logs = rec.Logs()
	}
	return e
}

func (e *WorkflowError) Error() string {
	return e.Message
}

// Unwrap exposes the original cause for errors.Is / errors.As.
func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// AggregateError is the structured cause of a merged concurrent-task
// failure. It distinguishes isolated failures from systemic ones without
// re-deriving that from raw logs.
type AggregateError struct {
	Name              string
	TotalChildren     int
	FailedChildren    int
	FailedWorkflowIDs []string
	Errors            []*WorkflowError
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s: no child failures", e.Name)
	}
	msgs := make([]string, len(e.Errors))
	for i, we := range e.Errors {
		msgs[i] = we.Message
	}
	return fmt.Sprintf("%s: %d of %d children failed: %s",
		e.Name, e.FailedChildren, e.TotalChildren, strings.Join(msgs, "; "))
}

// Unwrap returns every child failure, enabling errors.Is and errors.As to
// search across all of them.
func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, we := range e.Errors {
		errs[i] = we
	}
	return errs
}
