package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/groundswell-ai/groundswell/pkg/domain"
)

// TaskFunc is the body of a task. It may return a single child workflow, a
// slice of them, or a plain value; plain values pass through RunTask
// unaffected.
type TaskFunc func(ctx context.Context) (any, error)

// CombineFunc folds the failed children's errors, in settlement order, into
// the single error a merge-enabled task returns.
type CombineFunc func(errs []*domain.WorkflowError) *domain.WorkflowError

// MergeStrategy selects the error policy of a concurrent task. Disabled
// (the zero value), the first settled failure is returned as-is. Enabled
// with a nil Combine, the default combiner aggregates all failures into one
// error whose cause is a *domain.AggregateError.
type MergeStrategy struct {
	Enabled bool
	Combine CombineFunc
}

type taskConfig struct {
	concurrent bool
	merge      MergeStrategy
}

// TaskOption configures one RunTask invocation.
type TaskOption func(*taskConfig)

// Concurrent makes RunTask drive every spawned child itself and wait for
// all of them to reach a terminal state before deciding the error policy.
func Concurrent() TaskOption {
	return func(c *taskConfig) { c.concurrent = true }
}

// WithErrorMerge sets the error-aggregation strategy for a concurrent task.
func WithErrorMerge(m MergeStrategy) TaskOption {
	return func(c *taskConfig) { c.merge = m }
}

// RunTask executes a task body on behalf of w.
//
// Workflow entities returned by the body are auto-attached as children of w
// exactly once (entities the body already attached under w are left alone).
// In the default sequential mode RunTask stops there: the caller drives the
// children itself. In concurrent mode every spawned child runs in its own
// goroutine and RunTask joins only once each child has individually reached
// a terminal state; a sibling failure never short-circuits the rest, and no
// code path abandons a running child or leaves one unattached.
//
// With merge disabled, the first settled failure is returned; other
// failures still surface as individual taskFailed events. With merge
// enabled, the failures are folded into one error by the combiner and an
// aggregateError event is emitted alongside the individual ones.
func (w *Workflow) RunTask(ctx context.Context, name string, fn TaskFunc, opts ...TaskOption) (any, error) {
	var cfg taskConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out, err := fn(ctx)
	if err != nil {
		werr := asWorkflowError(err, fmt.Sprintf("task '%s' failed: %v", name, err), w.node)
		w.EmitEvent(domain.NewEvent(domain.EventTaskFailed, w.ID(), map[string]any{
			"task":  name,
			"error": werr.Message,
		}))
		return nil, werr
	}

	children := spawnedChildren(out)
	for _, child := range children {
		if err := w.adopt(child); err != nil {
			return nil, err
		}
	}

	if !cfg.concurrent || len(children) == 0 {
		return out, nil
	}

	failed := w.runAll(ctx, children)
	if len(failed) == 0 {
		return out, nil
	}

	if !cfg.merge.Enabled {
		return nil, failed[0]
	}

	combine := cfg.merge.Combine
	if combine == nil {
		combine = defaultCombine(name, len(children), w.node)
	}
	werr := combine(failed)

	ids := make([]string, len(failed))
	for i, fe := range failed {
		ids[i] = fe.WorkflowID
	}
	w.EmitEvent(domain.NewEvent(domain.EventAggregateError, w.ID(), map[string]any{
		"task":              name,
		"totalChildren":     len(children),
		"failedChildren":    len(failed),
		"failedWorkflowIds": ids,
		"error":             werr.Message,
	}))
	return nil, werr
}

// adopt attaches a spawned child exactly once. A child the task body
// already attached under w passes through; any other parent is a
// structural violation surfaced by AttachChild.
func (w *Workflow) adopt(child *Workflow) error {
	if child.Parent() == w {
		return nil
	}
	return w.AttachChild(child)
}

// runAll drives every child to a terminal state and returns the failures in
// settlement order. Wait-for-all: the join happens only once every child
// has settled, regardless of sibling outcomes.
func (w *Workflow) runAll(ctx context.Context, children []*Workflow) []*domain.WorkflowError {
	results := make(chan *domain.WorkflowError, len(children))
	var wg sync.WaitGroup
	for _, child := range children {
		wg.Add(1)
		go func(c *Workflow) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				results <- asWorkflowError(err, err.Error(), c.node)
			}
		}(child)
	}
	wg.Wait()
	close(results)

	var failed []*domain.WorkflowError
	for werr := range results {
		failed = append(failed, werr)
	}
	return failed
}

// spawnedChildren normalizes a task body's return value to the workflow
// entities it spawned. Mixed []any slices contribute only their workflow
// elements; anything else is a plain value with no children.
func spawnedChildren(out any) []*Workflow {
	switch v := out.(type) {
	case *Workflow:
		if v == nil {
			return nil
		}
		return []*Workflow{v}
	case []*Workflow:
		return v
	case []any:
		var children []*Workflow
		for _, item := range v {
			if child, ok := item.(*Workflow); ok && child != nil {
				children = append(children, child)
			}
		}
		return children
	default:
		return nil
	}
}

// defaultCombine builds the standard aggregate: one error summarizing k of
// n failures, caused by a *domain.AggregateError, whose logs are the
// concatenation of the failed children's logs. Successful siblings' logs
// are deliberately excluded to keep the aggregate focused.
func defaultCombine(taskName string, total int, parent *domain.NodeRecord) CombineFunc {
	return func(errs []*domain.WorkflowError) *domain.WorkflowError {
		ids := make([]string, len(errs))
		var logs []domain.LogEntry
		for i, fe := range errs {
			ids[i] = fe.WorkflowID
			logs = append(logs, fe.Logs...)
		}
		agg := &domain.AggregateError{
			Name:              domain.AggregateErrorName,
			TotalChildren:     total,
			FailedChildren:    len(errs),
			FailedWorkflowIDs: ids,
			Errors:            errs,
		}
		msg := fmt.Sprintf("%d of %d concurrent child workflows failed in task '%s'",
			len(errs), total, taskName)
		werr := domain.NewWorkflowError(msg, agg, parent)
		werr.Logs = logs
		return werr
	}
}

func asWorkflowError(err error, message string, rec *domain.NodeRecord) *domain.WorkflowError {
	var werr *domain.WorkflowError
	if errors.As(err, &werr) {
		return werr
	}
	return domain.NewWorkflowError(message, err, rec)
}
