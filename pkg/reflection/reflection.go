// Package reflection implements the bounded retry-with-feedback loop that
// consumes a task's output and either accepts it or asks for a revision.
// The loop is external to the orchestration core: a workflow step calls it
// around its own output.
package reflection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Non-retryable error classes. A producer or reviser failing with one of
// these stops the loop immediately; retrying cannot help.
var (
	ErrAuthFailure    = errors.New("authentication failure")
	ErrRateLimited    = errors.New("quota or rate limit exceeded")
	ErrNetworkTimeout = errors.New("network timeout")
)

// DefaultMaxAttempts bounds the loop when no option overrides it.
const DefaultMaxAttempts = 3

// Evaluator judges an output. It returns ok=true to accept it, or feedback
// describing what a revision should fix. The evidence argument carries an
// optional external quality signal (test results, citations, a score).
type Evaluator func(ctx context.Context, output string, evidence any) (ok bool, feedback string, err error)

// Reviser produces a revised output from the previous one plus feedback.
type Reviser func(ctx context.Context, output, feedback string) (string, error)

// Classifier reports whether an error is non-retryable. The default checks
// the exported sentinel classes with errors.Is.
type Classifier func(err error) bool

// Loop is a reusable reflection policy: attempt bound plus non-retryable
// classification.
type Loop struct {
	maxAttempts  int
	nonRetryable Classifier
	logger       *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxAttempts bounds the number of revisions.
func WithMaxAttempts(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxAttempts = n
		}
	}
}

// WithClassifier replaces the non-retryable error check.
func WithClassifier(fn Classifier) Option {
	return func(l *Loop) {
		if fn != nil {
			l.nonRetryable = fn
		}
	}
}

// WithLogger sets a structured logger for attempt tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a reflection loop with default bounds.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		maxAttempts:  DefaultMaxAttempts,
		nonRetryable: DefaultNonRetryable,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultNonRetryable matches the exported sentinel classes.
func DefaultNonRetryable(err error) bool {
	return errors.Is(err, ErrAuthFailure) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrNetworkTimeout)
}

// Refine evaluates output and revises it until the evaluator accepts it or
// the attempt bound is reached. The original output is returned unchanged
// when the evaluator accepts it on the first pass. When attempts run out,
// the last revision is returned along with ErrAttemptsExhausted.
func (l *Loop) Refine(ctx context.Context, output string, evidence any, evaluate Evaluator, revise Reviser) (string, error) {
	current := output
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		ok, feedback, err := evaluate(ctx, current, evidence)
		if err != nil {
			if l.nonRetryable(err) {
				return current, fmt.Errorf("reflection: evaluation failed (non-retryable): %w", err)
			}
			l.logger.Warn("evaluation failed, retrying", "attempt", attempt, "err", err)
			continue
		}
		if ok {
			return current, nil
		}

		l.logger.Debug("revising output", "attempt", attempt, "feedback", feedback)
		revised, err := revise(ctx, current, feedback)
		if err != nil {
			if l.nonRetryable(err) {
				return current, fmt.Errorf("reflection: revision failed (non-retryable): %w", err)
			}
			l.logger.Warn("revision failed, retrying", "attempt", attempt, "err", err)
			continue
		}
		current = revised
	}
	return current, fmt.Errorf("reflection: %w after %d attempts", ErrAttemptsExhausted, l.maxAttempts)
}

// ErrAttemptsExhausted is returned when the attempt bound is reached
// without the evaluator accepting the output.
var ErrAttemptsExhausted = errors.New("attempts exhausted")
