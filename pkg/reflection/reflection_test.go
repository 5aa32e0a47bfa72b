package reflection_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundswell-ai/groundswell/pkg/reflection"
)

func acceptAll(ctx context.Context, output string, evidence any) (bool, string, error) {
	return true, "", nil
}

func rejectAll(ctx context.Context, output string, evidence any) (bool, string, error) {
	return false, "not good enough", nil
}

func appendFeedback(ctx context.Context, output, feedback string) (string, error) {
	return output + "+" + feedback, nil
}

func TestRefine_AcceptedFirstPassReturnsOriginal(t *testing.T) {
	loop := reflection.NewLoop()
	got, err := loop.Refine(context.Background(), "draft", nil, acceptAll, appendFeedback)
	require.NoError(t, err)
	assert.Equal(t, "draft", got)
}

func TestRefine_RevisesUntilAccepted(t *testing.T) {
	loop := reflection.NewLoop()

	evaluate := func(ctx context.Context, output string, evidence any) (bool, string, error) {
		if output == "draft+fix+fix" {
			return true, "", nil
		}
		return false, "fix", nil
	}

	got, err := loop.Refine(context.Background(), "draft", nil, evaluate, appendFeedback)
	require.NoError(t, err)
	assert.Equal(t, "draft+fix+fix", got)
}

func TestRefine_EvidenceReachesEvaluator(t *testing.T) {
	loop := reflection.NewLoop()
	evaluate := func(ctx context.Context, output string, evidence any) (bool, string, error) {
		score, ok := evidence.(int)
		return ok && score > 80, "score too low", nil
	}

	_, err := loop.Refine(context.Background(), "draft", 95, evaluate, appendFeedback)
	assert.NoError(t, err)

	_, err = loop.Refine(context.Background(), "draft", 10, evaluate,
		func(ctx context.Context, output, feedback string) (string, error) { return output, nil })
	assert.ErrorIs(t, err, reflection.ErrAttemptsExhausted)
}

func TestRefine_ExhaustionReturnsLastRevision(t *testing.T) {
	loop := reflection.NewLoop(reflection.WithMaxAttempts(2))

	got, err := loop.Refine(context.Background(), "draft", nil, rejectAll, appendFeedback)
	require.ErrorIs(t, err, reflection.ErrAttemptsExhausted)
	assert.Equal(t, "draft+not good enough+not good enough", got,
		"caller still gets the best effort so far")
}

func TestRefine_NonRetryableStopsImmediately(t *testing.T) {
	loop := reflection.NewLoop()

	var attempts int
	evaluate := func(ctx context.Context, output string, evidence any) (bool, string, error) {
		attempts++
		return false, "", fmt.Errorf("provider: %w", reflection.ErrAuthFailure)
	}

	got, err := loop.Refine(context.Background(), "draft", nil, evaluate, appendFeedback)
	require.ErrorIs(t, err, reflection.ErrAuthFailure)
	assert.Equal(t, 1, attempts, "non-retryable errors must not be retried")
	assert.Equal(t, "draft", got)
}

func TestRefine_TransientEvaluatorErrorRetries(t *testing.T) {
	loop := reflection.NewLoop()

	var attempts int
	evaluate := func(ctx context.Context, output string, evidence any) (bool, string, error) {
		attempts++
		if attempts == 1 {
			return false, "", errors.New("hiccup")
		}
		return true, "", nil
	}

	got, err := loop.Refine(context.Background(), "draft", nil, evaluate, appendFeedback)
	require.NoError(t, err)
	assert.Equal(t, "draft", got)
	assert.Equal(t, 2, attempts)
}

func TestRefine_NonRetryableReviserError(t *testing.T) {
	loop := reflection.NewLoop()
	revise := func(ctx context.Context, output, feedback string) (string, error) {
		return "", reflection.ErrRateLimited
	}

	_, err := loop.Refine(context.Background(), "draft", nil, rejectAll, revise)
	assert.ErrorIs(t, err, reflection.ErrRateLimited)
}

func TestRefine_CustomClassifier(t *testing.T) {
	fatal := errors.New("fatal")
	loop := reflection.NewLoop(
		reflection.WithMaxAttempts(5),
		reflection.WithClassifier(func(err error) bool { return errors.Is(err, fatal) }),
	)

	var attempts int
	evaluate := func(ctx context.Context, output string, evidence any) (bool, string, error) {
		attempts++
		return false, "", fatal
	}

	_, err := loop.Refine(context.Background(), "draft", nil, evaluate, appendFeedback)
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}
