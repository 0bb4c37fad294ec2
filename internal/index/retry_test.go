package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/config"
)

// fastPolicy keeps test retries near-instant.
func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func TestNewRetryPolicy_Defaults(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy(nil)
	assert.Equal(t, defaultMaxAttempts, policy.MaxAttempts)
	assert.Equal(t, defaultInitialInterval, policy.InitialInterval)
	assert.Equal(t, defaultMaxInterval, policy.MaxInterval)
}

func TestNewRetryPolicy_FromConfig(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy(&config.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: "100ms",
		MaxInterval:     "2s",
	})
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, policy.InitialInterval)
	assert.Equal(t, 2*time.Second, policy.MaxInterval)
}

func TestDo_TransientFailuresAreRetried(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &TransientError{Err: errors.New("unavailable")}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_BudgetExhaustion(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(3).Do(context.Background(), func(context.Context) error {
		calls++
		return &TransientError{Err: errors.New("still down")}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "retry budget")
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	t.Parallel()

	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(context.Context) error {
		calls++
		return &PermanentError{Err: errors.New("rejected"), Status: 400}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsPermanent(err))
}

func TestDo_ContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := fastPolicy(100).Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return &TransientError{Err: errors.New("unavailable")}
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 2)
}

// countingWriter records operations and fails a configurable number of
// times per operation before succeeding.
type countingWriter struct {
	failures int
	upserts  int
	deletes  int
	commits  int
}

func (w *countingWriter) Upsert(_ context.Context, _ ...asset.Document) error {
	w.upserts++
	return w.maybeFail(w.upserts)
}

func (w *countingWriter) Delete(_ context.Context, _ ...string) error {
	w.deletes++
	return w.maybeFail(w.deletes)
}

func (w *countingWriter) Commit(_ context.Context) error {
	w.commits++
	return w.maybeFail(w.commits)
}

func (w *countingWriter) maybeFail(call int) error {
	if call <= w.failures {
		return &TransientError{Err: errors.New("flaky")}
	}
	return nil
}

func TestRetryingWriter(t *testing.T) {
	t.Parallel()

	inner := &countingWriter{failures: 2}
	w := NewRetryingWriter(inner, fastPolicy(5))

	ctx := context.Background()
	require.NoError(t, w.Upsert(ctx, asset.Document{ID: "a-1", Fields: map[string]any{"id": "a-1"}}))
	assert.Equal(t, 3, inner.upserts)

	require.NoError(t, w.Commit(ctx))
}
