package index

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/config"
)

// Retry defaults applied when the configuration leaves them unset.
const (
	defaultMaxAttempts     = 5
	defaultInitialInterval = 500 * time.Millisecond
	defaultMaxInterval     = 30 * time.Second
)

// RetryPolicy is the single retry discipline shared by every caller of
// the index: bounded exponential backoff on transient failures, an
// immediate stop on permanent rejections.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// NewRetryPolicy builds a RetryPolicy from configuration, applying
// defaults for unset fields.
func NewRetryPolicy(cfg *config.RetryConfig) RetryPolicy {
	policy := RetryPolicy{
		MaxAttempts:     defaultMaxAttempts,
		InitialInterval: defaultInitialInterval,
		MaxInterval:     defaultMaxInterval,
	}
	if cfg == nil {
		return policy
	}

	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if d, err := time.ParseDuration(cfg.InitialInterval); err == nil && d > 0 {
		policy.InitialInterval = d
	}
	if d, err := time.ParseDuration(cfg.MaxInterval); err == nil && d > 0 {
		policy.MaxInterval = d
	}
	return policy
}

// Do runs op, retrying transient failures until the attempt ceiling is
// reached. Permanent rejections and context cancellation stop the retry
// loop immediately. Exhausting the ceiling is reported as a failure
// wrapping the last transient error.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialInterval
	expo.MaxInterval = p.MaxInterval

	attempt := func() (struct{}, error) {
		err := op(ctx)
		if err == nil {
			return struct{}{}, nil
		}
		if IsTransient(err) {
			return struct{}{}, err
		}
		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
	)
	if err != nil && IsTransient(err) {
		return fmt.Errorf("retry budget of %d attempts exhausted: %w", p.MaxAttempts, err)
	}
	return err
}

// retryingWriter applies the retry policy uniformly to a Writer.
type retryingWriter struct {
	inner  Writer
	policy RetryPolicy
}

// NewRetryingWriter wraps w so that every operation runs under policy.
func NewRetryingWriter(w Writer, policy RetryPolicy) Writer {
	return &retryingWriter{inner: w, policy: policy}
}

func (r *retryingWriter) Upsert(ctx context.Context, docs ...asset.Document) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return r.inner.Upsert(ctx, docs...)
	})
}

func (r *retryingWriter) Delete(ctx context.Context, keys ...string) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return r.inner.Delete(ctx, keys...)
	})
}

func (r *retryingWriter) Commit(ctx context.Context) error {
	return r.policy.Do(ctx, func(ctx context.Context) error {
		return r.inner.Commit(ctx)
	})
}
