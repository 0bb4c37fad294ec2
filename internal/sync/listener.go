package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/buffer"
)

// maxConsecutiveReadFailures bounds how long the listener keeps
// retrying a failing buffer read before declaring the domain failed.
const maxConsecutiveReadFailures = 10

// drainTimeout bounds how long an already-read batch may keep applying
// after shutdown begins.
const drainTimeout = 30 * time.Second

// Listener applies newly-captured change events for one domain as they
// arrive. Notifications wake it early; a poll interval bounds the
// staleness when notifications are missed.
type Listener struct {
	domain        string
	readLimit     int
	flushInterval time.Duration
	pollInterval  time.Duration
	reader        buffer.Reader
	notifier      buffer.Notifier
	applier       *Applier
}

func NewListener(
	domain string,
	readLimit int,
	flushInterval, pollInterval time.Duration,
	reader buffer.Reader,
	notifier buffer.Notifier,
	applier *Applier,
) *Listener {
	return &Listener{
		domain:        domain,
		readLimit:     readLimit,
		flushInterval: flushInterval,
		pollInterval:  pollInterval,
		reader:        reader,
		notifier:      notifier,
		applier:       applier,
	}
}

// Run loops until ctx is cancelled: drain everything past the cursor,
// then wait for a notification or the poll interval, whichever comes
// first. After a notification it lingers for the flush interval so a
// burst of events lands in one batch instead of one write per event.
//
// Buffer read errors are retried with the poll interval between
// attempts; after maxConsecutiveReadFailures in a row the listener
// gives up and returns the error. A permanent index rejection is
// returned immediately with the cursor parked at the last committed
// position.
func (l *Listener) Run(ctx context.Context) error {
	defer l.notifier.Close()
	readFailures := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		events, err := l.reader.ReadSince(ctx, l.domain, l.applier.Position(), l.readLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			readFailures++
			if readFailures >= maxConsecutiveReadFailures {
				return fmt.Errorf("buffer reads failing for %s after %d attempts: %w",
					l.domain, readFailures, err)
			}
			slog.Warn("Buffer read failed, will retry",
				"domain", l.domain, "attempt", readFailures, "error", err)
			if !sleepCtx(ctx, l.pollInterval) {
				return nil
			}
			continue
		}
		readFailures = 0

		if len(events) > 0 {
			if err := l.applyBatch(ctx, events); err != nil {
				if ctx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
					// Shutdown is in progress and the drain deadline cut
					// the batch short. The cursor still sits at the last
					// committed position, so the batch is re-read on the
					// next start.
					slog.Warn("Shutdown drain timed out before the batch finished",
						"domain", l.domain, "events", len(events))
					return nil
				}
				return err
			}
			// Keep draining; more may already be buffered.
			continue
		}

		if ctx.Err() != nil {
			return nil
		}
		notified, err := l.waitForWork(ctx)
		if err != nil {
			slog.Warn("Notification wait failed, falling back to polling",
				"domain", l.domain, "error", err)
			if !sleepCtx(ctx, l.pollInterval) {
				return nil
			}
			continue
		}
		if notified {
			// Let the burst settle so it lands in one batch.
			if !sleepCtx(ctx, l.flushInterval) {
				return nil
			}
		}
	}
}

// applyBatch applies one read batch. Once a batch is read its apply
// runs under a context that survives shutdown cancellation, bounded by
// a drain deadline, so stopping the service never abandons a batch
// between stage and commit.
func (l *Listener) applyBatch(ctx context.Context, events []asset.ChangeEvent) error {
	applyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
	defer cancel()

	applied, err := l.applier.ApplyBatch(applyCtx, events, false)
	if err != nil {
		return err
	}
	slog.Debug("Applied change events",
		"domain", l.domain, "applied", applied, "cursor", l.applier.Position())
	return nil
}

func (l *Listener) waitForWork(ctx context.Context) (bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.pollInterval)
	defer cancel()

	notified, err := l.notifier.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, err
	}
	return notified, nil
}

// sleepCtx sleeps for d, returning false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
