package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/cursor"
	"github.com/daaslabs/indexsync/internal/index"
	"github.com/daaslabs/indexsync/internal/mapper"
	"github.com/daaslabs/indexsync/internal/status"
	"github.com/daaslabs/indexsync/internal/telemetry"
)

// Applier applies buffered change events to the index for one domain
// and advances the domain cursor behind each committed batch. It is
// the single cursor writer for its domain while it runs.
type Applier struct {
	domain  string
	mapper  *mapper.Mapper
	writer  index.Writer
	cursors cursor.Store
	tracker *status.Tracker
	metrics *telemetry.SyncMetrics

	// position is the sequence of the last event whose effect is
	// committed to the index. Events at or below it are duplicates.
	position int64
}

// NewApplier returns an applier starting from the given cursor
// position. The writer is expected to already wrap retry handling.
func NewApplier(
	domain string,
	m *mapper.Mapper,
	w index.Writer,
	cursors cursor.Store,
	tracker *status.Tracker,
	metrics *telemetry.SyncMetrics,
	start int64,
) *Applier {
	return &Applier{
		domain:   domain,
		mapper:   m,
		writer:   w,
		cursors:  cursors,
		tracker:  tracker,
		metrics:  metrics,
		position: start,
	}
}

// Position returns the sequence of the last committed event.
func (a *Applier) Position() int64 {
	return a.position
}

// ApplyBatch stages the events' mutations in order, commits them as a
// unit, and then advances the cursor to the last staged sequence.
// Events at or below the current position are out-of-order duplicates
// and are logged and skipped without touching the index.
//
// When the index permanently rejects an event, the mutations staged
// before it are committed, the cursor is advanced to cover them, and a
// *RejectionError identifying the event is returned. Transient
// failures that outlive the writer's retry budget are returned without
// moving the cursor, so the caller can resume from the same position.
func (a *Applier) ApplyBatch(ctx context.Context, events []asset.ChangeEvent, recovered bool) (int, error) {
	staged := 0
	lastSeq := a.position
	started := time.Now()

	var rejection *RejectionError
	for i := range events {
		evt := events[i]
		if evt.Seq <= a.position {
			slog.Warn("Skipping out-of-order change event",
				"domain", a.domain, "seq", evt.Seq, "cursor", a.position, "key", evt.Key)
			continue
		}

		mut, err := a.mapper.MapEvent(evt)
		if err != nil {
			rejection = &RejectionError{Event: evt, Err: err}
			break
		}
		if err := index.Apply(ctx, a.writer, mut); err != nil {
			if index.IsPermanent(err) {
				rejection = &RejectionError{Event: evt, Err: err}
				break
			}
			// Transient budget exhausted. Nothing staged after the
			// last commit survives, so the cursor stays put.
			return 0, fmt.Errorf("staging event %s: %w", evt.String(), err)
		}
		staged++
		lastSeq = evt.Seq
	}

	if staged > 0 {
		if err := a.writer.Commit(ctx); err != nil {
			return 0, fmt.Errorf("committing %d events for %s: %w", staged, a.domain, err)
		}
		if err := a.advance(ctx, lastSeq); err != nil {
			return staged, err
		}
		// advance may have resynced position past lastSeq; report the
		// durable value.
		a.metrics.RecordApply(ctx, a.domain, a.position, int64(staged), time.Since(started))
		if a.tracker != nil {
			a.tracker.RecordApplied(a.domain, a.position, int64(staged), recovered)
		}
	}

	if rejection != nil {
		if a.tracker != nil {
			a.tracker.SetHalted(a.domain, rejection.Event.Seq, rejection.Event.Key, rejection.Err.Error())
		}
		return staged, rejection
	}
	return staged, nil
}

// ApplyEvent applies a single event; see ApplyBatch.
func (a *Applier) ApplyEvent(ctx context.Context, evt asset.ChangeEvent, recovered bool) error {
	_, err := a.ApplyBatch(ctx, []asset.ChangeEvent{evt}, recovered)
	return err
}

func (a *Applier) advance(ctx context.Context, seq int64) error {
	err := a.cursors.Advance(ctx, a.domain, seq)
	if err == nil {
		a.position = seq
		return nil
	}
	if !errors.Is(err, cursor.ErrRegression) {
		return fmt.Errorf("advancing cursor for %s to %d: %w", a.domain, seq, err)
	}

	// The durable cursor is already at or past seq: another writer, such
	// as a full load seeding the cursor at the buffer tail, moved it
	// while this batch was in flight. Idempotent writes make the batch
	// harmless, so resync the in-memory position and keep going.
	position, _, loadErr := a.cursors.Load(ctx, a.domain)
	if loadErr != nil {
		return fmt.Errorf("reloading cursor for %s after passed position %d: %w", a.domain, seq, loadErr)
	}
	slog.Warn("Cursor already past applied batch, resyncing position",
		"domain", a.domain, "seq", seq, "cursor", position)
	a.position = position
	return nil
}
