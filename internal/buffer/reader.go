// Package buffer reads captured change events from the durable buffer
// table that the source database's change-capture trigger populates.
// The buffer is the recovery log: it is read non-destructively in
// sequence-marker order, and rows are only removed by the retention
// sweep once the durable cursor has passed them.
package buffer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daaslabs/indexsync/internal/asset"
)

// Reader provides ordered access to pending change events.
//
// A ReadSince returning an empty slice means the buffer is drained at
// call time; callers use that, not an error, to switch from catch-up to
// idle waiting.
//
//go:generate mockgen -destination=mocks/mock_reader.go -package=mocks github.com/daaslabs/indexsync/internal/buffer Reader
type Reader interface {
	// ReadSince returns up to limit events with a sequence marker
	// strictly greater than after, in ascending marker order. Calling it
	// again with the same arguments re-yields the same events.
	ReadSince(ctx context.Context, domain string, after int64, limit int) ([]asset.ChangeEvent, error)

	// Tail returns the highest sequence marker currently in the buffer
	// for the domain, or zero when the buffer is empty.
	Tail(ctx context.Context, domain string) (int64, error)

	// DeleteThrough removes buffer rows with markers at or below through
	// and returns how many were removed. Only provably-applied rows may
	// be passed here.
	DeleteThrough(ctx context.Context, domain string, through int64) (int64, error)
}

type dbReader struct {
	pool *pgxpool.Pool
}

// NewDBReader creates a Reader over the change_event_buffer table.
func NewDBReader(pool *pgxpool.Pool) Reader {
	return &dbReader{pool: pool}
}

func (r *dbReader) ReadSince(ctx context.Context, domain string, after int64, limit int) ([]asset.ChangeEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, domain, op, asset_key, payload, created_at
		 FROM change_event_buffer
		 WHERE domain = $1 AND seq > $2
		 ORDER BY seq ASC
		 LIMIT $3`,
		domain, after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read buffer for domain %s: %w", domain, err)
	}
	defer rows.Close()

	var events []asset.ChangeEvent
	for rows.Next() {
		var (
			event   asset.ChangeEvent
			op      string
			payload []byte
			created time.Time
		)
		if err := rows.Scan(&event.Seq, &event.Domain, &op, &event.Key, &payload, &created); err != nil {
			return nil, fmt.Errorf("failed to scan buffer row: %w", err)
		}
		event.Op = asset.Operation(op)
		event.CreatedAt = created

		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode payload for event %s/%d: %w", domain, event.Seq, err)
			}
		}

		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buffer rows: %w", err)
	}

	return events, nil
}

func (r *dbReader) Tail(ctx context.Context, domain string) (int64, error) {
	var tail int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM change_event_buffer WHERE domain = $1`,
		domain,
	).Scan(&tail)
	if err != nil {
		return 0, fmt.Errorf("failed to read buffer tail for domain %s: %w", domain, err)
	}
	return tail, nil
}

func (r *dbReader) DeleteThrough(ctx context.Context, domain string, through int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM change_event_buffer WHERE domain = $1 AND seq <= $2`,
		domain, through,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep buffer for domain %s: %w", domain, err)
	}
	return tag.RowsAffected(), nil
}
