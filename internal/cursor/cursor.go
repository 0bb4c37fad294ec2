// Package cursor persists the last durably-applied buffer position per
// domain. The cursor is the system's only persisted coordination state:
// it only ever moves forward, and it is advanced only after the index
// mutation it covers has been committed.
package cursor

import (
	"context"
	"errors"
)

// ErrRegression is returned when an advance would move a cursor backward
// or leave it unchanged. Callers treat this as proof the event was
// already applied.
var ErrRegression = errors.New("cursor position would not advance")

// Store persists per-domain cursor positions.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/daaslabs/indexsync/internal/cursor Store
type Store interface {
	// Load returns the persisted position for the domain. found is false
	// when no cursor has ever been written, which callers interpret as
	// "beginning of buffer".
	Load(ctx context.Context, domain string) (position int64, found bool, err error)

	// Advance persists position for the domain. The write is refused with
	// ErrRegression unless it strictly increases the stored position.
	Advance(ctx context.Context, domain string, position int64) error

	// Seed writes position only when no cursor exists yet. It reports
	// whether the write happened. Used by the full-load handshake so a
	// fresh load does not trigger a full historical replay.
	Seed(ctx context.Context, domain string, position int64) (seeded bool, err error)
}
