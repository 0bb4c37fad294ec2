package buffer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Notifier waits for the source database to announce new buffer events.
// It is a latency optimization only: the listener falls back to polling
// at its configured interval, so a missed notification delays an event
// but never loses it.
//
//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks github.com/daaslabs/indexsync/internal/buffer Notifier
type Notifier interface {
	// Wait blocks until a notification arrives or ctx is done. It
	// reports true when a notification was received and false when the
	// wait ended without one.
	Wait(ctx context.Context) (bool, error)

	// Close releases the dedicated connection, if any.
	Close()
}

type pgNotifier struct {
	pool    *pgxpool.Pool
	channel string
	conn    *pgxpool.Conn
}

// NewPGNotifier creates a Notifier using Postgres LISTEN/NOTIFY on the
// given channel. A dedicated connection is acquired lazily on the first
// Wait and re-acquired after connection failures.
func NewPGNotifier(pool *pgxpool.Pool, channel string) Notifier {
	return &pgNotifier{pool: pool, channel: channel}
}

func (n *pgNotifier) Wait(ctx context.Context) (bool, error) {
	if err := n.ensureListening(ctx); err != nil {
		return false, err
	}

	_, err := n.conn.Conn().WaitForNotification(ctx)
	if err != nil {
		// Context expiry is the normal idle-wait outcome, not a failure.
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return false, nil
		}
		// The connection is suspect after any other error. Drop it so the
		// next Wait starts fresh.
		n.Close()
		return false, fmt.Errorf("notification wait on channel %s failed: %w", n.channel, err)
	}

	return true, nil
}

func (n *pgNotifier) ensureListening(ctx context.Context) error {
	if n.conn != nil {
		return nil
	}

	conn, err := n.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire notification connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgQuoteIdentifier(n.channel)); err != nil {
		conn.Release()
		return fmt.Errorf("failed to listen on channel %s: %w", n.channel, err)
	}

	slog.Debug("Listening for buffer notifications", "channel", n.channel)
	n.conn = conn
	return nil
}

func (n *pgNotifier) Close() {
	if n.conn != nil {
		n.conn.Release()
		n.conn = nil
	}
}

// pgQuoteIdentifier quotes a channel name for use in LISTEN, which does
// not accept bind parameters.
func pgQuoteIdentifier(name string) string {
	out := make([]byte, 0, len(name)+2)
	out = append(out, '"')
	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, name[i])
	}
	out = append(out, '"')
	return string(out)
}
