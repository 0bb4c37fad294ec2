// Package source reads complete current-state asset rows from the
// source database for full and windowed loads. It bypasses the change
// buffer entirely: bulk content comes straight from the rows of record.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/config"
)

// modifiedColumn is the source column carrying the row's last-modified
// marker, used both for Record.ModifiedAt and for windowed scans.
const modifiedColumn = "updated_at"

// BatchFunc receives one batch of records during a scan. Returning an
// error aborts the scan.
type BatchFunc func(ctx context.Context, records []asset.Record) error

// Extractor streams current asset rows in bounded batches.
//
//go:generate mockgen -destination=mocks/mock_extractor.go -package=mocks github.com/daaslabs/indexsync/internal/source Extractor
type Extractor interface {
	// Scan reads every row of the domain in identity-key order and hands
	// them to fn in batches of at most the configured scan batch size.
	Scan(ctx context.Context, fn BatchFunc) error

	// ScanWindow reads only rows with a last-modified marker in
	// [from, to), for partial refreshes.
	ScanWindow(ctx context.Context, from, to time.Time, fn BatchFunc) error
}

type dbExtractor struct {
	pool      *pgxpool.Pool
	table     string
	keyColumn string
	batchSize int
}

// NewDBExtractor creates an Extractor over the domain's source table.
func NewDBExtractor(pool *pgxpool.Pool, dom *config.DomainConfig) Extractor {
	return &dbExtractor{
		pool:      pool,
		table:     dom.GetTable(),
		keyColumn: dom.GetKeyColumn(),
		batchSize: dom.GetScanBatchSize(),
	}
}

func (e *dbExtractor) Scan(ctx context.Context, fn BatchFunc) error {
	return e.scan(ctx, "", nil, fn)
}

func (e *dbExtractor) ScanWindow(ctx context.Context, from, to time.Time, fn BatchFunc) error {
	window := fmt.Sprintf(" AND %s >= $2 AND %s < $3",
		pgx.Identifier{modifiedColumn}.Sanitize(),
		pgx.Identifier{modifiedColumn}.Sanitize())
	return e.scan(ctx, window, []any{from, to}, fn)
}

// scan pages through the table with keyset pagination so memory stays
// bounded regardless of table size.
func (e *dbExtractor) scan(ctx context.Context, extraWhere string, extraArgs []any, fn BatchFunc) error {
	keyCol := pgx.Identifier{e.keyColumn}.Sanitize()
	query := fmt.Sprintf(
		`SELECT * FROM %s WHERE %s > $1%s ORDER BY %s ASC LIMIT %d`,
		pgx.Identifier{e.table}.Sanitize(), keyCol, extraWhere, keyCol, e.batchSize,
	)

	lastKey := ""
	for {
		args := append([]any{lastKey}, extraArgs...)
		records, err := e.readBatch(ctx, query, args)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		if err := fn(ctx, records); err != nil {
			return err
		}
		lastKey = records[len(records)-1].Key

		if len(records) < e.batchSize {
			return nil
		}
	}
}

func (e *dbExtractor) readBatch(ctx context.Context, query string, args []any) ([]asset.Record, error) {
	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan source table %s: %w", e.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var records []asset.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read source row values: %w", err)
		}

		record := asset.Record{Attributes: make(map[string]any, len(fields))}
		for i, field := range fields {
			record.Attributes[field.Name] = values[i]
		}

		key, ok := record.Attributes[e.keyColumn]
		if !ok || key == nil {
			return nil, fmt.Errorf("source row in table %s has no %s value", e.table, e.keyColumn)
		}
		record.Key = fmt.Sprint(key)

		if modified, ok := record.Attributes[modifiedColumn].(time.Time); ok {
			record.ModifiedAt = modified
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source rows: %w", err)
	}

	return records, nil
}
