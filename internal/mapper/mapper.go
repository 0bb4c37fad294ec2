// Package mapper transforms source records and change events into
// index-side documents and mutations. Mapping is deterministic and does
// no I/O: full loads and event replay must converge to identical
// documents for identical underlying data, regardless of which path
// produced them.
package mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/daaslabs/indexsync/internal/asset"
)

// ErrInvalidEvent marks an event whose shape cannot be mapped to an
// index mutation. Callers treat it as a permanent rejection, never a
// retryable failure.
var ErrInvalidEvent = errors.New("change event cannot be mapped")

// solrDateFormat is the ISO-8601 form the index expects for date fields.
const solrDateFormat = "2006-01-02T15:04:05Z"

// Mapper converts records and events for one domain.
type Mapper struct {
	keyColumn string
}

// New creates a Mapper that takes document identity from keyColumn.
func New(keyColumn string) *Mapper {
	return &Mapper{keyColumn: keyColumn}
}

// MapRecord derives the index document for a source record.
func (m *Mapper) MapRecord(record asset.Record) asset.Document {
	fields := make(map[string]any, len(record.Attributes)+1)
	for name, value := range record.Attributes {
		fields[name] = normalizeValue(value)
	}
	fields["id"] = record.Key

	return asset.Document{ID: record.Key, Fields: fields}
}

// MapEvent derives the index mutation for a change event. The operation
// kind is matched exhaustively: an unknown kind or a create/update
// without a payload is an ErrInvalidEvent.
func (m *Mapper) MapEvent(event asset.ChangeEvent) (asset.Mutation, error) {
	switch event.Op {
	case asset.OpCreate, asset.OpUpdate:
		if event.Payload == nil {
			return asset.Mutation{}, fmt.Errorf(
				"%s event for key %s at marker %d has no payload: %w",
				event.Op, event.Key, event.Seq, ErrInvalidEvent,
			)
		}
		doc := m.MapRecord(asset.Record{Key: event.Key, Attributes: event.Payload})
		return asset.Mutation{Kind: asset.MutationUpsert, Key: event.Key, Doc: &doc}, nil

	case asset.OpDelete:
		return asset.Mutation{Kind: asset.MutationDelete, Key: event.Key}, nil

	default:
		return asset.Mutation{}, fmt.Errorf(
			"unknown operation %q for key %s at marker %d: %w",
			event.Op, event.Key, event.Seq, ErrInvalidEvent,
		)
	}
}

// normalizeValue converts source-side values into index-compatible ones:
// timestamps become ISO-8601 strings and JSON-encoded arrays embedded in
// strings are expanded into real lists.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(solrDateFormat)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(solrDateFormat)
	case string:
		return expandJSONList(v)
	default:
		return value
	}
}

// expandJSONList turns a string holding a JSON array into the decoded
// list. Any other string passes through unchanged.
func expandJSONList(s string) any {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "[") {
		return s
	}

	var list []any
	if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
		return s
	}
	return list
}
