// Package asset defines the core data model shared by the synchronization
// pipeline: source records, captured change events, and the index-side
// document and mutation shapes derived from them.
package asset

import (
	"fmt"
	"time"
)

// Operation is the kind of mutation captured in a change event.
type Operation string

const (
	// OpCreate means a new source row was inserted.
	OpCreate Operation = "create"

	// OpUpdate means an existing source row was modified.
	OpUpdate Operation = "update"

	// OpDelete means a source row was removed.
	OpDelete Operation = "delete"
)

// Valid reports whether op is one of the known operation kinds.
func (op Operation) Valid() bool {
	switch op {
	case OpCreate, OpUpdate, OpDelete:
		return true
	default:
		return false
	}
}

// Record is the canonical current state of one asset as read from the
// source database. It is read-only to this system.
type Record struct {
	// Key is the asset's identity key, shared with the index document.
	Key string

	// Attributes holds the asset's column values keyed by column name.
	Attributes map[string]any

	// ModifiedAt is the source row's last-modified marker.
	ModifiedAt time.Time
}

// ChangeEvent is one captured mutation from the durable change buffer.
//
// Events are created by the database's change-capture trigger and are
// never mutated by this system. Seq is unique and strictly increasing
// within a domain's buffer.
type ChangeEvent struct {
	// Seq is the event's sequence marker within the domain buffer.
	Seq int64

	// Domain is the logical domain the event belongs to.
	Domain string

	// Op is the operation kind.
	Op Operation

	// Key is the affected asset's identity key.
	Key string

	// Payload is the attribute set carried by the event. It is the full
	// row state for create/update and nil for delete.
	Payload map[string]any

	// CreatedAt is when the event was captured.
	CreatedAt time.Time
}

// Document is the search engine's representation of one asset, keyed by
// the same identity key as the source record.
type Document struct {
	// ID is the document identity key.
	ID string

	// Fields holds the indexed field values keyed by field name.
	Fields map[string]any
}

// MutationKind distinguishes index-side upserts from deletes.
type MutationKind string

const (
	// MutationUpsert inserts or replaces a document.
	MutationUpsert MutationKind = "upsert"

	// MutationDelete removes a document by key.
	MutationDelete MutationKind = "delete"
)

// Mutation is the index-side effect derived from one change event.
type Mutation struct {
	Kind MutationKind

	// Key is the identity key the mutation targets.
	Key string

	// Doc is the document to upsert. Nil when Kind is MutationDelete.
	Doc *Document
}

// String returns a short human-readable form used in logs and errors.
func (e ChangeEvent) String() string {
	return fmt.Sprintf("%s/%d %s %s", e.Domain, e.Seq, e.Op, e.Key)
}
