// Package index applies document mutations to the search engine. The
// engine is consumed through a narrow upsert/delete/commit contract and
// is assumed to tolerate duplicate upserts and deletes: every operation
// here is idempotent, which is what lets the synchronization paths
// re-apply work after a crash without corrupting the index.
package index

import (
	"context"

	"github.com/daaslabs/indexsync/internal/asset"
)

// Writer applies mutations to one index collection.
//
// Upsert and Delete stage changes; Commit makes them visible to
// queries. Implementations must keep all three idempotent.
//
//go:generate mockgen -destination=mocks/mock_writer.go -package=mocks github.com/daaslabs/indexsync/internal/index Writer
type Writer interface {
	// Upsert inserts or replaces the given documents.
	Upsert(ctx context.Context, docs ...asset.Document) error

	// Delete removes documents by identity key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, keys ...string) error

	// Commit makes prior upserts and deletes visible to queries.
	Commit(ctx context.Context) error
}

// Apply stages one mutation on the writer. It does not commit.
func Apply(ctx context.Context, w Writer, mutation asset.Mutation) error {
	if mutation.Kind == asset.MutationDelete {
		return w.Delete(ctx, mutation.Key)
	}
	return w.Upsert(ctx, *mutation.Doc)
}
