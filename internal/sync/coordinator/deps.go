package coordinator

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daaslabs/indexsync/internal/buffer"
	"github.com/daaslabs/indexsync/internal/config"
	"github.com/daaslabs/indexsync/internal/cursor"
	"github.com/daaslabs/indexsync/internal/index"
	"github.com/daaslabs/indexsync/internal/source"
)

// Deps holds the coordinator's injectable dependencies. Constructors
// are factories so each domain gets its own writer, notifier, and
// extractor while sharing the cursor store and buffer reader.
type Deps struct {
	Cursors      cursor.Store
	Reader       buffer.Reader
	NewWriter    func(collection string) (index.Writer, error)
	NewNotifier  func(channel string) buffer.Notifier
	NewExtractor func(dom *config.DomainConfig) source.Extractor
}

// NewFromPool builds the production dependency set over a shared
// connection pool and the configured index endpoint.
func NewFromPool(pool *pgxpool.Pool, cfg *config.Config) Deps {
	return Deps{
		Cursors: cursor.NewDBStore(pool),
		Reader:  buffer.NewDBReader(pool),
		NewWriter: func(collection string) (index.Writer, error) {
			return index.NewSolrWriter(cfg.Index, collection)
		},
		NewNotifier: func(channel string) buffer.Notifier {
			return buffer.NewPGNotifier(pool, channel)
		},
		NewExtractor: func(dom *config.DomainConfig) source.Extractor {
			return source.NewDBExtractor(pool, dom)
		},
	}
}
