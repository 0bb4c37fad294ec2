package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daaslabs/indexsync/internal/asset"
	"github.com/daaslabs/indexsync/internal/config"
)

const defaultRequestTimeout = 30 * time.Second

// solrWriter talks to a Solr-style update endpoint:
// POST {base}/{collection}/update with JSON command bodies.
type solrWriter struct {
	client     *http.Client
	updateURL  string
	collection string
}

// NewSolrWriter creates a Writer for one collection of the configured
// engine. The returned writer performs no retries itself; wrap it with
// NewRetryingWriter for the shared retry discipline.
func NewSolrWriter(cfg *config.IndexConfig, collection string) (Writer, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("index base URL is required")
	}

	timeout := defaultRequestTimeout
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid index timeout: %w", err)
		}
		timeout = parsed
	}

	return &solrWriter{
		client:     &http.Client{Timeout: timeout},
		updateURL:  strings.TrimRight(cfg.BaseURL, "/") + "/" + collection + "/update",
		collection: collection,
	}, nil
}

func (w *solrWriter) Upsert(ctx context.Context, docs ...asset.Document) error {
	if len(docs) == 0 {
		return nil
	}

	// Solr's JSON update format takes a bare array of documents as an
	// add-or-replace command.
	payload := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, doc.Fields)
	}

	return w.post(ctx, payload)
}

func (w *solrWriter) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return w.post(ctx, map[string]any{"delete": keys})
}

func (w *solrWriter) Commit(ctx context.Context) error {
	return w.post(ctx, map[string]any{"commit": map[string]any{}})
}

func (w *solrWriter) post(ctx context.Context, body any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("failed to encode update for collection %s: %w", w.collection, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.updateURL, bytes.NewReader(encoded))
	if err != nil {
		return &PermanentError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		// Network failures and timeouts are retryable by definition.
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	cause := fmt.Errorf("collection %s update failed: %s", w.collection, strings.TrimSpace(string(detail)))

	if retryableStatus(resp.StatusCode) {
		return &TransientError{Err: cause}
	}
	return &PermanentError{Err: cause, Status: resp.StatusCode}
}

// retryableStatus classifies engine responses: server-side trouble and
// throttling are transient, everything else in the error range is a
// rejection of the request itself.
func retryableStatus(status int) bool {
	if status >= 500 {
		return true
	}
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout
}
