// Package audit indexes authorization decisions the enforcement core
// refused so operators can search why a query was blocked or failed to
// enhance, following the bleve indexing idiom used elsewhere in this
// codebase for full-text search over structured records.
package audit

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"

	"github.com/latticeobs/queryauth/internal/config"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// Entry is one recorded authorization decision worth auditing: a query
// the enforcement core rejected as Unauthorized, or one it failed to
// enhance at all.
type Entry struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	Backend   string    `json:"backend"`
	Outcome   string    `json:"outcome"` // unauthorized, enhancement_failed
	Reason    string    `json:"reason"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// Index wraps a bleve index of audit Entry records.
type Index struct {
	index  bleve.Index
	logger logger.Logger
}

// New opens (or creates) the on-disk bleve index at cfg.IndexPath. An
// empty path yields an in-memory index, useful for tests and for
// deployments that run audit disabled.
func New(cfg config.AuditConfig, log logger.Logger) (*Index, error) {
	path := cfg.IndexPath
	if path == "" {
		idx, err := bleve.NewMemOnly(buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory audit index: %w", err)
		}
		return &Index{index: idx, logger: log}, nil
	}

	idx, err := bleve.Open(path)
	if err != nil {
		idx, err = bleve.New(path, buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create audit index at %s: %w", path, err)
		}
	}
	return &Index{index: idx, logger: log}, nil
}

func buildMapping() *bleve.IndexMapping {
	return bleve.NewIndexMapping()
}

// Record indexes a new audit entry and returns its generated ID.
func (a *Index) Record(identity, backend, outcome, reason, query string) (string, error) {
	id := uuid.NewString()
	entry := Entry{
		ID:        id,
		Identity:  identity,
		Backend:   backend,
		Outcome:   outcome,
		Reason:    reason,
		Query:     query,
		Timestamp: time.Now(),
	}
	if err := a.index.Index(id, entry); err != nil {
		a.logger.Error("failed to index audit entry", "identity", identity, "backend", backend, "error", err)
		return "", fmt.Errorf("index audit entry: %w", err)
	}
	return id, nil
}

// Search runs a bleve query string against the audit index, e.g.
// "identity:alice AND backend:promql" or "outcome:unauthorized".
func (a *Index) Search(queryString string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := bleve.NewQueryStringQuery(queryString)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"*"}

	result, err := a.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search audit index: %w", err)
	}

	entries := make([]Entry, 0, len(result.Hits))
	for _, hit := range result.Hits {
		entry := Entry{ID: hit.ID}
		if v, ok := hit.Fields["identity"].(string); ok {
			entry.Identity = v
		}
		if v, ok := hit.Fields["backend"].(string); ok {
			entry.Backend = v
		}
		if v, ok := hit.Fields["outcome"].(string); ok {
			entry.Outcome = v
		}
		if v, ok := hit.Fields["reason"].(string); ok {
			entry.Reason = v
		}
		if v, ok := hit.Fields["query"].(string); ok {
			entry.Query = v
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close releases the underlying bleve index.
func (a *Index) Close() error {
	return a.index.Close()
}
