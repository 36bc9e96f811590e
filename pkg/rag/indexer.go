package rag

import (
	"context"
	"fmt"

	"concierge/pkg/persistence"
)

// Indexer writes tenant documents into the knowledge store. The FTS index
// stays in sync through the schema triggers, so indexing is a plain insert.
type Indexer struct {
	store *persistence.Store
}

// NewIndexer creates an indexer over the given store.
func NewIndexer(store *persistence.Store) *Indexer {
	return &Indexer{store: store}
}

// Index adds one document for a tenant and returns its ID.
func (ix *Indexer) Index(ctx context.Context, tenantID string, doc Document) (int64, error) {
	if tenantID == "" {
		return 0, fmt.Errorf("tenant_id is required")
	}
	if doc.Title == "" || doc.Content == "" {
		return 0, fmt.Errorf("document title and content are required")
	}
	res, err := ix.store.DB().ExecContext(ctx,
		`INSERT INTO knowledge_documents (tenant_id, title, content, category)
		 VALUES (?, ?, ?, ?)`,
		tenantID, doc.Title, doc.Content, doc.Category)
	if err != nil {
		return 0, fmt.Errorf("failed to index document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get document id: %w", err)
	}
	return id, nil
}

// IndexAll adds a batch of documents for a tenant, stopping at the first
// failure.
func (ix *Indexer) IndexAll(ctx context.Context, tenantID string, docs []Document) error {
	for _, doc := range docs {
		if _, err := ix.Index(ctx, tenantID, doc); err != nil {
			return fmt.Errorf("failed to index %q: %w", doc.Title, err)
		}
	}
	return nil
}
