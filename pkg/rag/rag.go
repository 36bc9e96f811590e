// Package rag retrieves tenant knowledge documents for grounding responses.
// Search runs over a SQLite FTS5 index of the tenant's documents.
package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"concierge/pkg/persistence"
	"concierge/pkg/proto"
)

// Retriever looks up knowledge relevant to a caller's question.
type Retriever interface {
	Retrieve(ctx context.Context, tenantID, query string, maxResults int) (*proto.RAGResult, error)
}

// Document is one knowledge entry belonging to a tenant.
type Document struct {
	Title    string
	Content  string
	Category string
}

// SQLiteRetriever searches the knowledge_documents FTS5 index.
type SQLiteRetriever struct {
	store *persistence.Store
}

// NewSQLiteRetriever creates a retriever backed by the given store.
func NewSQLiteRetriever(store *persistence.Store) *SQLiteRetriever {
	return &SQLiteRetriever{store: store}
}

// Retrieve searches the tenant's documents and returns the top matches
// joined into a context block, ordered by relevance. An empty query or no
// matches yields a successful result with empty context.
func (r *SQLiteRetriever) Retrieve(ctx context.Context, tenantID, query string, maxResults int) (*proto.RAGResult, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	start := time.Now()

	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return &proto.RAGResult{Success: true, Latency: time.Since(start)}, nil
	}

	rows, err := r.store.DB().QueryContext(ctx, `
		SELECT d.title, d.content
		FROM knowledge_fts f
		JOIN knowledge_documents d ON d.id = f.rowid
		WHERE knowledge_fts MATCH ?
		  AND d.tenant_id = ?
		ORDER BY rank
		LIMIT ?
	`, ftsQuery, tenantID, maxResults)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer rows.Close()

	var sections []string
	var sources []string
	for rows.Next() {
		var title, content string
		if err := rows.Scan(&title, &content); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		sections = append(sections, fmt.Sprintf("## %s\n%s", title, content))
		sources = append(sources, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document iteration error: %w", err)
	}

	return &proto.RAGResult{
		Context: strings.Join(sections, "\n\n"),
		Sources: sources,
		Success: true,
		Latency: time.Since(start),
	}, nil
}

// buildFTSQuery converts free text into an OR-joined FTS5 match expression.
// Terms are quoted so punctuation in user speech cannot break the query.
func buildFTSQuery(query string) string {
	terms := ExtractSearchTerms(query)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, ``) + `"`
	}
	return strings.Join(quoted, " OR ")
}
