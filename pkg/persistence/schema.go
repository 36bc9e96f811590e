package persistence

import (
	"database/sql"
	"fmt"
)

// CurrentSchemaVersion tracks the schema for migration support.
const CurrentSchemaVersion = 1

// createSchema creates all tables if absent. Idempotent.
func createSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			call_id TEXT NOT NULL,
			customer_name TEXT,
			customer_phone TEXT,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			guests INTEGER NOT NULL DEFAULT 1,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_tenant
			ON reservations(tenant_id, status)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			call_id TEXT NOT NULL,
			customer_name TEXT,
			customer_phone TEXT,
			items TEXT NOT NULL,
			notes TEXT,
			status TEXT NOT NULL DEFAULT 'received',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS caller_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			call_id TEXT NOT NULL,
			caller_name TEXT,
			caller_phone TEXT,
			body TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS tool_audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			call_id TEXT NOT NULL,
			tool_name TEXT NOT NULL,
			params TEXT,
			success INTEGER NOT NULL,
			error TEXT,
			executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS knowledge_documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			category TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		// FTS5 index over knowledge content, kept in sync by triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
			title, content,
			content='knowledge_documents',
			content_rowid='id'
		)`,
		`CREATE TRIGGER IF NOT EXISTS knowledge_ai AFTER INSERT ON knowledge_documents BEGIN
			INSERT INTO knowledge_fts(rowid, title, content)
			VALUES (new.id, new.title, new.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS knowledge_ad AFTER DELETE ON knowledge_documents BEGIN
			INSERT INTO knowledge_fts(knowledge_fts, rowid, title, content)
			VALUES ('delete', old.id, old.title, old.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS knowledge_au AFTER UPDATE ON knowledge_documents BEGIN
			INSERT INTO knowledge_fts(knowledge_fts, rowid, title, content)
			VALUES ('delete', old.id, old.title, old.content);
			INSERT INTO knowledge_fts(rowid, title, content)
			VALUES (new.id, new.title, new.content);
		END`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	if _, err := db.Exec(
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`,
		CurrentSchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
