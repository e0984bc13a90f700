package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/raido/internal/models"
)

// ItemRow represents a row in the items table.
type ItemRow struct {
	Name      string
	Kind      models.ItemType
	Title     string
	Checksum  string
	Tags      []string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Name    string          `json:"name"`
	Kind    models.ItemType `json:"kind"`
	Title   string          `json:"title"`
	Snippet string          `json:"snippet"`
}

// UpsertItem inserts or replaces an item row and its FTS entry within a
// transaction.
func (db *DB) UpsertItem(row ItemRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(row.Tags)

	_, err = tx.Exec(`
		INSERT INTO items (name, kind, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			kind       = excluded.kind,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, row.Name, string(row.Kind), row.Title, row.Checksum, string(tagsJSON), body, row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert item: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, row.Name, row.Title, body, row.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteItem removes an item row and its FTS entry.
func (db *DB) DeleteItem(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, name)
	_, _ = tx.Exec(`DELETE FROM items WHERE name = ?`, name)

	return tx.Commit()
}

// AllChecksums returns name → checksum for every indexed item.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM items`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}
