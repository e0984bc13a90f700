// Package testutil provides shared test helpers for setting up notebooks and databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// QuietLogger returns a logger that discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNotebook creates a temporary untitled notebook store seeded with the
// default console item.
func TestNotebook(t *testing.T) *store.File {
	t.Helper()
	nb, err := store.NewTemporary(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemporary: %v", err)
	}
	return nb
}

// SavedNotebook writes a notebook file with the given items and opens it as
// a non-temporary store.
func SavedNotebook(t *testing.T, items ...models.ItemData) *store.File {
	t.Helper()
	nb, err := store.NewTemporary(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemporary: %v", err)
	}
	_ = nb.RemoveItem("Console 1")
	for _, it := range items {
		if err := nb.AddItem(it.Name, it.Type, it.Text); err != nil {
			t.Fatalf("AddItem %q: %v", it.Name, err)
		}
	}
	path := filepath.Join(t.TempDir(), "notebook.rnb")
	if err := nb.MoveTo(path); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	opened, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return opened
}
