package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

func tempNotebook(t *testing.T) *File {
	t.Helper()
	nb, err := NewTemporary(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemporary: %v", err)
	}
	return nb
}

func TestNewTemporarySeedsDefaultConsole(t *testing.T) {
	nb := tempNotebook(t)

	if !nb.IsTemporary() {
		t.Error("fresh notebook should be temporary")
	}
	items := nb.Items()
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].Name != "Console 1" || items[0].Type != models.ItemConsole {
		t.Errorf("seed item = %+v", items[0])
	}
	if !strings.HasPrefix(filepath.Base(nb.CurrentPath()), "untitled-") {
		t.Errorf("scratch path = %q", nb.CurrentPath())
	}
}

func TestPersistAndOpenRoundTrip(t *testing.T) {
	nb := tempNotebook(t)
	if err := nb.AddItem("Cleanup", models.ItemScript, "delete from logs;"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := nb.FlushItem("Console 1", "select 1;"); err != nil {
		t.Fatalf("FlushItem: %v", err)
	}
	if err := nb.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	opened, err := Open(nb.CurrentPath())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	items := opened.Items()
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Text != "select 1;" {
		t.Errorf("console text = %q", items[0].Text)
	}
	if items[1].Name != "Cleanup" || items[1].Type != models.ItemScript {
		t.Errorf("script item = %+v", items[1])
	}
	if opened.IsTemporary() {
		t.Error("an opened notebook is never temporary")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.rnb"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.rnb")
	doc := "version: 1\nitems:\n  - name: X\n    type: diagram\n    text: \"\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for unknown item type")
	}
}

func TestOpenRejectsDuplicateNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.rnb")
	doc := "version: 1\nitems:\n  - {name: A, type: console, text: \"\"}\n  - {name: A, type: note, text: \"\"}\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for duplicate item names")
	}
}

func TestFlushUnknownNameIsNoop(t *testing.T) {
	nb := tempNotebook(t)
	if err := nb.FlushItem("ghost", "text"); err != nil {
		t.Errorf("FlushItem: %v", err)
	}
	if len(nb.Items()) != 1 {
		t.Error("flush must not create items")
	}
}

func TestMoveToPromotes(t *testing.T) {
	nb := tempNotebook(t)
	scratch := nb.CurrentPath()

	target := filepath.Join(t.TempDir(), "sub", "report.rnb")
	if err := nb.MoveTo(target); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}

	if nb.IsTemporary() {
		t.Error("notebook should no longer be temporary")
	}
	if nb.CurrentPath() != target {
		t.Errorf("path = %q, want %q", nb.CurrentPath(), target)
	}
	if _, err := os.Stat(target); err != nil {
		t.Errorf("target file missing: %v", err)
	}
	if _, err := os.Stat(scratch); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scratch file should be removed, stat err = %v", err)
	}
}

func TestPersistRecordsChecksum(t *testing.T) {
	nb := tempNotebook(t)
	if nb.LastPersistChecksum() != "" {
		t.Error("checksum should be empty before first persist")
	}
	if err := nb.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	sum := nb.LastPersistChecksum()
	if sum == "" {
		t.Fatal("checksum should be set after persist")
	}
	if err := nb.Persist(); err != nil {
		t.Fatalf("second Persist: %v", err)
	}
	if nb.LastPersistChecksum() != sum {
		t.Error("unchanged notebook should persist to the same checksum")
	}
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	nb, err := NewTemporary(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := nb.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".raido-tmp-") {
			t.Errorf("leftover temp file %q", e.Name())
		}
	}
}

func TestRenameKeepsPosition(t *testing.T) {
	nb := tempNotebook(t)
	_ = nb.AddItem("B", models.ItemNote, "")
	_ = nb.AddItem("C", models.ItemScript, "")

	if err := nb.RenameItem("B", "B2"); err != nil {
		t.Fatalf("RenameItem: %v", err)
	}
	items := nb.Items()
	if items[1].Name != "B2" || items[1].Type != models.ItemNote {
		t.Errorf("items = %v, want B2 in place", items)
	}

	if err := nb.RenameItem("B2", "C"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
	if err := nb.RenameItem("ghost", "X"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRemoveItemReindexes(t *testing.T) {
	nb := tempNotebook(t)
	_ = nb.AddItem("B", models.ItemNote, "b")
	_ = nb.AddItem("C", models.ItemScript, "c")

	if err := nb.RemoveItem("Console 1"); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	items := nb.Items()
	if len(items) != 2 || items[0].Name != "B" || items[1].Name != "C" {
		t.Fatalf("items = %v", items)
	}
	// The survivors must still be addressable after reindexing.
	if err := nb.FlushItem("C", "c2"); err != nil {
		t.Fatalf("FlushItem: %v", err)
	}
	data, err := nb.ReadItem("C")
	if err != nil {
		t.Fatalf("ReadItem: %v", err)
	}
	if data.Text != "c2" {
		t.Errorf("text = %q, want c2", data.Text)
	}
}

func TestAddDuplicate(t *testing.T) {
	nb := tempNotebook(t)
	if err := nb.AddItem("Console 1", models.ItemConsole, ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
	if err := nb.AddItem("X", "bogus", ""); err == nil {
		t.Error("expected error for unknown type")
	}
}
