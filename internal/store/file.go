package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/models"
)

// notebookDoc is the on-disk YAML layout of a notebook file.
type notebookDoc struct {
	Version int               `yaml:"version"`
	Items   []models.ItemData `yaml:"items"`
}

const docVersion = 1

// File implements Notebook backed by a single YAML file.
//
// Items live in memory between flushes; Persist writes the whole document
// atomically (tmp file → fsync → rename), so a failed persist never leaves
// a partially written notebook behind.
type File struct {
	mu        sync.Mutex
	path      string
	temporary bool
	items     []models.ItemData
	index     map[string]int // name → position in items
	lastSum   string         // checksum of the last persisted document
}

// NewTemporary creates an untitled notebook backed by a scratch file in dir
// (os.TempDir when dir is empty). The notebook is seeded with one default
// console item; nothing is written to disk until Persist.
func NewTemporary(dir string) (*File, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create scratch dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "untitled-*.rnb")
	if err != nil {
		return nil, fmt.Errorf("store: create scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("store: close scratch file: %w", err)
	}

	f := &File{
		path:      tmp.Name(),
		temporary: true,
		index:     make(map[string]int),
	}
	f.append(models.ItemData{Name: "Console 1", Type: models.ItemConsole, Text: ""})
	return f, nil
}

// Open loads an existing notebook file.
func Open(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("store: resolve path: %w", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("store: open %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	var doc notebookDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", path, err)
	}

	f := &File{path: abs, index: make(map[string]int)}
	for _, it := range doc.Items {
		if !it.Type.Valid() {
			return nil, fmt.Errorf("store: %s: unknown item type %q", path, it.Type)
		}
		if _, dup := f.index[it.Name]; dup {
			return nil, fmt.Errorf("store: %s: duplicate item %q", path, it.Name)
		}
		f.append(it)
	}
	return f, nil
}

// append assumes f.mu is held (or the store is not yet shared).
func (f *File) append(it models.ItemData) {
	f.index[it.Name] = len(f.items)
	f.items = append(f.items, it)
}

// FlushItem updates the in-memory text of an item. Flushing a name that is
// not in the notebook is a no-op rather than an error: the entry was removed
// structurally while its window was still open.
func (f *File) FlushItem(name, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	f.items[i].Text = text
	return nil
}

// Persist atomically writes the notebook document to the current path.
func (f *File) Persist() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.persistTo(f.path)
}

// persistTo assumes f.mu is held.
func (f *File) persistTo(path string) error {
	doc := notebookDoc{Version: docVersion, Items: f.items}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("store: encode notebook: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".raido-tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("store: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("store: rename: %w", err)
	}
	success = true
	f.lastSum = checksum.Sum(data)
	return nil
}

// LastPersistChecksum returns the checksum of the document most recently
// written by this process, or empty before the first persist. The external
// change watcher uses it to ignore our own writes.
func (f *File) LastPersistChecksum() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSum
}

// MoveTo writes the notebook at path and rebinds the store to it. The old
// scratch file is removed once the new file is durably in place.
func (f *File) MoveTo(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("store: resolve target: %w", err)
	}
	if err := f.persistTo(abs); err != nil {
		return err
	}
	if f.temporary && f.path != abs {
		_ = os.Remove(f.path)
	}
	f.path = abs
	f.temporary = false
	return nil
}

// CurrentPath returns the current backing location.
func (f *File) CurrentPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// IsTemporary reports whether the notebook has never been saved to a
// user-chosen path.
func (f *File) IsTemporary() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.temporary
}

// AddItem adds a new item at the end of the notebook.
func (f *File) AddItem(name string, kind models.ItemType, text string) error {
	if !kind.Valid() {
		return fmt.Errorf("store: item %q: unknown type %q", name, kind)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.index[name]; dup {
		return fmt.Errorf("store: item %q: %w", name, apperr.ErrAlreadyExists)
	}
	f.append(models.ItemData{Name: name, Type: kind, Text: text})
	return nil
}

// RenameItem renames an item in place, keeping its notebook position.
func (f *File) RenameItem(oldName, newName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[oldName]
	if !ok {
		return fmt.Errorf("store: item %q: %w", oldName, apperr.ErrNotFound)
	}
	if oldName == newName {
		return nil
	}
	if _, dup := f.index[newName]; dup {
		return fmt.Errorf("store: item %q: %w", newName, apperr.ErrAlreadyExists)
	}
	delete(f.index, oldName)
	f.items[i].Name = newName
	f.index[newName] = i
	return nil
}

// RemoveItem deletes an item from the notebook.
func (f *File) RemoveItem(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[name]
	if !ok {
		return fmt.Errorf("store: item %q: %w", name, apperr.ErrNotFound)
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	delete(f.index, name)
	for n, j := range f.index {
		if j > i {
			f.index[n] = j - 1
		}
	}
	return nil
}

// ReadItem returns the stored data for one item.
func (f *File) ReadItem(name string) (models.ItemData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[name]
	if !ok {
		return models.ItemData{}, fmt.Errorf("store: item %q: %w", name, apperr.ErrNotFound)
	}
	return f.items[i], nil
}

// Items returns a copy of all items in notebook order.
func (f *File) Items() []models.ItemData {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ItemData, len(f.items))
	copy(out, f.items)
	return out
}
