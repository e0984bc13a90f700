// Package store defines the notebook persistence abstraction.
//
// A Notebook holds the full set of items for one session and owns the
// backing location: a scratch file under the user's state directory while
// the notebook is untitled, or a user-chosen path after save-as promotion.
package store

import "github.com/starford/raido/internal/models"

// Notebook is the interface the session core depends on for persistence.
//
// Persist must be atomic: if it fails, the previous on-disk state stays
// intact. MoveTo rebinds the notebook to a permanent path and clears the
// temporary backing.
type Notebook interface {
	// FlushItem writes the current in-memory text of an item back into the
	// notebook (by name). It does not touch disk.
	FlushItem(name, text string) error
	// Persist writes all item data to the current backing location.
	Persist() error
	// MoveTo persists the notebook at path and makes it the new backing
	// location. The previous temporary file, if any, is removed.
	MoveTo(path string) error
	// CurrentPath returns the current backing location.
	CurrentPath() string
	// IsTemporary reports whether the notebook is still backed by a
	// scratch file (never saved to a user-chosen path).
	IsTemporary() bool

	// AddItem adds a new item. The name must be unused.
	AddItem(name string, kind models.ItemType, text string) error
	// RenameItem renames an item in place.
	RenameItem(oldName, newName string) error
	// RemoveItem deletes an item.
	RemoveItem(name string) error
	// ReadItem returns the stored data for one item.
	ReadItem(name string) (models.ItemData, error)
	// Items returns all items in notebook order.
	Items() []models.ItemData
}
