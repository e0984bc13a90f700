// Package models defines the domain types for Raido.
package models

import "github.com/google/uuid"

// ItemType classifies a notebook entry.
type ItemType string

// The three supported item types. Anything else is a caller bug.
const (
	ItemConsole ItemType = "console"
	ItemScript  ItemType = "script"
	ItemNote    ItemType = "note"
)

// Valid reports whether t is one of the supported item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemConsole, ItemScript, ItemNote:
		return true
	}
	return false
}

// Item is the stable identity of one notebook entry. The handle (ID) never
// changes; the name is a mutable attribute, so structures keyed by ID stay
// valid across renames.
type Item struct {
	id   string
	kind ItemType
	name string
}

// NewItem creates an item identity with a fresh handle.
func NewItem(kind ItemType, name string) *Item {
	return &Item{id: uuid.NewString(), kind: kind, name: name}
}

// ID returns the stable handle.
func (it *Item) ID() string { return it.id }

// Type returns the item type.
func (it *Item) Type() ItemType { return it.kind }

// Name returns the current display name.
func (it *Item) Name() string { return it.name }

// SetName renames the item in place. The identity is unchanged.
func (it *Item) SetName(name string) { it.name = name }

// ItemData is the persisted form of an item as held by the notebook store.
type ItemData struct {
	Name string   `yaml:"name" json:"name"`
	Type ItemType `yaml:"type" json:"type"`
	Text string   `yaml:"text" json:"text"`
}

// ItemView is a read-only snapshot of an item handed to presenters and
// API responses.
type ItemView struct {
	ID    string   `json:"id"`
	Type  ItemType `json:"type"`
	Name  string   `json:"name"`
	Title string   `json:"title"`
	Open  bool     `json:"open"`
}
