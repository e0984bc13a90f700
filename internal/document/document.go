// Package document builds the type-specific in-memory documents that back
// open item windows.
package document

import (
	"fmt"

	"github.com/starford/raido/internal/models"
)

// Document is one open item's editable content. Text is the pull accessor
// the session uses to flush the latest state back to the notebook store.
type Document interface {
	Title() string
	SetTitle(title string)
	Text() string
	SetText(text string)
}

// Factory constructs a document for an item. It supports exactly the three
// item types; ok is false for anything else (caller contract violation).
type Factory interface {
	Create(kind models.ItemType, name, text string) (doc Document, ok bool)
}

// textDocument is the shared in-memory implementation; the kind only
// affects title decoration and the empty-document scaffold.
type textDocument struct {
	kind  models.ItemType
	title string
	text  string
}

func (d *textDocument) Title() string         { return d.title }
func (d *textDocument) SetTitle(title string) { d.title = title }
func (d *textDocument) Text() string          { return d.text }
func (d *textDocument) SetText(text string)   { d.text = text }

// StdFactory is the default Factory.
type StdFactory struct{}

// Create builds a document for the given item type, seeding empty items
// with a minimal type-specific scaffold.
func (StdFactory) Create(kind models.ItemType, name, text string) (Document, bool) {
	if !kind.Valid() {
		return nil, false
	}
	if text == "" {
		text = scaffold(kind, name)
	}
	return &textDocument{kind: kind, title: WindowTitle(kind, name), text: text}, true
}

// WindowTitle is the display title for an item window.
func WindowTitle(kind models.ItemType, name string) string {
	switch kind {
	case models.ItemConsole:
		return fmt.Sprintf("%s — SQL Console", name)
	case models.ItemScript:
		return fmt.Sprintf("%s — Script", name)
	case models.ItemNote:
		return fmt.Sprintf("%s — Note", name)
	}
	return name
}

func scaffold(kind models.ItemType, name string) string {
	switch kind {
	case models.ItemConsole, models.ItemScript:
		return fmt.Sprintf("-- %s\n", name)
	case models.ItemNote:
		return fmt.Sprintf("# %s\n", name)
	}
	return ""
}
