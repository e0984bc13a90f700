package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// entry is one live window: the item identity plus the document whose Text
// method is the pull accessor for flushes.
type entry struct {
	item *models.Item
	doc  document.Document
}

func (e *entry) view() models.ItemView {
	return models.ItemView{
		ID:    e.item.ID(),
		Type:  e.item.Type(),
		Name:  e.item.Name(),
		Title: e.doc.Title(),
		Open:  true,
	}
}

// registry maps open item identities to their windows and enforces
// at-most-one-window-per-item. It is owned by the session loop and never
// accessed concurrently.
type registry struct {
	factory document.Factory
	store   store.Notebook
	pres    Presenter
	logger  *slog.Logger
	entries map[string]*entry // keyed by item handle
}

func newRegistry(factory document.Factory, st store.Notebook, pres Presenter, logger *slog.Logger) *registry {
	return &registry{
		factory: factory,
		store:   st,
		pres:    pres,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

// open shows a window for the item. If one is already live it is activated
// and never duplicated. A factory rejection (malformed type) is a silent
// no-op per the caller contract.
func (r *registry) open(it *models.Item) {
	if e, ok := r.entries[it.ID()]; ok {
		r.pres.WindowActivated(e.view())
		return
	}

	text := ""
	if data, err := r.store.ReadItem(it.Name()); err == nil {
		text = data.Text
	} else if !errors.Is(err, apperr.ErrNotFound) {
		r.logger.Warn("registry: read item failed", slog.String("item", it.Name()), slog.String("error", err.Error()))
	}

	doc, ok := r.factory.Create(it.Type(), it.Name(), text)
	if !ok {
		r.logger.Warn("registry: rejected item with unknown type",
			slog.String("item", it.Name()), slog.String("type", string(it.Type())))
		return
	}

	e := &entry{item: it, doc: doc}
	r.entries[it.ID()] = e
	r.pres.WindowOpened(e.view())
}

// requestClose asks the item's window to close, which runs the same
// flush-then-remove path as an asynchronous window-closed notification.
// No-op if the item is not open.
func (r *registry) requestClose(it *models.Item) {
	r.handleClosed(it)
}

// handleClosed flushes the window's last text to the store, then removes
// the entry. The flush happens strictly before removal so no edit is lost.
func (r *registry) handleClosed(it *models.Item) {
	e, ok := r.entries[it.ID()]
	if !ok {
		return
	}
	if err := r.store.FlushItem(e.item.Name(), e.doc.Text()); err != nil {
		r.logger.Warn("registry: flush on close failed",
			slog.String("item", e.item.Name()), slog.String("error", err.Error()))
	}
	view := e.view()
	delete(r.entries, it.ID())
	view.Open = false
	r.pres.WindowClosed(view)
}

// renamed refreshes the window title after the item was renamed in place.
// The entry itself is untouched: identity keys survive renames.
func (r *registry) renamed(it *models.Item) {
	e, ok := r.entries[it.ID()]
	if !ok {
		return
	}
	e.doc.SetTitle(document.WindowTitle(it.Type(), it.Name()))
	r.pres.WindowRetitled(e.view())
}

// flushAll writes every open window's current text back to the store.
// Called before any persist so nothing is saved from a stale copy.
func (r *registry) flushAll() error {
	for _, e := range r.entries {
		if err := r.store.FlushItem(e.item.Name(), e.doc.Text()); err != nil {
			return fmt.Errorf("flush %q: %w", e.item.Name(), err)
		}
	}
	return nil
}

func (r *registry) get(it *models.Item) (document.Document, bool) {
	e, ok := r.entries[it.ID()]
	if !ok {
		return nil, false
	}
	return e.doc, true
}

func (r *registry) openCount() int { return len(r.entries) }
