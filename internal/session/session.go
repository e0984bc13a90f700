// Package session implements the document session and save-orchestration
// core: which notebook items are open, the single session-wide dirty flag,
// the multi-step save protocol, and the close-confirmation gate.
//
// Concurrency model: a single internal goroutine owns the registry, the
// item listing, and both session flags. Public methods post commands into
// that loop and wait, so all mutations are strictly serialized — including
// window-close notifications arriving asynchronously, and saves, which can
// never interleave.
package session

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/store"
)

// Deps carries the session's collaborators.
type Deps struct {
	Store   store.Notebook
	Factory document.Factory
	// Presenter receives window and title updates. Optional.
	Presenter Presenter
	// Rescan is the structural-rescan collaborator, invoked after renames
	// and other structural changes to the item listing. Optional.
	Rescan func()
	Logger *slog.Logger
	// Untitled marks a freshly created notebook that has never been saved
	// to a user-chosen path. Such a session starts dirty: its default
	// content is not yet persisted anywhere durable.
	Untitled bool
}

// Status is a read-only snapshot of the session.
type Status struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Untitled bool   `json:"untitled"`
	Dirty    bool   `json:"dirty"`
	Open     int    `json:"open_windows"`
}

// Session is the document session for one notebook.
type Session struct {
	store  store.Notebook
	reg    *registry
	dirty  *tracker
	pres   Presenter
	rescan func()
	logger *slog.Logger

	untitled bool
	saving   bool
	items    map[string]*models.Item // name → identity

	calls   chan func()
	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New builds a session over the notebook store and starts its loop.
func New(deps Deps) (*Session, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("session: store is required")
	}
	if deps.Factory == nil {
		return nil, fmt.Errorf("session: document factory is required")
	}
	if deps.Presenter == nil {
		deps.Presenter = NopPresenter{}
	}
	if deps.Rescan == nil {
		deps.Rescan = func() {}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := &Session{
		store:    deps.Store,
		pres:     deps.Presenter,
		rescan:   deps.Rescan,
		logger:   deps.Logger,
		untitled: deps.Untitled,
		items:    make(map[string]*models.Item),
		calls:    make(chan func()),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.reg = newRegistry(deps.Factory, deps.Store, deps.Presenter, deps.Logger)
	s.dirty = newTracker(func(dirty bool) {
		s.pres.SessionTitle(s.displayTitle(), dirty)
	})

	for _, data := range deps.Store.Items() {
		s.items[data.Name] = models.NewItem(data.Type, data.Name)
	}

	if deps.Untitled {
		s.dirty.markDirty()
	} else {
		s.refreshTitle()
	}

	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stopCh:
			return
		case fn := <-s.calls:
			fn()
		}
	}
}

// do posts fn to the session loop and waits for it to run.
func (s *Session) do(fn func()) error {
	if s.closed.Load() {
		return apperr.ErrSessionClosed
	}
	done := make(chan struct{})
	select {
	case s.calls <- func() { fn(); close(done) }:
	case <-s.stopped:
		return apperr.ErrSessionClosed
	}
	select {
	case <-done:
	case <-s.stopped:
		return apperr.ErrSessionClosed
	}
	return nil
}

// Close stops the session loop. It does not run the close-confirmation
// flow; callers decide that first via ConfirmClose.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	<-s.stopped
}

// OpenItem opens a window for the named item, or activates the existing
// one. Items with a malformed type are rejected silently.
func (s *Session) OpenItem(name string) error {
	var opErr error
	if err := s.do(func() {
		it, ok := s.items[name]
		if !ok {
			opErr = fmt.Errorf("open %q: %w", name, apperr.ErrNotFound)
			return
		}
		s.reg.open(it)
	}); err != nil {
		return err
	}
	return opErr
}

// CloseItem closes the named item's window: its last text is flushed to
// the store before the entry is removed. Closing an item that is not open
// is a no-op.
func (s *Session) CloseItem(name string) error {
	var opErr error
	if err := s.do(func() {
		it, ok := s.items[name]
		if !ok {
			opErr = fmt.Errorf("close %q: %w", name, apperr.ErrNotFound)
			return
		}
		s.reg.requestClose(it)
	}); err != nil {
		return err
	}
	return opErr
}

// RenameItem renames an item in place. An open window keeps its entry and
// identity; only the displayed title changes. Renames are structural, so
// the session becomes dirty and the listing is rescanned.
func (s *Session) RenameItem(oldName, newName string) error {
	var opErr error
	if err := s.do(func() {
		it, ok := s.items[oldName]
		if !ok {
			opErr = fmt.Errorf("rename %q: %w", oldName, apperr.ErrNotFound)
			return
		}
		if oldName == newName {
			return
		}
		if _, dup := s.items[newName]; dup {
			opErr = fmt.Errorf("rename to %q: %w", newName, apperr.ErrAlreadyExists)
			return
		}
		if err := s.store.RenameItem(oldName, newName); err != nil {
			opErr = err
			return
		}
		it.SetName(newName)
		delete(s.items, oldName)
		s.items[newName] = it
		s.reg.renamed(it)
		s.dirty.markDirty()
		s.rescan()
	}); err != nil {
		return err
	}
	return opErr
}

// AddItem creates a new item in the notebook. Structural mutation: the
// session becomes dirty.
func (s *Session) AddItem(kind models.ItemType, name, text string) error {
	if !kind.Valid() {
		return fmt.Errorf("add %q: unknown item type %q", name, kind)
	}
	var opErr error
	if err := s.do(func() {
		if _, dup := s.items[name]; dup {
			opErr = fmt.Errorf("add %q: %w", name, apperr.ErrAlreadyExists)
			return
		}
		if err := s.store.AddItem(name, kind, text); err != nil {
			opErr = err
			return
		}
		s.items[name] = models.NewItem(kind, name)
		s.dirty.markDirty()
		s.rescan()
	}); err != nil {
		return err
	}
	return opErr
}

// RemoveItem deletes an item. An open window is closed first; its content
// is discarded with the item.
func (s *Session) RemoveItem(name string) error {
	var opErr error
	if err := s.do(func() {
		it, ok := s.items[name]
		if !ok {
			opErr = fmt.Errorf("remove %q: %w", name, apperr.ErrNotFound)
			return
		}
		s.reg.requestClose(it)
		if err := s.store.RemoveItem(name); err != nil {
			opErr = err
			return
		}
		delete(s.items, name)
		s.dirty.markDirty()
		s.rescan()
	}); err != nil {
		return err
	}
	return opErr
}

// Edit replaces an open document's in-memory text and marks the session
// dirty. The store is untouched until the next flush.
func (s *Session) Edit(name, text string) error {
	var opErr error
	if err := s.do(func() {
		it, ok := s.items[name]
		if !ok {
			opErr = fmt.Errorf("edit %q: %w", name, apperr.ErrNotFound)
			return
		}
		doc, open := s.reg.get(it)
		if !open {
			opErr = fmt.Errorf("edit %q: %w", name, apperr.ErrNotOpen)
			return
		}
		doc.SetText(text)
		s.dirty.markDirty()
	}); err != nil {
		return err
	}
	return opErr
}

// MarkChanged is the collaborator-reported "something changed"
// notification. Idempotent.
func (s *Session) MarkChanged() {
	_ = s.do(func() { s.dirty.markDirty() })
}

// Save runs the save protocol: flush, persist, promote (when untitled),
// commit. A save arriving while one is already executing is rejected with
// apperr.ErrSaveInFlight rather than interleaved.
func (s *Session) Save(prompt PathPrompter) SaveOutcome {
	if prompt == nil {
		prompt = NoPath()
	}
	var out SaveOutcome
	if err := s.do(func() { out = s.save(prompt) }); err != nil {
		return failed(err)
	}
	return out
}

// save assumes it runs on the session loop.
func (s *Session) save(prompt PathPrompter) SaveOutcome {
	if s.saving {
		return failed(apperr.ErrSaveInFlight)
	}
	s.saving = true
	defer func() { s.saving = false }()

	s.pres.SaveStarted()
	out := s.runSaveProtocol(prompt)
	s.pres.SaveFinished(out)

	if out.Status == SaveFailed {
		s.logger.Error("session: save failed", slog.String("error", out.Err.Error()))
	} else {
		s.logger.Info("session: save finished", slog.String("status", out.Status.String()))
	}
	return out
}

// ConfirmClose runs the close-confirmation flow and reports whether the
// session may close now.
func (s *Session) ConfirmClose(prompter Prompter, paths PathPrompter) CloseDecision {
	if prompter == nil {
		prompter = StaticChoice(ChoiceCancel)
	}
	if paths == nil {
		paths = NoPath()
	}
	dec := Abort
	if err := s.do(func() { dec = s.confirmClose(prompter, paths) }); err != nil {
		return Abort
	}
	return dec
}

// Items returns the notebook listing in store order, with live window
// state merged in.
func (s *Session) Items() []models.ItemView {
	var out []models.ItemView
	_ = s.do(func() {
		for _, data := range s.store.Items() {
			view := models.ItemView{
				Type:  data.Type,
				Name:  data.Name,
				Title: document.WindowTitle(data.Type, data.Name),
			}
			if it, ok := s.items[data.Name]; ok {
				view.ID = it.ID()
				if doc, open := s.reg.get(it); open {
					view.Open = true
					view.Title = doc.Title()
				}
			}
			out = append(out, view)
		}
	})
	return out
}

// ItemText returns the item's live text when its window is open, otherwise
// the stored text.
func (s *Session) ItemText(name string) (string, error) {
	var text string
	var opErr error
	if err := s.do(func() {
		it, ok := s.items[name]
		if !ok {
			opErr = fmt.Errorf("read %q: %w", name, apperr.ErrNotFound)
			return
		}
		if doc, open := s.reg.get(it); open {
			text = doc.Text()
			return
		}
		data, err := s.store.ReadItem(name)
		if err != nil {
			opErr = err
			return
		}
		text = data.Text
	}); err != nil {
		return "", err
	}
	return text, opErr
}

// Status returns a snapshot of the session flags.
func (s *Session) Status() Status {
	var st Status
	_ = s.do(func() {
		st = Status{
			Path:     s.store.CurrentPath(),
			Title:    s.displayTitle(),
			Untitled: s.untitled,
			Dirty:    s.dirty.isDirty(),
			Open:     s.reg.openCount(),
		}
	})
	return st
}

// displayTitle assumes it runs on the session loop (or before it starts).
func (s *Session) displayTitle() string {
	if s.untitled {
		return "Untitled"
	}
	return filepath.Base(s.store.CurrentPath())
}

func (s *Session) refreshTitle() {
	s.pres.SessionTitle(s.displayTitle(), s.dirty.isDirty())
}
