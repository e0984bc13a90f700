package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/document"
	"github.com/starford/raido/internal/models"
)

// fakeStore is an in-memory store.Notebook with failure injection and call
// recording.
type fakeStore struct {
	items     []models.ItemData
	path      string
	temporary bool

	flushes      []flushCall
	persistCount int
	movedTo      string

	flushErr   error
	persistErr error
	moveErr    error
}

type flushCall struct {
	name string
	text string
}

func newFakeStore(items ...models.ItemData) *fakeStore {
	return &fakeStore{items: items, path: "/tmp/untitled-1.rnb", temporary: true}
}

func (f *fakeStore) find(name string) int {
	for i, it := range f.items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

func (f *fakeStore) FlushItem(name, text string) error {
	if f.flushErr != nil {
		return f.flushErr
	}
	f.flushes = append(f.flushes, flushCall{name: name, text: text})
	if i := f.find(name); i >= 0 {
		f.items[i].Text = text
	}
	return nil
}

func (f *fakeStore) Persist() error {
	if f.persistErr != nil {
		return f.persistErr
	}
	f.persistCount++
	return nil
}

func (f *fakeStore) MoveTo(path string) error {
	if f.moveErr != nil {
		return f.moveErr
	}
	f.movedTo = path
	f.path = path
	f.temporary = false
	return nil
}

func (f *fakeStore) CurrentPath() string { return f.path }
func (f *fakeStore) IsTemporary() bool   { return f.temporary }

func (f *fakeStore) AddItem(name string, kind models.ItemType, text string) error {
	if f.find(name) >= 0 {
		return apperr.ErrAlreadyExists
	}
	f.items = append(f.items, models.ItemData{Name: name, Type: kind, Text: text})
	return nil
}

func (f *fakeStore) RenameItem(oldName, newName string) error {
	i := f.find(oldName)
	if i < 0 {
		return apperr.ErrNotFound
	}
	f.items[i].Name = newName
	return nil
}

func (f *fakeStore) RemoveItem(name string) error {
	i := f.find(name)
	if i < 0 {
		return apperr.ErrNotFound
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

func (f *fakeStore) ReadItem(name string) (models.ItemData, error) {
	i := f.find(name)
	if i < 0 {
		return models.ItemData{}, apperr.ErrNotFound
	}
	return f.items[i], nil
}

func (f *fakeStore) Items() []models.ItemData {
	out := make([]models.ItemData, len(f.items))
	copy(out, f.items)
	return out
}

// recorder captures presenter callbacks in order.
type recorder struct {
	events []string
	titles []string
}

func (r *recorder) log(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) WindowOpened(v models.ItemView)    { r.log("opened:%s", v.Name) }
func (r *recorder) WindowActivated(v models.ItemView) { r.log("activated:%s", v.Name) }
func (r *recorder) WindowRetitled(v models.ItemView)  { r.log("retitled:%s", v.Title) }
func (r *recorder) WindowClosed(v models.ItemView)    { r.log("closed:%s", v.Name) }
func (r *recorder) SessionTitle(title string, dirty bool) {
	r.titles = append(r.titles, fmt.Sprintf("%s|dirty=%v", title, dirty))
}
func (r *recorder) SaveStarted()                 { r.log("save-started") }
func (r *recorder) SaveFinished(out SaveOutcome) { r.log("save-finished:%s", out.Status) }

func newTestSession(t *testing.T, st *fakeStore, untitled bool) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	s, err := New(Deps{
		Store:     st,
		Factory:   document.StdFactory{},
		Presenter: rec,
		Untitled:  untitled,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, rec
}

func consoleItems(names ...string) []models.ItemData {
	out := make([]models.ItemData, len(names))
	for i, n := range names {
		out[i] = models.ItemData{Name: n, Type: models.ItemConsole, Text: "select 1"}
	}
	return out
}

func TestOpenTwiceActivatesNotDuplicates(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, rec := newTestSession(t, st, false)

	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("second open: %v", err)
	}

	if got := s.Status().Open; got != 1 {
		t.Errorf("open windows = %d, want 1", got)
	}
	want := []string{"opened:A", "activated:A"}
	if len(rec.events) != 2 || rec.events[0] != want[0] || rec.events[1] != want[1] {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestOpenUnknownItem(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, _ := newTestSession(t, st, false)

	if err := s.OpenItem("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCloseFlushesLastTextBeforeRemoval(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, rec := newTestSession(t, st, false)

	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Edit("A", "X"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := s.CloseItem("A"); err != nil {
		t.Fatalf("close: %v", err)
	}

	if len(st.flushes) != 1 {
		t.Fatalf("flushes = %v, want exactly one", st.flushes)
	}
	if st.flushes[0] != (flushCall{name: "A", text: "X"}) {
		t.Errorf("flush = %+v, want {A X}", st.flushes[0])
	}
	if got := s.Status().Open; got != 0 {
		t.Errorf("open windows = %d, want 0", got)
	}
	if last := rec.events[len(rec.events)-1]; last != "closed:A" {
		t.Errorf("last event = %q, want closed:A", last)
	}
}

func TestCloseNotOpenIsNoop(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, rec := newTestSession(t, st, false)

	if err := s.CloseItem("A"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(st.flushes) != 0 {
		t.Errorf("flushes = %v, want none", st.flushes)
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %v, want none", rec.events)
	}
}

func TestRenameKeepsWindowOpen(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, rec := newTestSession(t, st, false)

	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.RenameItem("A", "B"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	if got := s.Status().Open; got != 1 {
		t.Errorf("open windows = %d, want 1", got)
	}
	// No close/open pair: the window survives, only the title changes.
	for _, ev := range rec.events {
		if ev == "closed:A" || ev == "opened:B" {
			t.Errorf("rename produced %q; want in-place retitle", ev)
		}
	}
	if last := rec.events[len(rec.events)-1]; last != "retitled:B — SQL Console" {
		t.Errorf("last event = %q", last)
	}
	if st.find("B") < 0 || st.find("A") >= 0 {
		t.Errorf("store items = %v, want renamed to B", st.items)
	}
	if !s.Status().Dirty {
		t.Error("rename should mark the session dirty")
	}
}

func TestRenameToExistingName(t *testing.T) {
	st := newFakeStore(consoleItems("A", "B")...)
	s, _ := newTestSession(t, st, false)

	if err := s.RenameItem("A", "B"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRenameSameNameIsNoop(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, _ := newTestSession(t, st, false)

	if err := s.RenameItem("A", "A"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if s.Status().Dirty {
		t.Error("no-op rename should not mark dirty")
	}
}

func TestAddItem(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, _ := newTestSession(t, st, false)

	if err := s.AddItem(models.ItemNote, "Notes", "# Notes\n"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if st.find("Notes") < 0 {
		t.Error("item missing from store")
	}
	if !s.Status().Dirty {
		t.Error("add should mark the session dirty")
	}

	if err := s.AddItem(models.ItemNote, "Notes", ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate add err = %v, want ErrAlreadyExists", err)
	}
	if err := s.AddItem("diagram", "D", ""); err == nil {
		t.Error("expected error for unknown item type")
	}
}

func TestRemoveItemClosesWindowFirst(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, rec := newTestSession(t, st, false)

	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.RemoveItem("A"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if got := s.Status().Open; got != 0 {
		t.Errorf("open windows = %d, want 0", got)
	}
	if st.find("A") >= 0 {
		t.Error("item still in store")
	}
	if last := rec.events[len(rec.events)-1]; last != "closed:A" {
		t.Errorf("last event = %q, want closed:A", last)
	}
}

func TestEditRequiresOpenWindow(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, _ := newTestSession(t, st, false)

	if err := s.Edit("A", "select 2"); !errors.Is(err, apperr.ErrNotOpen) {
		t.Errorf("err = %v, want ErrNotOpen", err)
	}
	if err := s.Edit("missing", "x"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEditMarksDirtyWithoutStoreWrite(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, _ := newTestSession(t, st, false)

	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Edit("A", "select 2"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if !s.Status().Dirty {
		t.Error("edit should mark the session dirty")
	}
	if len(st.flushes) != 0 {
		t.Errorf("edit flushed to store: %v", st.flushes)
	}
	data, _ := st.ReadItem("A")
	if data.Text != "select 1" {
		t.Errorf("store text = %q, want untouched", data.Text)
	}
}

func TestMarkDirtyIsIdempotent(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, rec := newTestSession(t, st, false)

	before := len(rec.titles)
	s.MarkChanged()
	s.MarkChanged()
	s.MarkChanged()

	if got := len(rec.titles) - before; got != 1 {
		t.Errorf("title refreshes = %d, want 1", got)
	}
	if !s.Status().Dirty {
		t.Error("session should be dirty")
	}
}

func TestUntitledSessionStartsDirty(t *testing.T) {
	st := newFakeStore(consoleItems("Console 1")...)
	s, _ := newTestSession(t, st, true)

	status := s.Status()
	if !status.Dirty {
		t.Error("untitled session should start dirty")
	}
	if !status.Untitled {
		t.Error("status should report untitled")
	}
	if status.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", status.Title)
	}
}

func TestItemsMergesLiveWindowState(t *testing.T) {
	st := newFakeStore(consoleItems("A", "B")...)
	s, _ := newTestSession(t, st, false)

	if err := s.OpenItem("B"); err != nil {
		t.Fatalf("open: %v", err)
	}

	items := s.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Name != "A" || items[0].Open {
		t.Errorf("item A = %+v, want closed", items[0])
	}
	if items[1].Name != "B" || !items[1].Open {
		t.Errorf("item B = %+v, want open", items[1])
	}
	if items[1].Title != "B — SQL Console" {
		t.Errorf("title = %q", items[1].Title)
	}
}

func TestItemTextLiveVersusStored(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	s, _ := newTestSession(t, st, false)

	text, err := s.ItemText("A")
	if err != nil {
		t.Fatalf("ItemText: %v", err)
	}
	if text != "select 1" {
		t.Errorf("stored text = %q", text)
	}

	if err := s.OpenItem("A"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Edit("A", "select 42"); err != nil {
		t.Fatalf("edit: %v", err)
	}

	text, err = s.ItemText("A")
	if err != nil {
		t.Fatalf("ItemText: %v", err)
	}
	if text != "select 42" {
		t.Errorf("live text = %q, want the unflushed edit", text)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	st := newFakeStore(consoleItems("A")...)
	rec := &recorder{}
	s, err := New(Deps{Store: st, Factory: document.StdFactory{}, Presenter: rec})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Close()

	if err := s.OpenItem("A"); !errors.Is(err, apperr.ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
	if out := s.Save(nil); out.Status != SaveFailed || !errors.Is(out.Err, apperr.ErrSessionClosed) {
		t.Errorf("save outcome = %+v, want failed with ErrSessionClosed", out)
	}
}
