package index

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/raido/internal/store"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func watchedNotebook(t *testing.T) *store.File {
	t.Helper()
	nb, err := store.NewTemporary(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := nb.MoveTo(filepath.Join(t.TempDir(), "watched.rnb")); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}
	return nb
}

func TestWatcherFiresOnExternalChange(t *testing.T) {
	nb := watchedNotebook(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var fired []string

	go Watch(ctx, nb, quietLogger(), func(path string) {
		mu.Lock()
		fired = append(fired, path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	// Simulate another process rewriting the notebook: a second store bound
	// to the same path persists different content.
	other, err := store.Open(nb.CurrentPath())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := other.AddItem("External", "note", "# written elsewhere\n"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := other.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(fired) > 0
	}, "expected callback for external notebook change")
}

func TestWatcherIgnoresOwnPersist(t *testing.T) {
	nb := watchedNotebook(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	fired := 0

	go Watch(ctx, nb, quietLogger(), func(string) {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	if err := nb.FlushItem("Console 1", "select 2;"); err != nil {
		t.Fatalf("FlushItem: %v", err)
	}
	if err := nb.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// Give the debounce window time to settle; our own write must not fire.
	time.Sleep(600 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if fired != 0 {
		t.Errorf("callback fired %d times for an in-process persist", fired)
	}
}

func TestWatcherFollowsSaveAsMove(t *testing.T) {
	nb := watchedNotebook(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var fired []string

	go Watch(ctx, nb, quietLogger(), func(path string) {
		mu.Lock()
		fired = append(fired, path)
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	// Promote to a different directory, as a save-as would.
	newPath := filepath.Join(t.TempDir(), "moved.rnb")
	if err := nb.MoveTo(newPath); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}

	// Let the watcher rebind to the new directory, then write externally.
	time.Sleep(500 * time.Millisecond)

	other, err := store.Open(newPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = other.AddItem("After move", "console", "select 3;")
	if err := other.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range fired {
			if p == newPath {
				return true
			}
		}
		return false
	}, "expected callback at the promoted path")
}
