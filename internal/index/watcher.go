package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/raido/internal/checksum"
)

// PersistedNotebook is the slice of the store the watcher needs: where the
// notebook lives and what this process last wrote there.
type PersistedNotebook interface {
	CurrentPath() string
	LastPersistChecksum() string
}

// ChangeCallback is invoked when the notebook file changes on disk outside
// this process (another editor, a sync tool).
type ChangeCallback func(path string)

// Watch monitors the notebook file for out-of-process modification until
// ctx is cancelled. The watch follows the file when a save-as promotion
// moves it to another directory.
//
// Events are debounced and filtered by content checksum against the
// store's own last persist, so in-process saves never fire the callback.
func Watch(ctx context.Context, nb PersistedNotebook, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watchedDir := ""
	ensureWatch := func() bool {
		dir := filepath.Dir(nb.CurrentPath())
		if dir == watchedDir {
			return false
		}
		if watchedDir != "" {
			_ = w.Remove(watchedDir)
		}
		if err := w.Add(dir); err != nil {
			logger.Warn("watcher: add dir failed", slog.String("dir", dir), slog.String("error", err.Error()))
			return false
		}
		watchedDir = dir
		return true
	}
	ensureWatch()

	lastSum := fileSum(nb.CurrentPath())

	logger.Info("watcher: started", slog.String("path", nb.CurrentPath()))

	// A save-as promotion moves the file to a directory we get no events
	// for, so rebinding cannot rely on fsnotify alone.
	rebind := time.NewTicker(time.Second)
	defer rebind.Stop()

	// settleTimer debounces the event bursts that atomic-rename writes produce.
	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(200 * time.Millisecond)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rebind.C:
			// Settle after a rebind: writes that landed while we were
			// still watching the old directory produced no events.
			if ensureWatch() {
				scheduleSettle()
			}

		case <-settleCh:
			ensureWatch()
			path := nb.CurrentPath()
			sum := fileSum(path)
			if sum == "" || sum == lastSum {
				continue
			}
			lastSum = sum
			if sum == nb.LastPersistChecksum() {
				// Our own persist landing on disk.
				continue
			}
			logger.Debug("watcher: notebook changed on disk", slog.String("path", path))
			if cb != nil {
				cb(path)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != nb.CurrentPath() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				scheduleSettle()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func fileSum(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}
