package index

import (
	"log/slog"
	"time"

	"github.com/starford/raido/internal/checksum"
	"github.com/starford/raido/internal/parser"
	"github.com/starford/raido/internal/store"
)

// Sync walks the notebook store and brings the index up to date:
//   - new/changed items are parsed and upserted
//   - items removed from the notebook are deleted from the index
//
// This doubles as the structural rescan the session triggers after a
// rename: the rename surfaces as one stale entry plus one new one.
func Sync(db *DB, nb store.Notebook, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{})
	for _, data := range nb.Items() {
		live[data.Name] = struct{}{}

		cs := checksum.SumString(data.Text)
		if checksums[data.Name] == cs {
			continue
		}

		res := parser.Extract(data.Type, data.Text)
		row := ItemRow{
			Name:      data.Name,
			Kind:      data.Type,
			Title:     res.Title,
			Checksum:  cs,
			Tags:      res.Tags,
			UpdatedAt: time.Now(),
		}
		if err := db.UpsertItem(row, res.Body); err != nil {
			logger.Warn("sync: index failed", slog.String("item", data.Name), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("item", data.Name))
		}
	}

	// Remove stale entries.
	for name := range checksums {
		if _, ok := live[name]; !ok {
			if err := db.DeleteItem(name); err != nil {
				logger.Warn("sync: delete failed", slog.String("item", name), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("item", name))
			}
		}
	}

	return nil
}
