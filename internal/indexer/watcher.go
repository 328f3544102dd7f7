package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	settleDelay  = 2 * time.Second
	pollInterval = 500 * time.Millisecond
)

// Watcher re-indexes notes once they stop changing and reports each batch it
// applied, so an open search can refresh.
type Watcher struct {
	indexer *Indexer
	fsw     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time
	removed []string

	onChange func(paths []string)
	now      func() time.Time
}

func NewWatcher(indexer *Indexer, onChange func(paths []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		indexer:  indexer,
		fsw:      fsw,
		pending:  make(map[string]time.Time),
		onChange: onChange,
		now:      time.Now,
	}, nil
}

// Run watches the vault until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close() //nolint:errcheck

	if err := w.addRecursive(w.indexer.dir); err != nil {
		return err
	}
	w.indexer.log.Info("watching vault", "dir", w.indexer.dir)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.indexer.log.Warn("watch error", "error", err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(filepath.Base(event.Name)) {
			if err := w.addRecursive(event.Name); err != nil {
				w.indexer.log.Warn("failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !isMarkdown(event.Name) {
		return
	}
	rel, err := filepath.Rel(w.indexer.dir, event.Name)
	if err != nil || isHidden(rel) || strings.Contains(rel, string(filepath.Separator)+".") {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.pending[rel] = w.now()
		w.indexer.log.Debug("change detected", "path", rel)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, rel)
		w.removed = append(w.removed, rel)
	}
}

// flush indexes every pending note that has been quiet for settleDelay and
// applies queued removals.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := w.now()
	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= settleDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	removed := w.removed
	w.removed = nil
	w.mu.Unlock()

	var applied []string
	for _, rel := range removed {
		if err := w.indexer.RemoveFile(rel); err != nil {
			w.indexer.log.Warn("failed to remove note", "path", rel, "error", err)
			continue
		}
		applied = append(applied, rel)
	}

	slices.Sort(ready)
	for _, rel := range ready {
		if err := w.indexer.IndexFile(ctx, rel); err != nil {
			w.indexer.log.Warn("failed to index note", "path", rel, "error", err)
			continue
		}
		applied = append(applied, rel)
	}

	if len(applied) > 0 && w.onChange != nil {
		w.onChange(applied)
	}
}
