package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"graft/internal/logging"
)

// Watcher records paths touched since the last working-copy snapshot so the
// snapshot can skip a full rescan when nothing changed.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	ignore  map[string]bool
	logger  *logging.Logger

	mu    sync.RWMutex
	dirty map[string]bool
}

func NewWatcher(root string, ignore map[string]bool, logger *logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		watcher: fsw,
		ignore:  ignore,
		logger:  logger,
		dirty:   map[string]bool{},
	}

	go w.watchLoop()

	if err := w.addDirs(); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching workspace: %w", err)
	}

	return w, nil
}

// addDirs registers the root and every non-ignored subdirectory.
func (w *Watcher) addDirs() error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return err
		}
		if relPath != "." && shouldIgnore(relPath, w.ignore) {
			return filepath.SkipDir
		}

		return w.watcher.Add(path)
	})
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	if shouldIgnore(relPath, w.ignore) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Error("adding new directory to watcher", zap.Error(err))
			}
		}
	}

	w.mu.Lock()
	w.dirty[filepath.ToSlash(relPath)] = true
	w.mu.Unlock()
}

// HasChanges reports whether anything was touched since the last Reset.
func (w *Watcher) HasChanges() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.dirty) > 0
}

// DirtyPaths returns the touched paths in sorted order.
func (w *Watcher) DirtyPaths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(w.dirty))
	for p := range w.dirty {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reset clears the dirty set after a snapshot.
func (w *Watcher) Reset() {
	w.mu.Lock()
	w.dirty = map[string]bool{}
	w.mu.Unlock()
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
