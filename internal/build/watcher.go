package build

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the docs directory and the descriptor for changes and
// triggers debounced rebuilds.
type Watcher struct {
	docsDir        string
	descriptorPath string
	rebuild        func(context.Context)
	watcher        *fsnotify.Watcher
	changed        chan struct{}
	debounce       time.Duration
}

// NewWatcher creates a watcher over docsDir. rebuild is called once per
// debounced burst of changes.
func NewWatcher(docsDir, descriptorPath string, rebuild func(context.Context)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	return &Watcher{
		docsDir:        docsDir,
		descriptorPath: descriptorPath,
		rebuild:        rebuild,
		watcher:        fsWatcher,
		changed:        make(chan struct{}, 1),
		debounce:       500 * time.Millisecond,
	}, nil
}

// Start watches until the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch every subdirectory; fsnotify does not recurse.
	err := filepath.WalkDir(w.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != w.docsDir {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		_ = w.watcher.Close()
		return fmt.Errorf("watch %s: %w", w.docsDir, err)
	}
	if dir := filepath.Dir(w.descriptorPath); dir != w.docsDir {
		if err := w.watcher.Add(dir); err != nil {
			slog.Warn("Cannot watch descriptor directory", "dir", dir, "error", err)
		}
	}
	slog.Info("Watching for changes", "dir", w.docsDir)

	go w.rebuildLoop(ctx)
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Change detected", "file", event.Name, "op", event.Op.String())
			select {
			case w.changed <- struct{}{}:
			default:
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) rebuildLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.changed:
		}

		timer := time.NewTimer(w.debounce)
	drain:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-w.changed:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
			case <-timer.C:
				break drain
			}
		}
		w.rebuild(ctx)
	}
}

// relevant filters events down to markdown sources, the descriptor, and
// directory creation (new directories must be added to the watch set).
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := event.Name
	if filepath.Base(name) == filepath.Base(w.descriptorPath) {
		return true
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			_ = w.watcher.Add(name)
			return true
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".rst":
		return true
	}
	return false
}
