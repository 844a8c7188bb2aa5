// Package watch re-processes documentation files as they change on
// disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/jtraglia/ethspecify/internal/scan"
	"github.com/jtraglia/ethspecify/internal/spec"
)

// Handler is invoked with the path of a changed file that carries spec
// tags. Handler errors are reported but do not stop the watcher.
type Handler func(ctx context.Context, path string) error

// Watcher monitors a directory tree and invokes a handler for changed
// files that contain spec tags.
type Watcher struct {
	root     string
	excludes []string
	handler  Handler

	// Log receives progress and error lines. Defaults to os.Stderr.
	Log io.Writer
}

// New creates a Watcher over root. Files matching an exclude pattern
// are ignored.
func New(root string, excludes []string, handler Handler) *Watcher {
	return &Watcher{root: root, excludes: excludes, handler: handler, Log: os.Stderr}
}

// Run watches until ctx is cancelled. Directories created while
// watching are added to the watch set.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addRecursive(fsw, w.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.Log, "watch error: %v\n", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := addRecursive(fsw, event.Name); err != nil {
				fmt.Fprintf(w.Log, "watch error: %v\n", err)
			}
		}
		return
	}

	ok, err := w.Relevant(event.Name)
	if err != nil || !ok {
		return
	}
	if err := w.handler(ctx, event.Name); err != nil {
		fmt.Fprintf(w.Log, "failed to process %s: %v\n", event.Name, err)
	}
}

// Relevant reports whether path is a non-excluded file containing spec
// tags.
func (w *Watcher) Relevant(path string) (bool, error) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false, err
	}
	if scan.Excluded(filepath.ToSlash(rel), w.excludes) {
		return false, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return spec.TagHintPattern.Match(content), nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
