// Package watcher reloads a lab file into the simulator whenever it changes
// on disk.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events an editor produces on save
const DefaultDebounce = 500 * time.Millisecond

// Reloader loads a lab file. service.Simulator implements it.
type Reloader interface {
	LoadLab(path string) error
}

// Watcher watches a lab file for changes
type Watcher struct {
	path     string
	reloader Reloader
	debounce time.Duration
	onReload func(error)
}

// New creates a new lab file watcher
func New(path string, reloader Reloader) *Watcher {
	return &Watcher{
		path:     path,
		reloader: reloader,
		debounce: DefaultDebounce,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// OnReload registers a callback run after every reload attempt
func (w *Watcher) OnReload(fn func(error)) *Watcher {
	w.onReload = fn
	return w
}

// Watch starts watching the file for changes.
// It blocks until the context is cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory containing the file
	// This handles cases where the file is replaced (e.g., by editors)
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Printf("Watching lab %s for changes", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			w.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (w *Watcher) reload() {
	err := w.reloader.LoadLab(w.path)
	if err != nil {
		// Keep the current topology; the file is probably mid-edit
		log.Printf("Failed to reload lab %s: %v", w.path, err)
	}
	if w.onReload != nil {
		w.onReload(err)
	}
}
