// Package watch re-runs work when a data file changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports writes to one file. The parent directory is watched so
// editors that save by rename are still seen.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	lastMod time.Time
	// Settle delays the handler so a burst of writes is reported once.
	Settle time.Duration
}

// New starts watching path.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, watcher: w, lastMod: info.ModTime(), Settle: 100 * time.Millisecond}, nil
}

// Path is the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Watch calls handler after each change to the file until ctx is done or the
// watcher fails. Changes that leave the modification time unchanged are ignored.
func (w *Watcher) Watch(ctx context.Context, handler func(path string)) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if w.Settle > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(w.Settle):
				}
				w.drain()
			}
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if !info.ModTime().After(w.lastMod) {
				continue
			}
			w.lastMod = info.ModTime()
			handler(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.path, err)
		}
	}
}

// drain discards queued events so one burst triggers one run.
func (w *Watcher) drain() {
	for {
		select {
		case <-w.watcher.Events:
		default:
			return
		}
	}
}
