// Package provider serves wiki page source from a local dump directory,
// for offline use and tests. Page titles map to <dir>/<title>.wiki files,
// with subpage slashes becoming subdirectories.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads page sources from a directory tree and caches them in
// memory. Watch invalidates cached entries when the underlying files change.
type FileSource struct {
	dir    string
	logger *slog.Logger

	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	cache map[string]string
}

// Config holds FileSource configuration.
type Config struct {
	// Dir is the dump directory root. Required.
	Dir string

	// Logger for watch events.
	Logger *slog.Logger
}

// NewFileSource creates a FileSource over an existing directory.
func NewFileSource(cfg Config) (*FileSource, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("page directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("page directory: %s is not a directory", cfg.Dir)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		dir:    cfg.Dir,
		logger: logger,
		cache:  make(map[string]string),
	}, nil
}

// Fetch returns the source for title, reading through the cache. A title
// with no backing file is (ok=false, nil error).
func (f *FileSource) Fetch(ctx context.Context, title string) (string, bool, error) {
	path, err := f.pathFor(title)
	if err != nil {
		return "", false, err
	}

	f.mu.RLock()
	source, ok := f.cache[title]
	f.mu.RUnlock()
	if ok {
		return source, true, nil
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read page %q: %w", title, err)
	}

	f.mu.Lock()
	f.cache[title] = string(content)
	f.mu.Unlock()
	return string(content), true, nil
}

// pathFor maps a page title to its file, rejecting traversal outside the
// dump directory.
func (f *FileSource) pathFor(title string) (string, error) {
	if strings.Contains(title, "..") {
		return "", fmt.Errorf("invalid page title %q", title)
	}
	return filepath.Join(f.dir, filepath.FromSlash(title)+".wiki"), nil
}

// titleFor inverts pathFor for watch events.
func (f *FileSource) titleFor(path string) (string, bool) {
	rel, err := filepath.Rel(f.dir, path)
	if err != nil || !strings.HasSuffix(rel, ".wiki") {
		return "", false
	}
	return filepath.ToSlash(strings.TrimSuffix(rel, ".wiki")), true
}

// invalidate drops a cached title, if present.
func (f *FileSource) invalidate(title string) {
	f.mu.Lock()
	delete(f.cache, title)
	f.mu.Unlock()
}

// Watch starts watching the dump directory and drops cache entries for
// changed files until ctx is cancelled.
func (f *FileSource) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	f.watcher = watcher

	err = filepath.WalkDir(f.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != f.dir {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return err
	}

	f.logger.Info("watching page directory", "dir", f.dir)
	go f.processEvents(ctx)
	return nil
}

// Close stops the watcher, if started.
func (f *FileSource) Close() error {
	if f.watcher != nil {
		return f.watcher.Close()
	}
	return nil
}

func (f *FileSource) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = f.watcher.Add(event.Name)
					continue
				}
			}

			if title, ok := f.titleFor(event.Name); ok {
				f.logger.Debug("page changed", "title", title, "op", event.Op)
				f.invalidate(title)
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.logger.Error("watcher error", "error", err)
		}
	}
}
