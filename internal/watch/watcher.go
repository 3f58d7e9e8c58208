// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/sparkrag/internal/kb"
	"github.com/jeranaias/sparkrag/internal/logging"
)

// =============================================================================
// FILE WATCHER INTERFACE
// =============================================================================

// FileWatcher is the interface for file watching implementations.
type FileWatcher interface {
	// Watch starts watching for changes.
	Watch() error

	// Changes delivers coalesced change batches.
	Changes() <-chan Change

	// Close stops watching and releases resources.
	Close() error
}

// Change is one batch of settled changes.
type Change struct {
	// Paths are KB-relative, slash separated and sorted.
	Paths []string
	At    time.Time
}

// Defaults used when Options leave a field zero.
const (
	DefaultDebounce    = 250 * time.Millisecond
	DefaultMinInterval = time.Second
	tickInterval       = 50 * time.Millisecond
)

// Options tunes a watcher.
type Options struct {
	// Debounce is how long a path must be quiet before it is reported.
	Debounce time.Duration

	// MinInterval is the minimum spacing between two reported batches.
	MinInterval time.Duration
}

// =============================================================================
// FSNOTIFY WATCHER
// =============================================================================

// FsnotifyWatcher implements FileWatcher using fsnotify. Every directory
// under the root is watched, except hidden ones.
type FsnotifyWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	limiter  *rate.Limiter
	out      chan Change

	mu      sync.Mutex
	pending map[string]time.Time // relative path -> last event time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	log    *zap.Logger
}

// NewFsnotifyWatcher creates a watcher for root.
func NewFsnotifyWatcher(root string, opts Options) (*FsnotifyWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinInterval <= 0 {
		opts.MinInterval = DefaultMinInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &FsnotifyWatcher{
		root:     root,
		watcher:  watcher,
		debounce: opts.Debounce,
		limiter:  rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		out:      make(chan Change, 1),
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
		log:      logging.Named("watch"),
	}, nil
}

// Watch registers the directory tree and starts the event goroutines.
func (fw *FsnotifyWatcher) Watch() error {
	if err := fw.addRecursive(fw.root); err != nil {
		return err
	}

	fw.wg.Add(2)
	go fw.processEvents()
	go fw.processPending()

	fw.log.Info("watching knowledge base", zap.String("root", fw.root))
	return nil
}

// Changes returns the batch channel. It is closed by Close.
func (fw *FsnotifyWatcher) Changes() <-chan Change { return fw.out }

// Close stops the goroutines and waits for them to exit.
func (fw *FsnotifyWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		fw.cancel()
		err = fw.watcher.Close()
		fw.wg.Wait()
		close(fw.out)
	})
	return err
}

// addRecursive adds dir and its visible subdirectories to the watch list.
func (fw *FsnotifyWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != fw.root && kb.IsHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.log.Debug("watch add failed", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}

func (fw *FsnotifyWatcher) processEvents() {
	defer fw.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			fw.log.Error("watcher event loop panicked", zap.Any("panic", r))
		}
	}()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handle(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watcher error", zap.Error(err))
		}
	}
}

func (fw *FsnotifyWatcher) handle(event fsnotify.Event) {
	rel, ok := fw.relevant(event)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.addRecursive(event.Name); err != nil {
				fw.log.Debug("watch new dir failed", zap.String("dir", event.Name), zap.Error(err))
			}
		}
	}

	fw.mu.Lock()
	fw.pending[rel] = time.Now()
	fw.mu.Unlock()
}

// relevant maps an event to a KB-relative path and reports whether it can
// change a scan: hidden entries never can, and among plain files only
// visible extensions matter. Removals and renames always count because the
// target may have been a directory.
func (fw *FsnotifyWatcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	rel, err := filepath.Rel(fw.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, seg := range strings.Split(rel, "/") {
		if kb.IsHidden(seg) {
			return "", false
		}
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return rel, true
	}
	if kb.IsVisibleFile(rel) {
		return rel, true
	}
	info, err := os.Stat(event.Name)
	return rel, err == nil && info.IsDir()
}

// processPending reports paths that have been quiet for the debounce
// period, at most once per MinInterval.
func (fw *FsnotifyWatcher) processPending() {
	defer fw.wg.Done()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-fw.ctx.Done():
			return

		case now := <-ticker.C:
			fw.flush(now)
		}
	}
}

func (fw *FsnotifyWatcher) flush(now time.Time) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if len(fw.pending) == 0 {
		return
	}
	for _, last := range fw.pending {
		if now.Sub(last) < fw.debounce {
			return
		}
	}
	if !fw.limiter.Allow() {
		return
	}

	paths := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	select {
	case fw.out <- Change{Paths: paths, At: now}:
		fw.pending = make(map[string]time.Time)
		fw.log.Debug("kb changed", zap.Strings("paths", paths))
	default:
		// Receiver has not taken the previous batch; keep accumulating.
	}
}
