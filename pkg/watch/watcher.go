// Package watch reloads a site whenever its profile or definition files
// change on disk.
package watch

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/passport-ui/passport/pkg/site"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Loader builds a fresh site from disk.
type Loader func() (*site.Site, error)

// Options tunes a Watcher.
type Options struct {
	// Debounce groups bursts of events into a single reload.
	Debounce time.Duration

	// IgnorePatterns are filepath.Match patterns tested against base names.
	IgnorePatterns []string

	// Extensions a changed file must carry to trigger a reload, besides
	// site.yaml. Default: .yaml, .yml, .json
	Extensions []string
}

// Stats is a snapshot of watcher activity.
type Stats struct {
	Reloads    int
	Failures   int
	Pending    int
	LastError  string
	LastReload time.Time
	IsRunning  bool
}

// Watcher watches a site directory and reloads the whole site on change.
// A failed reload is logged and the previous site stays in place.
//
//	w, err := watch.New(dir, loader, func(s *site.Site) { server.Swap(...) }, watch.Options{}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	load     Loader
	onReload func(*site.Site)
	logger   *slog.Logger
	options  Options

	// Debouncing
	timer   *time.Timer
	pending map[string]struct{}
	mu      sync.Mutex

	reloadMu sync.Mutex
	stats    Stats

	// Lifecycle
	stopChan chan struct{}
	started  bool
	stopped  bool
}

// New creates a watcher for root. onReload receives every successfully
// reloaded site. A nil logger means slog.Default().
func New(root string, load Loader, onReload func(*site.Site), options Options, logger *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	if len(options.Extensions) == 0 {
		options.Extensions = []string{".yaml", ".yml", ".json"}
	}

	return &Watcher{
		root:     root,
		watcher:  watcher,
		load:     load,
		onReload: onReload,
		logger:   logger,
		options:  options,
		pending:  make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}, nil
}

// Start adds watches for root and every non-ignored directory below it and
// begins processing events in the background.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}

	if err := w.addTree(w.root); err != nil {
		return err
	}

	w.started = true
	w.stats.IsRunning = true
	w.logger.Info("site watcher started", "root", w.root, "debounce", w.options.Debounce)

	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	w.stats.IsRunning = false
	close(w.stopChan)

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})

	err := w.watcher.Close()
	w.logger.Info("site watcher stopped")
	return err
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.stats
	s.Pending = len(w.pending)
	return s
}

func (w *Watcher) addTree(root string) error {
	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() || path == root {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("site watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if w.shouldIgnore(path) {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.mu.Lock()
			if !w.stopped {
				if err := w.addTree(path); err != nil {
					w.logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			w.mu.Unlock()
			w.schedule(path)
			return
		}
	}

	if !w.isRelevant(path) {
		return
	}
	if event.Op.Has(fsnotify.Chmod) && !event.Op.Has(fsnotify.Write) {
		return
	}

	w.logger.Debug("site file event", "op", event.Op.String(), "file", path)
	w.schedule(path)
}

// schedule resets the debounce timer. Every path seen within the window is
// folded into one reload.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.options.Debounce, w.reload)
}

func (w *Watcher) reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	changed := len(w.pending)
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	start := time.Now()
	s, err := w.load()

	w.mu.Lock()
	if err != nil {
		w.stats.Failures++
		w.stats.LastError = err.Error()
	} else {
		w.stats.Reloads++
		w.stats.LastError = ""
		w.stats.LastReload = time.Now()
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("site reload failed, keeping previous site", "root", w.root, "error", err)
		return
	}

	w.logger.Info("site reloaded", "site", s.Profile.Name, "changed", changed,
		"definitions", len(s.Query.Registry.Definitions), "duration", time.Since(start))
	if w.onReload != nil {
		w.onReload(s)
	}
}

// isRelevant reports whether a change to path can affect the loaded site.
func (w *Watcher) isRelevant(path string) bool {
	if filepath.Base(path) == site.ProfileFile {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.options.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.options.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	// Editor swap files and common build/dependency directories
	if strings.HasPrefix(base, ".#") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	switch base {
	case "node_modules", ".git", "dist", "build", ".next":
		return true
	}
	return false
}
