package dev

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/vango-dev/vizsite/internal/config"
	"github.com/vango-dev/vizsite/internal/logging"
)

// ChangeType classifies a changed file.
type ChangeType int

const (
	ChangePage ChangeType = iota
	ChangeCSS
	ChangeAsset
	ChangeConfig
)

func (t ChangeType) String() string {
	switch t {
	case ChangePage:
		return "page"
	case ChangeCSS:
		return "css"
	case ChangeConfig:
		return "config"
	default:
		return "asset"
	}
}

// Change is a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// Paths are the directories (watched recursively) and files to watch.
	Paths []string

	// Ignore lists names, path segments or globs to skip.
	Ignore []string

	// Debounce is how long the watcher waits for further events before
	// reporting a batch.
	Debounce time.Duration

	// Logger receives watcher diagnostics.
	Logger *zap.Logger
}

// DefaultIgnore contains patterns that never trigger a rebuild.
var DefaultIgnore = []string{
	".git",
	"node_modules",
	".svelte-kit",
	".build-staging-*",
	".old-*",
	"*.tmp",
	"*.swp",
	"*~",
	".DS_Store",
}

// Watcher reports batches of file changes using fsnotify.
type Watcher struct {
	config   WatcherConfig
	logger   *zap.Logger
	onChange func([]Change)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc

	roots []string
	files map[string]bool
}

// NewWatcher creates a file watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	if cfg.Debounce == 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if len(cfg.Ignore) == 0 {
		cfg.Ignore = DefaultIgnore
	}

	return &Watcher{
		config: cfg,
		logger: logging.OrNop(cfg.Logger),
		files:  make(map[string]bool),
	}
}

// OnChange sets the callback for change batches. Each batch holds at most
// one change per path.
func (w *Watcher) OnChange(fn func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start watches until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.mu.Unlock()

	defer func() {
		cancel()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	for _, p := range w.config.Paths {
		w.add(fsw, p)
	}

	pending := make(map[string]Change)
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					w.addTree(fsw, ev.Name)
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			pending[ev.Name] = Change{Path: ev.Name, Type: classifyChange(ev.Name)}
			timer.Reset(w.config.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]Change)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.cancel != nil {
		w.cancel()
	}
}

// IsRunning reports whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) flush(pending map[string]Change) {
	if len(pending) == 0 {
		return
	}
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	changes := make([]Change, 0, len(pending))
	for _, c := range pending {
		changes = append(changes, c)
	}
	sortChanges(changes)
	callback(changes)
}

// add registers a watch path. Files are watched through their parent
// directory so editors that replace files on save are still seen.
func (w *Watcher) add(fsw *fsnotify.Watcher, p string) {
	info, err := os.Stat(p)
	if err != nil {
		w.logger.Debug("skipping watch path", zap.String("path", p), zap.Error(err))
		return
	}
	if !info.IsDir() {
		w.mu.Lock()
		w.files[filepath.Clean(p)] = true
		w.mu.Unlock()
		if err := fsw.Add(filepath.Dir(p)); err != nil {
			w.logger.Warn("watch failed", zap.String("path", p), zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	w.roots = append(w.roots, filepath.Clean(p))
	w.mu.Unlock()
	w.addTree(fsw, p)
}

// addTree watches dir and every directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) {
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != dir && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			w.logger.Warn("watch failed", zap.String("path", p), zap.Error(err))
		}
		return nil
	})
}

// relevant reports whether an event path belongs to a watched root or is
// one of the watched files.
func (w *Watcher) relevant(p string) bool {
	p = filepath.Clean(p)
	if w.shouldIgnore(p) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files[p] {
		return true
	}
	for _, root := range w.roots {
		if isWithinDir(p, root) {
			return true
		}
	}
	return false
}

// shouldIgnore checks a path against the ignore patterns.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if name == pattern {
			return true
		}

		hasPathSep := strings.Contains(pattern, "/")
		hasGlob := strings.ContainsAny(pattern, "*?[")

		if hasGlob {
			if hasPathSep {
				if matched, _ := path.Match(pattern, normalized); matched {
					return true
				}
			} else if matched, _ := filepath.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if hasPathSep {
			if pathMatchesSegments(normalized, pattern) {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range splitPathSegments(p) {
		if part == segment {
			return true
		}
	}
	return false
}

func pathMatchesSegments(p, pattern string) bool {
	pathParts := splitPathSegments(p)
	patternParts := splitPathSegments(pattern)
	if len(patternParts) == 0 || len(patternParts) > len(pathParts) {
		return false
	}

	for i := 0; i <= len(pathParts)-len(patternParts); i++ {
		match := true
		for j := range patternParts {
			if pathParts[i+j] != patternParts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func splitPathSegments(p string) []string {
	parts := strings.Split(p, "/")
	result := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}

// classifyChange maps a changed file to the kind of reload it needs.
func classifyChange(p string) ChangeType {
	if filepath.Base(p) == config.ConfigFileName {
		return ChangeConfig
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".css":
		return ChangeCSS
	case ".html", ".md":
		return ChangePage
	default:
		return ChangeAsset
	}
}

func isWithinDir(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
