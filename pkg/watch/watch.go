// Package watch wires fsnotify up to a running indexer.Runner: any write,
// create, remove, or rename under the watched root debounces a single
// differential re-index rather than reacting file-by-file, since
// Runner.Run already re-plans and re-extracts only what changed on every
// call (the hash cache makes a no-op rerun cheap). Modeled on the
// teacher's per-file FileWatcher, collapsed to one shared debounce timer
// because this indexer's unit of work is a run, not a file.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/codeindex/pkg/indexer"
)

// DefaultDebounce is how long the watcher waits after the last observed
// event before triggering a re-index, matching the teacher's default
// debounce window.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// OnRun, if set, is called after every triggered run (error non-nil
	// on failure), letting a CLI or MCP caller report progress.
	OnRun func(*indexer.RunResult, error)
}

// Watcher watches a project root for filesystem changes and debounces
// them into repeated calls to Runner.Run.
type Watcher struct {
	fsw     *fsnotify.Watcher
	runner  *indexer.Runner
	root    string
	logger  *slog.Logger
	options Options

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	wg sync.WaitGroup
}

// New returns a Watcher. Call Start to begin watching; call Stop to tear
// it down.
func New(root string, runner *indexer.Runner, logger *slog.Logger, options Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}
	return &Watcher{fsw: fsw, runner: runner, root: root, logger: logger, options: options}, nil
}

// Start adds root and every non-excluded subdirectory to the underlying
// fsnotify watch set and begins the event loop in the background.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if indexer.IsExcludedDir(d.Name()) && path != w.root {
			return filepath.SkipDir
		}
		if path != w.root {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("failed to watch directory", "path", path, "error", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("setup watches under %s: %w", w.root, err)
	}

	w.wg.Add(1)
	go w.eventLoop(ctx)
	return nil
}

// Stop halts the event loop and closes the underlying watcher. Safe to
// call once; subsequent calls are no-ops.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if indexer.IsExcludedDir(base) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	// Directories created mid-watch need their own fsnotify.Add; files
	// are filtered by extension so a touched .md or .lock doesn't trigger
	// a run.
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := w.fsw.Add(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}
	if !indexer.IsSupportedFile(event.Name) {
		return
	}

	w.debounceRun()
}

func (w *Watcher) debounceRun() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.options.Debounce, w.triggerRun)
}

func (w *Watcher) triggerRun() {
	result, err := w.runner.Run(context.Background())
	if err != nil {
		w.logger.Warn("watch-triggered run failed", "error", err)
	} else {
		w.logger.Debug("watch-triggered run complete",
			"added", result.FilesAdded, "modified", result.FilesModified, "deleted", result.FilesDeleted)
	}
	if w.options.OnRun != nil {
		w.options.OnRun(result, err)
	}
}
