// Package indexer drives one differential indexing run: discovering
// which files changed since the store's last run, re-extracting symbols
// for them, and mutating the persisted graph to match — the core
// read-modify-write loop the rest of this module (query, fuzzy,
// hierarchy) is built to read a consistent snapshot of.
package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gnana997/codeindex/pkg/extractor"
	"github.com/gnana997/codeindex/pkg/graph"
	"github.com/gnana997/codeindex/pkg/store"
	"github.com/gnana997/codeindex/pkg/util"
	"github.com/gnana997/codeindex/pkg/vcs"
)

// RunState names one stage of a single differential run, exposed through
// Runner.State for progress reporting by long-running callers.
type RunState string

const (
	StateIdle       RunState = "IDLE"
	StateScanning   RunState = "SCANNING"
	StateExtracting RunState = "EXTRACTING"
	StateMutating   RunState = "MUTATING"
	StatePersisting RunState = "PERSISTING"
	StateDone       RunState = "DONE"
)

// RunResult summarizes what one run did.
type RunResult struct {
	FilesScanned   int
	FilesAdded     int
	FilesModified  int
	FilesDeleted   int
	FilesUnchanged int
	Duration       time.Duration
}

const hashCacheFileName = ".codeindex-hash-cache.json"

// Runner drives repeated differential runs against one store for one
// project root. A Runner is safe to reuse across calls to Run, but Run
// itself holds an internal mutex for its duration — the store's
// single-writer property (spec.md §5) — so concurrent Run calls on the
// same Runner simply queue.
type Runner struct {
	store       *store.Store
	projectRoot string
	extractor   *extractor.Extractor
	detector    vcs.ChangeDetector
	logger      *slog.Logger
	workerCount int

	excludePatterns []string

	runMu sync.Mutex
	state atomic.Value // RunState
}

// WithExcludePatterns returns a new Runner over the same store/extractor/
// detector that additionally skips any file whose project-relative path
// matches one of the given doublestar glob patterns (on top of the
// built-in defaultExcludeDirs), layering user-supplied excludes over the
// always-on noise-directory skip.
func (r *Runner) WithExcludePatterns(patterns []string) *Runner {
	n := NewRunner(r.store, r.projectRoot, r.extractor, r.detector, r.logger)
	n.excludePatterns = patterns
	n.workerCount = r.workerCount
	return n
}

// NewRunner returns a Runner. detector may be nil, in which case every
// run falls back to a full rescan classified as Modified/Deleted against
// the store's existing FileMetadata (the same path spec.md §4.D takes
// when the change detector itself fails).
func NewRunner(st *store.Store, projectRoot string, ex *extractor.Extractor, detector vcs.ChangeDetector, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		store:       st,
		projectRoot: projectRoot,
		extractor:   ex,
		detector:    detector,
		logger:      logger,
		workerCount: util.GetOptimalPoolSize(),
	}
	r.state.Store(StateIdle)
	return r
}

// State returns the current stage of an in-progress (or just-finished) run.
func (r *Runner) State() RunState {
	return r.state.Load().(RunState)
}

func (r *Runner) setState(s RunState) {
	r.state.Store(s)
}

// plannedChange is one file's resolved classification for this run,
// gathered before any extraction happens.
type plannedChange struct {
	path    string
	oldPath string // set for renames: the path whose symbols must be removed
	status  vcs.ChangeStatus
}

// Run executes one differential indexing run per spec.md §4.D's
// six-step algorithm. It is cancellable at file boundaries: ctx.Err()
// is checked between files, and a cancelled run skips persistence
// entirely so the next run repeats the work.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now()
	result := &RunResult{}

	r.setState(StateScanning)
	meta, hadMeta, err := r.store.LoadIndexMetadata()
	if err != nil {
		r.setState(StateIdle)
		return nil, fmt.Errorf("load index metadata: %w", err)
	}

	var snap graph.Snapshot
	if hadMeta {
		if _, err := r.store.LoadGraphSnapshot(&snap); err != nil {
			r.setState(StateIdle)
			return nil, fmt.Errorf("load graph snapshot: %w", err)
		}
	}
	g := graph.FromSnapshot(snap)

	planned, err := r.planChanges(hadMeta, meta)
	if err != nil {
		r.setState(StateIdle)
		return nil, fmt.Errorf("plan changes: %w", err)
	}
	result.FilesScanned = len(planned)

	fcConfig := util.UnboundedFileCacheConfig()
	fcConfig.Logger = r.logger
	fc := util.NewFileCache(fcConfig)
	defer fc.Close()

	r.setState(StateExtracting)
	extracted, extractErrs := r.extractAll(ctx, planned, fc)
	for _, fe := range extractErrs {
		r.logger.Warn("extraction failed, file's previous symbols unchanged", "file", fe.FilePath, "error", fe.Error)
	}

	r.setState(StateMutating)
	fileHashes := make(map[string]string)
	for _, pc := range planned {
		if ctx.Err() != nil {
			r.setState(StateIdle)
			return nil, ctx.Err()
		}

		switch pc.status {
		case vcs.StatusDeleted:
			r.removeFile(g, pc.path)
			result.FilesDeleted++
			continue

		case vcs.StatusUntracked:
			res, ok := extracted[pc.path]
			if !ok {
				// Either extraction failed or the untracked file's
				// content hash matched the stored one (unchanged).
				if _, stillTracked, _ := r.store.LoadFileMetadata(pc.path); stillTracked {
					result.FilesUnchanged++
				}
				continue
			}
			r.applyFileUpdate(g, pc.path, res, fileHashes, fc)
			result.FilesModified++

		case vcs.StatusAdded:
			res, ok := extracted[pc.path]
			if !ok {
				continue // extraction failed, logged above
			}
			r.applyFileUpdate(g, pc.path, res, fileHashes, fc)
			result.FilesAdded++

		case vcs.StatusModified, vcs.StatusRenamed:
			res, ok := extracted[pc.path]
			if !ok {
				continue
			}
			if pc.oldPath != "" && pc.oldPath != pc.path {
				r.removeFile(g, pc.oldPath)
			}
			r.applyFileUpdate(g, pc.path, res, fileHashes, fc)
			result.FilesModified++
		}
	}

	r.setState(StatePersisting)
	if err := r.persist(g, meta, fileHashes, result); err != nil {
		r.setState(StateIdle)
		return nil, err
	}

	result.Duration = time.Since(start)
	if err := r.store.SaveDifferentialMetadata(store.DifferentialMetadata{
		RunAt:          time.Now(),
		FilesScanned:   result.FilesScanned,
		FilesAdded:     result.FilesAdded,
		FilesModified:  result.FilesModified,
		FilesDeleted:   result.FilesDeleted,
		FilesUnchanged: result.FilesUnchanged,
		Duration:       result.Duration,
	}); err != nil {
		r.setState(StateIdle)
		return nil, fmt.Errorf("save differential metadata: %w", err)
	}

	r.setState(StateDone)
	return result, nil
}

// planChanges resolves step 1/2 of the algorithm into a flat list of
// per-file classifications, before any extraction work happens.
func (r *Runner) planChanges(hadMeta bool, meta store.IndexMetadata) ([]plannedChange, error) {
	if !hadMeta {
		files, err := discoverFiles(r.projectRoot)
		if err != nil {
			return nil, err
		}
		planned := make([]plannedChange, 0, len(files))
		for _, f := range files {
			if matchesAnyExclude(f, r.excludePatterns) {
				continue
			}
			planned = append(planned, plannedChange{path: f, status: vcs.StatusAdded})
		}
		return planned, nil
	}

	if r.detector != nil {
		changes, err := r.detector.Changes(meta.GitCommitHash)
		if err == nil {
			planned := make([]plannedChange, 0, len(changes))
			for _, c := range changes {
				if !isSupportedFile(c.Path) || matchesAnyExclude(c.Path, r.excludePatterns) {
					continue
				}
				planned = append(planned, plannedChange{path: c.Path, oldPath: c.OldPath, status: c.Status})
			}
			return planned, nil
		}
		r.logger.Warn("change detector failed, falling back to full rescan", "error", err)
	}

	return r.fallbackFullRescan()
}

// fallbackFullRescan is used both when no ChangeDetector is configured
// and when one errors mid-run (spec.md §4.D failure semantics: "fall
// back to a full rescan"). Every currently-discoverable file is treated
// as Modified (a no-op remove for files with no prior symbols), and
// every previously-tracked file no longer found on disk is Deleted.
func (r *Runner) fallbackFullRescan() ([]plannedChange, error) {
	files, err := discoverFiles(r.projectRoot)
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]bool, len(files))
	planned := make([]plannedChange, 0, len(files))
	for _, f := range files {
		if matchesAnyExclude(f, r.excludePatterns) {
			continue
		}
		onDisk[f] = true
		planned = append(planned, plannedChange{path: f, status: vcs.StatusModified})
	}

	tracked, err := r.store.AllFileMetadata()
	if err != nil {
		return nil, err
	}
	for _, fm := range tracked {
		if !onDisk[fm.Path] {
			planned = append(planned, plannedChange{path: fm.Path, status: vcs.StatusDeleted})
		}
	}
	return planned, nil
}

// extractAll reads and extracts every file in planned that needs fresh
// symbols (everything except Deleted, and Untracked files whose content
// hash turns out unchanged), fanning the work out across a WorkerPool.
func (r *Runner) extractAll(ctx context.Context, planned []plannedChange, fc util.FileCache) (map[string]extractor.Result, []FileError) {
	results := make(map[string]extractor.Result)
	var errs []FileError

	var toExtract []string
	for _, pc := range planned {
		if pc.status == vcs.StatusDeleted {
			continue
		}
		abs := filepath.Join(r.projectRoot, pc.path)
		if pc.status == vcs.StatusUntracked {
			mf, err := fc.Get(abs)
			if err != nil {
				errs = append(errs, FileError{FilePath: pc.path, Error: err})
				continue
			}
			newHash := util.ComputeContentHashString(mf.Data)
			stored, ok, err := r.store.LoadFileMetadata(pc.path)
			if err == nil && ok && fmt.Sprintf("%016x", stored.ContentHash) == newHash {
				continue // unchanged; leave out of toExtract and results
			}
		}
		toExtract = append(toExtract, pc.path)
	}
	if len(toExtract) == 0 {
		return results, errs
	}

	pool := NewWorkerPool(r.workerCount, r.extractor, fc, r.logger)
	pool.Start()

	done := make(chan struct{})
	var mu sync.Mutex
	go func() {
		defer close(done)
		remaining := len(toExtract)
		for remaining > 0 {
			select {
			case res, ok := <-pool.Results():
				if !ok {
					return
				}
				mu.Lock()
				results[res.FilePath] = res.Result
				mu.Unlock()
				remaining--
			case fe, ok := <-pool.Errors():
				if !ok {
					return
				}
				mu.Lock()
				errs = append(errs, fe)
				mu.Unlock()
				remaining--
			case <-ctx.Done():
				return
			}
		}
	}()

	for i, path := range toExtract {
		abs := filepath.Join(r.projectRoot, path)
		if err := pool.Submit(FileJob{FilePath: abs, JobID: i}); err != nil {
			errs = append(errs, FileError{FilePath: path, Error: err})
		}
	}
	pool.FinishSubmitting()
	<-done
	pool.Stop()

	// Results are keyed by the absolute path the pool read; rekey them
	// back to the project-relative path used everywhere else.
	relResults := make(map[string]extractor.Result, len(results))
	for abs, res := range results {
		rel, err := filepath.Rel(r.projectRoot, abs)
		if err != nil {
			rel = abs
		}
		relResults[filepath.ToSlash(rel)] = res
	}
	return relResults, errs
}

// removeFile tombstones every symbol belonging to path and drops its
// stored FileMetadata.
func (r *Runner) removeFile(g *graph.Graph, path string) {
	for _, s := range g.SymbolsInFile(path) {
		g.RemoveSymbol(s.ID)
	}
	if err := r.store.DeleteFileMetadata(path); err != nil {
		r.logger.Warn("failed to delete file metadata", "file", path, "error", err)
	}
}

// applyFileUpdate performs the per-file ordering invariant (spec.md §5):
// remove-old -> insert-new -> add-contains-edges -> add-reference-edges.
func (r *Runner) applyFileUpdate(g *graph.Graph, path string, res extractor.Result, fileHashes map[string]string, fc util.FileCache) {
	for _, s := range g.SymbolsInFile(path) {
		g.RemoveSymbol(s.ID)
	}

	for _, sym := range res.Symbols {
		g.AddSymbol(sym)
	}
	addContainsEdges(g, res.Symbols)

	abs := filepath.Join(r.projectRoot, path)
	mf, err := fc.Get(abs)
	if err != nil {
		r.logger.Warn("could not re-read file for references step", "file", path, "error", err)
		return
	}
	content := mf.Data
	applyReferencesStep(g, path, content, languageForPath(path))

	hash := util.ComputeContentHash(content)
	fileHashes[path] = fmt.Sprintf("%016x", hash)
	symbolIDs := make([]string, 0, len(res.Symbols))
	for _, s := range res.Symbols {
		symbolIDs = append(symbolIDs, s.ID)
	}
	if err := r.store.SaveFileMetadata(store.FileMetadata{
		Path:        path,
		ContentHash: hash,
		ModTime:     time.Now(),
		Size:        int64(len(content)),
		SymbolIDs:   symbolIDs,
	}); err != nil {
		r.logger.Warn("failed to save file metadata", "file", path, "error", err)
	}
}

// persist implements step 5/6: save the graph, recompute and save
// IndexMetadata, and refresh the JSON hash-cache sidecar.
func (r *Runner) persist(g *graph.Graph, prevMeta store.IndexMetadata, newHashes map[string]string, result *RunResult) error {
	if err := r.store.SaveGraphSnapshot(g.ToSnapshot()); err != nil {
		return fmt.Errorf("save graph snapshot: %w", err)
	}
	if err := r.store.SaveAndFlush(); err != nil {
		return fmt.Errorf("flush store: %w", err)
	}

	allMeta, err := r.store.AllFileMetadata()
	if err != nil {
		return fmt.Errorf("list file metadata: %w", err)
	}
	merged := make(map[string]string, len(allMeta))
	for _, fm := range allMeta {
		merged[fm.Path] = fmt.Sprintf("%016x", fm.ContentHash)
	}
	for k, v := range newHashes {
		merged[k] = v
	}

	commit := prevMeta.GitCommitHash
	if r.detector != nil {
		if ref, err := r.detector.CurrentRef(); err == nil {
			commit = ref
		}
	}

	newMeta := store.IndexMetadata{
		Format:        store.IndexFormatNative,
		Version:       "1",
		CreatedAt:     time.Now(),
		ProjectRoot:   r.projectRoot,
		FilesCount:    len(allMeta),
		SymbolsCount:  g.Len(),
		GitCommitHash: commit,
	}
	if err := r.store.SaveIndexMetadata(newMeta); err != nil {
		return fmt.Errorf("save index metadata: %w", err)
	}

	if err := writeHashCacheSidecar(r.projectRoot, merged); err != nil {
		r.logger.Warn("failed to write hash cache sidecar", "error", err)
	}

	return nil
}

func writeHashCacheSidecar(projectRoot string, hashes map[string]string) error {
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(projectRoot, hashCacheFileName)
	return os.WriteFile(path, data, 0o644)
}

// languageForPath mirrors pkg/extractor's own extension table, needed
// here so the References step's tokenizer picks the right comment
// syntax without importing extractor's unexported helper.
func languageForPath(path string) string {
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".go":
		return "go"
	case ".rs":
		return "rust"
	case ".py":
		return "python"
	default:
		return ""
	}
}
