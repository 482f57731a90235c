package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gnana997/codeindex/pkg/extractor"
	"github.com/gnana997/codeindex/pkg/graph"
	"github.com/gnana997/codeindex/pkg/indexer"
	"github.com/gnana997/codeindex/pkg/store"
	"github.com/gnana997/codeindex/pkg/vcs"
)

// storeDirName is the subdirectory of a project root holding the embedded
// Badger store, mirroring the teacher's .uispec project-config convention.
const storeDirName = ".codeindex"

// resolveProjectRoot returns path if non-empty, else the current working
// directory, always as an absolute path.
func resolveProjectRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve project root: %w", err)
	}
	return abs, nil
}

func storeDir(projectRoot string) string {
	return filepath.Join(projectRoot, storeDirName)
}

func openStore(projectRoot string) (*store.Store, error) {
	return store.Open(storeDir(projectRoot))
}

func openStoreReadOnly(projectRoot string) (*store.Store, error) {
	return store.OpenReadOnly(storeDir(projectRoot))
}

// gitDetectorFor returns a GitDetector for projectRoot if it is a git
// working tree, else nil. A nil detector makes Runner.Run fall back to a
// full filesystem rescan every time, which is always correct, just slower.
func gitDetectorFor(projectRoot string) vcs.ChangeDetector {
	d := vcs.NewGitDetector(projectRoot, 10*time.Second)
	if !d.IsRepo() {
		return nil
	}
	return d
}

func newRunner(st *store.Store, projectRoot string, logger *slog.Logger) *indexer.Runner {
	ex := extractor.New(nil, logger)
	return indexer.NewRunner(st, projectRoot, ex, gitDetectorFor(projectRoot), logger)
}

// loadGraph reads the most recently persisted graph snapshot out of st. It
// returns an empty graph (not an error) if the store has never been
// indexed, so read-only subcommands behave sensibly against a fresh store.
func loadGraph(st *store.Store) (*graph.Graph, error) {
	var snap graph.Snapshot
	found, err := st.LoadGraphSnapshot(&snap)
	if err != nil {
		return nil, fmt.Errorf("load graph snapshot: %w", err)
	}
	if !found {
		return graph.New(), nil
	}
	return graph.FromSnapshot(snap), nil
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// newFlagSet builds a flag.FlagSet in ContinueOnError mode so a bad flag
// fails the subcommand instead of the whole process.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}
