package main

import (
	"context"
	"fmt"
	"os"
)

// runInit creates the .codeindex store directory for a project without
// indexing anything yet, so "codeindex index" has somewhere to persist to.
func runInit(args []string) error {
	fs := newFlagSet("init")
	if err := fs.Parse(args); err != nil {
		return err
	}
	projectRoot, err := resolveProjectRoot(fs.Arg(0))
	if err != nil {
		return err
	}

	st, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	fmt.Printf("initialized %s\n", storeDir(projectRoot))
	return nil
}

// runIndex runs one differential indexing pass over the project and
// persists the result.
func runIndex(args []string) error {
	fs := newFlagSet("index")
	excludes := stringSliceFlag(fs, "exclude", "glob pattern to exclude (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	projectRoot, err := resolveProjectRoot(fs.Arg(0))
	if err != nil {
		return err
	}

	st, err := openStore(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	logger := defaultLogger()
	runner := newRunner(st, projectRoot, logger)
	if len(*excludes) > 0 {
		runner = runner.WithExcludePatterns(*excludes)
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	fmt.Fprintf(os.Stdout, "scanned %d files: +%d ~%d -%d (unchanged %d) in %s\n",
		result.FilesScanned, result.FilesAdded, result.FilesModified, result.FilesDeleted,
		result.FilesUnchanged, result.Duration)
	return nil
}
