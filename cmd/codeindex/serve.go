package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gnana997/codeindex/pkg/fuzzy"
	"github.com/gnana997/codeindex/pkg/indexer"
	codeindexmcp "github.com/gnana997/codeindex/pkg/mcp"
	"github.com/gnana997/codeindex/pkg/mcplog"
	"github.com/gnana997/codeindex/pkg/watch"
)

// runServe loads the persisted graph and exposes it over the MCP stdio
// server until the client disconnects.
func runServe(args []string) error {
	fs := newFlagSet("serve")
	root := fs.String("root", ".", "project root")
	logPath := fs.String("log", "", "JSONL tool-call log path; empty disables logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	projectRoot, err := resolveProjectRoot(*root)
	if err != nil {
		return err
	}
	st, err := openStoreReadOnly(projectRoot)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	g, err := loadGraph(st)
	if err != nil {
		return err
	}
	idx := fuzzy.BuildFromGraph(g)

	var logger *mcplog.Logger
	if *logPath != "" {
		logger, err = mcplog.NewLogger(*logPath)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
	}

	srv := codeindexmcp.NewServer(g, idx, logger)
	defer srv.Close()

	return srv.ServeStdio()
}

// runWatch indexes once, then watches the project for changes, reindexing
// on a debounce until interrupted.
func runWatch(args []string) error {
	fs := newFlagSet("watch")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := runner.Run(ctx); err != nil {
		return fmt.Errorf("initial run: %w", err)
	}

	w, err := watch.New(projectRoot, runner, logger, watch.Options{
		OnRun: func(result *indexer.RunResult, runErr error) {
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "reindex failed: %v\n", runErr)
				return
			}
			fmt.Printf("reindexed: +%d ~%d -%d (unchanged %d)\n",
				result.FilesAdded, result.FilesModified, result.FilesDeleted, result.FilesUnchanged)
		},
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	<-ctx.Done()
	return w.Stop()
}
