package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gnana997/codeindex/pkg/extractor"
	"github.com/gnana997/codeindex/pkg/indexer"
	"github.com/gnana997/codeindex/pkg/store"
)

func newTestWatcher(t *testing.T, root string, debounce time.Duration) (*Watcher, chan struct{}) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	runner := indexer.NewRunner(st, root, extractor.New(nil, nil), nil, slog.Default())
	ran := make(chan struct{}, 8)
	w, err := New(root, runner, slog.Default(), Options{
		Debounce: debounce,
		OnRun:    func(*indexer.RunResult, error) { ran <- struct{}{} },
	})
	if err != nil {
		t.Fatal(err)
	}
	return w, ran
}

func TestWatcherTriggersRunAfterWrite(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "main.go"), "package main\n\nfunc main() {}\n")

	w, ran := newTestWatcher(t, root, 30*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nfunc main() {}\nfunc extra() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a debounced run to fire after the write")
	}
}

func TestWatcherIgnoresUnsupportedExtensions(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "README.md"), "hello\n")

	w, ran := newTestWatcher(t, root, 30*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("hello again\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ran:
		t.Fatal("did not expect a run for a non-source file write")
	case <-time.After(200 * time.Millisecond):
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
