package indexer

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestDiscoverFilesSkipsExcludedDirs(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "main.go"), "package main\n")
	mustWrite(t, filepath.Join(root, "node_modules", "dep.js"), "const x = 1;\n")
	mustWrite(t, filepath.Join(root, ".git", "HEAD", "ref"), "ref: refs/heads/main\n")
	mustWrite(t, filepath.Join(root, "src", "lib.rs"), "fn helper() {}\n")
	mustWrite(t, filepath.Join(root, "README.md"), "not a source file\n")

	files, err := discoverFiles(root)
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)

	want := []string{"main.go", "src/lib.rs"}
	if len(files) != len(want) {
		t.Fatalf("got %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("got %v, want %v", files, want)
		}
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
