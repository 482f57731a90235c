package indexer

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// defaultExcludeDirs names directory components that are never descended
// into, regardless of project, mirroring the teacher's scanner defaults
// generalized from UI-component-specific excludes (node_modules, dist,
// build) to the full supported-language set's usual noise directories.
var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"target":       true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
	"tmp":          true,
}

// supportedExtensions is the allow-list of source file extensions the
// extractor facade can produce symbols for, one way or another (LSP,
// tree-sitter, or the regex backstop).
var supportedExtensions = map[string]bool{
	".go":  true,
	".rs":  true,
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
	".py":  true,
}

// isSupportedFile reports whether path's extension is in the supported
// allow-list.
func isSupportedFile(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsSupportedFile is the exported form of isSupportedFile, for callers
// outside this package that need to pre-filter paths the same way the
// Runner does (pkg/watch, deciding whether an fsnotify event is even
// worth debouncing).
func IsSupportedFile(path string) bool {
	return isSupportedFile(path)
}

// IsExcludedDir reports whether name (a single path component, not a full
// path) is one of the directories the Runner never descends into.
func IsExcludedDir(name string) bool {
	return defaultExcludeDirs[name]
}

// discoverFiles walks root and returns, relative to root, every path
// matching the supported-extension allow-list, skipping any directory
// named in defaultExcludeDirs. Paths are returned root-relative so they
// line up with the paths a vcs.ChangeDetector reports, letting the graph
// use one consistent FilePath convention regardless of which mode
// produced a change. Used for the initial full-scan mode (spec.md §4.D
// step 1), generalized from the teacher's doublestar-pattern
// WorkspaceScanner.discoverFiles.
func discoverFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries, continue walking
		}
		if d.IsDir() {
			if defaultExcludeDirs[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		for _, comp := range strings.Split(rel, "/") {
			if defaultExcludeDirs[comp] {
				return nil
			}
		}
		if !isSupportedFile(path) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// matchesAnyExclude reports whether relPath matches one of the given
// doublestar glob patterns, used by callers that want to layer
// user-supplied exclude patterns on top of defaultExcludeDirs.
func matchesAnyExclude(relPath string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, relPath); ok {
			return true
		}
	}
	return false
}
