// Package vcs reports which files have changed since the last indexed
// commit, letting the differential indexer skip the mtime/hash comparison
// for repositories where git already knows the answer.
package vcs

// ChangeStatus classifies one path's status relative to the comparison
// point a ChangeDetector was built against.
type ChangeStatus string

const (
	StatusAdded     ChangeStatus = "added"
	StatusModified  ChangeStatus = "modified"
	StatusDeleted   ChangeStatus = "deleted"
	StatusRenamed   ChangeStatus = "renamed"
	StatusUntracked ChangeStatus = "untracked"
)

// Change describes one changed path. ContentHash is an optional slot for a
// detector-computed hash; GitDetector leaves it nil, and the differential
// indexer hashes file content itself rather than reading this field.
type Change struct {
	Path        string
	OldPath     string // set only for StatusRenamed
	Status      ChangeStatus
	ContentHash *string
}

// ChangeDetector reports the set of paths that changed between two points
// in a repository's history. The differential indexer treats it as an
// optional accelerant: when unavailable (not a git repo, git not on PATH),
// it falls back to its own hash/mtime comparison for every file.
type ChangeDetector interface {
	// Changes returns every path that differs between fromRef and the
	// working tree. The differential indexer passes the commit hash it
	// stored on its last run, which is empty when none was recorded; how
	// an empty fromRef is resolved is up to the implementation
	// (GitDetector compares against HEAD).
	Changes(fromRef string) ([]Change, error)

	// CurrentRef returns an identifier for the current state (typically
	// HEAD's commit hash) suitable for storing and passing as fromRef on
	// a later call.
	CurrentRef() (string, error)
}
