package store

import "time"

// reserved key namespace. User graph data is never stored under these
// prefixes, so a full key listing can always tell metadata from content.
const (
	keyIndexMetadata      = "__metadata__"
	keyDifferentialPrefix = "__differential_metadata__/"
	keyGraphSnapshot      = "graph"
	keyFileMetaPrefix     = "file:"
)

// IndexFormat names the serialization the on-disk graph snapshot uses.
// Only Native is produced by this indexer; Lsif is accepted as an import
// source via pkg/lsif but is never the format of the snapshot itself.
type IndexFormat string

const (
	IndexFormatNative IndexFormat = "native"
)

// IndexMetadata describes one index directory as a whole: when it was
// built, against what project root and commit, and how many files and
// symbols it holds. It is the Go analog of the original IndexMetadata,
// minus the format/scip distinction this project does not carry.
type IndexMetadata struct {
	Format       IndexFormat
	Version      string
	CreatedAt    time.Time
	ProjectRoot  string
	FilesCount   int
	SymbolsCount int
	GitCommitHash string
}

// SaveIndexMetadata persists m under the reserved metadata key.
func (s *Store) SaveIndexMetadata(m IndexMetadata) error {
	return s.PutGob(keyIndexMetadata, m)
}

// LoadIndexMetadata reads the metadata previously saved by
// SaveIndexMetadata. ok is false if the store has never been indexed.
func (s *Store) LoadIndexMetadata() (IndexMetadata, bool, error) {
	var m IndexMetadata
	ok, err := s.GetGob(keyIndexMetadata, &m)
	return m, ok, err
}

// FileMetadata records the state of one source file as of the last
// successful run, so the next differential run can classify it as
// Unchanged/Modified/Deleted without re-reading its content up front.
type FileMetadata struct {
	Path        string
	ContentHash uint64
	ModTime     time.Time
	Size        int64
	SymbolIDs   []string
}

func fileMetaKey(path string) string {
	return keyFileMetaPrefix + path
}

// SaveFileMetadata persists fm, keyed by its Path.
func (s *Store) SaveFileMetadata(fm FileMetadata) error {
	return s.PutGob(fileMetaKey(fm.Path), fm)
}

// LoadFileMetadata reads back the metadata for path, if present.
func (s *Store) LoadFileMetadata(path string) (FileMetadata, bool, error) {
	var fm FileMetadata
	ok, err := s.GetGob(fileMetaKey(path), &fm)
	return fm, ok, err
}

// DeleteFileMetadata removes the stored metadata for path.
func (s *Store) DeleteFileMetadata(path string) error {
	return s.Delete(fileMetaKey(path))
}

// AllFileMetadata returns the metadata for every file tracked by the
// store, used at the start of a differential run to detect files removed
// from disk since the last run.
func (s *Store) AllFileMetadata() ([]FileMetadata, error) {
	keys, err := s.ListKeys(keyFileMetaPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]FileMetadata, 0, len(keys))
	for _, k := range keys {
		var fm FileMetadata
		if _, err := s.GetGob(k, &fm); err != nil {
			return nil, err
		}
		out = append(out, fm)
	}
	return out, nil
}

// SaveGraphSnapshot persists snap (a pkg/graph.Snapshot, passed as
// interface{} to avoid an import cycle — pkg/graph never imports
// pkg/store) under the reserved graph key.
func (s *Store) SaveGraphSnapshot(snap interface{}) error {
	return s.PutGob(keyGraphSnapshot, snap)
}

// LoadGraphSnapshot decodes the persisted graph snapshot into dest, which
// the caller must pass as a pointer to a pkg/graph.Snapshot.
func (s *Store) LoadGraphSnapshot(dest interface{}) (bool, error) {
	return s.GetGob(keyGraphSnapshot, dest)
}

// DifferentialMetadata records the bookkeeping a single differential run
// leaves behind: what changed, and how long it took, for diagnostics.
type DifferentialMetadata struct {
	RunAt          time.Time
	FilesScanned   int
	FilesAdded     int
	FilesModified  int
	FilesDeleted   int
	FilesUnchanged int
	Duration       time.Duration
}

func differentialKey(runAt time.Time) string {
	return keyDifferentialPrefix + runAt.Format(time.RFC3339Nano)
}

// SaveDifferentialMetadata appends a run record. Records are never
// overwritten; ListKeys(keyDifferentialPrefix) combined with this key
// scheme gives a chronological history of runs for free.
func (s *Store) SaveDifferentialMetadata(dm DifferentialMetadata) error {
	return s.PutGob(differentialKey(dm.RunAt), dm)
}
