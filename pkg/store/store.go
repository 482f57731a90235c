// Package store provides the embedded persistent key/value layer the
// differential indexer saves its graph and metadata to between runs. It
// wraps dgraph-io/badger/v4 with a larger block cache for normal indexing
// runs and a smaller one, in badger's read-only mode, for query sessions
// (see OpenReadOnly). Neither mode runs a periodic flush of its own;
// SaveAndFlush forces a sync to disk.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/gnana997/codeindex/pkg/codeindexerr"
)

const (
	readWriteCacheMB = 128
	readOnlyCacheMB  = 64
)

// Store is the persistent key/value store backing one index directory.
type Store struct {
	db       *badger.DB
	readOnly bool
}

// Open opens (creating if absent) the store at dir for normal read/write
// indexing use: larger block cache, badger's default (unsynced) writes.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithBlockCacheSize(readWriteCacheMB << 20).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, codeindexerr.New(codeindexerr.KindStore, "open store", err)
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens dir for query-only use: a smaller cache sized for
// scan-and-read workloads rather than ingest, and badger's native
// ReadOnly mode so a concurrently running indexer's writes are never
// corrupted by a stray write from the query side.
func OpenReadOnly(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithBlockCacheSize(readOnlyCacheMB << 20).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, codeindexerr.New(codeindexerr.KindStore, "open store read-only", err)
	}
	return &Store{db: db, readOnly: true}, nil
}

// ErrReadOnly is returned by any mutating method called on a store opened
// with OpenReadOnly.
var ErrReadOnly = fmt.Errorf("store: opened read-only")

// Put writes value under key in its own transaction, committed before Put
// returns rather than batched behind the caller's back. The commit is not
// synced to disk; SaveAndFlush does that.
func (s *Store) Put(key string, value []byte) error {
	if s.readOnly {
		return codeindexerr.New(codeindexerr.KindStore, "put", ErrReadOnly)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "put "+key, err)
	}
	return nil
}

// PutGob gob-encodes v and stores it under key.
func (s *Store) PutGob(key string, v interface{}) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "encode "+key, err)
	}
	return s.Put(key, buf.Bytes())
}

// Get returns the value stored at key, and ok=false if it is absent.
func (s *Store) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, codeindexerr.New(codeindexerr.KindStore, "get "+key, err)
	}
	return out, out != nil, nil
}

// GetGob reads the value at key and gob-decodes it into v. ok is false if
// the key is absent, in which case v is left untouched.
func (s *Store) GetGob(key string, v interface{}) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return true, codeindexerr.New(codeindexerr.KindStore, "decode "+key, err)
	}
	return true, nil
}

// Delete removes key. It is not an error to delete a missing key.
func (s *Store) Delete(key string) error {
	if s.readOnly {
		return codeindexerr.New(codeindexerr.KindStore, "delete", ErrReadOnly)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "delete "+key, err)
	}
	return nil
}

// ListKeys returns every key with the given prefix. An empty prefix lists
// every key in the store.
func (s *Store) ListKeys(prefix string) ([]string, error) {
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, codeindexerr.New(codeindexerr.KindStore, "list keys", err)
	}
	return keys, nil
}

// Batch applies a set of Put/Delete operations atomically. Use this for
// per-file differential updates so a crash mid-run never leaves a file's
// symbols half-removed.
type Batch struct {
	wb *badger.WriteBatch
}

// NewBatch starts a batch writer bound to the store.
func (s *Store) NewBatch() (*Batch, error) {
	if s.readOnly {
		return nil, codeindexerr.New(codeindexerr.KindStore, "new batch", ErrReadOnly)
	}
	return &Batch{wb: s.db.NewWriteBatch()}, nil
}

// Put stages a key/value write.
func (b *Batch) Put(key string, value []byte) error {
	return b.wb.Set([]byte(key), value)
}

// PutGob gob-encodes v using the shared buffer pool and stages it.
func (b *Batch) PutGob(key string, v interface{}) error {
	data, err := PooledEncode(v)
	if err != nil {
		return err
	}
	return b.wb.Set([]byte(key), data)
}

// Delete stages a key removal.
func (b *Batch) Delete(key string) error {
	return b.wb.Delete([]byte(key))
}

// Flush commits every staged operation durably.
func (b *Batch) Flush() error {
	if err := b.wb.Flush(); err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "flush batch", err)
	}
	return nil
}

// Cancel discards the batch without applying any staged operation.
func (b *Batch) Cancel() {
	b.wb.Cancel()
}

// SaveAndFlush forces a value-log sync, for callers (like the end of a
// differential run) that want a hard durability point beyond badger's
// normal background flush cadence.
func (s *Store) SaveAndFlush() error {
	if err := s.db.Sync(); err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "sync", err)
	}
	return nil
}

// Close releases the underlying badger handles. It is safe to call Close
// more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return codeindexerr.New(codeindexerr.KindStore, "close", err)
	}
	return nil
}
