package store

import (
	"bytes"
	"encoding/gob"
	"sync"
)

// bufferPool recycles the byte buffers used to gob-encode values before
// they are staged into a Batch, avoiding an allocation per symbol during a
// large differential run's persist phase. This mirrors the write-buffer
// pool the original ultra-fast storage path kept around its bincode
// encoder, just with Go's sync.Pool instead of a hand-rolled free list.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := new(bytes.Buffer)
		buf.Grow(4096)
		return buf
	},
}

// PooledEncode gob-encodes v using a buffer borrowed from bufferPool,
// returning the encoded bytes as a fresh copy (the pooled buffer itself is
// returned to the pool and must not be retained by the caller).
func PooledEncode(v interface{}) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
