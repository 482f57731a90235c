package util

import "github.com/cespare/xxhash/v2"

// ComputeContentHash returns a fast, non-cryptographic content hash used to
// decide whether a file changed between differential runs. xxhash is the
// same family of hash the rest of the retrieved indexer corpus reaches
// for on this exact hot path (per-file change detection over thousands of
// files), where collision resistance matters far less than throughput.
func ComputeContentHash(content []byte) uint64 {
	return xxhash.Sum64(content)
}

// ComputeContentHashString formats ComputeContentHash as a 16-digit hex
// string, the textual form the Runner keeps in its hash cache and compares
// an untracked file's current content against.
func ComputeContentHashString(content []byte) string {
	h := ComputeContentHash(content)
	const hextable = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hextable[h&0xf]
		h >>= 4
	}
	return string(buf)
}
