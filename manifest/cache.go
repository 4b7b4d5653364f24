package manifest

import (
	"sync"

	"github.com/ruvector/rvf/format"
)

// HashCache is the write-once, per-segment-offset content-hash cache spec
// §5 describes: "the first reader to touch a segment computes and stores
// the hash; subsequent readers read-only." Grounded on the teacher's own
// per-file lazy directory cache, massifs/logdircache.go (DirCache /
// DirCacheEntry), generalized from "one blob directory entry" to "one
// content hash per segment offset."
//
// The cache MUST NOT survive compaction, because compaction changes every
// segment's offset (spec §5); callers discard the whole HashCache and
// build a fresh one for the post-compaction file rather than trying to
// invalidate individual entries.
type HashCache struct {
	mu      sync.Mutex
	once    map[uint64]*sync.Once
	hashes  map[uint64][format.ContentHash128Size]byte
}

func NewHashCache() *HashCache {
	return &HashCache{
		once:   make(map[uint64]*sync.Once),
		hashes: make(map[uint64][format.ContentHash128Size]byte),
	}
}

// Verify computes (once, cached thereafter) the content hash of payload
// located at offset and compares it against expected. Subsequent calls for
// the same offset reuse the cached result rather than re-hashing — this is
// the "write-once" contract: the first caller's payload is authoritative
// for that offset for the lifetime of this cache.
func (c *HashCache) Verify(offset uint64, payload []byte, expected [format.ContentHash128Size]byte) (ok bool, actual [format.ContentHash128Size]byte) {
	c.mu.Lock()
	once, exists := c.once[offset]
	if !exists {
		once = &sync.Once{}
		c.once[offset] = once
	}
	c.mu.Unlock()

	once.Do(func() {
		h := format.ContentHash128(payload)
		c.mu.Lock()
		c.hashes[offset] = h
		c.mu.Unlock()
	})

	c.mu.Lock()
	actual = c.hashes[offset]
	c.mu.Unlock()
	return HashEqual(actual, expected), actual
}

// Invalidate drops every cached entry. Called once by store.Compact after
// the staging file is renamed into place, since every offset in the new
// file means something different than it did in the old one.
func (c *HashCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.once = make(map[uint64]*sync.Once)
	c.hashes = make(map[uint64][format.ContentHash128Size]byte)
}
