// Package strcache provides a small intern cache for materialized JSON
// strings.
//
// Object keys and short string values repeat heavily across documents of a
// stream. Interning lets repeated materializations of the same bytes share one
// Go string instead of allocating a fresh copy per document.
//
// Only escape-free strings are interned: for those the raw source bytes equal
// the materialized value, so a cache hit can be verified by direct byte
// comparison and a 64-bit hash collision can never surface a wrong string.
package strcache

import "github.com/arloliu/skim/internal/hash"

const (
	// defaultSlots is the number of direct-mapped cache slots. Must be a power of two.
	defaultSlots = 1024

	// MaxInternLen is the longest string worth interning. Longer strings are
	// rarely repeated and would evict many short keys worth of cache value.
	MaxInternLen = 64
)

type entry struct {
	sum uint64
	str string
}

// Cache is a direct-mapped intern cache keyed by xxHash64 of the raw bytes.
//
// A Cache is not safe for concurrent use; each parser owns its own.
type Cache struct {
	entries []entry
	mask    uint64
}

// New creates an intern cache with the default slot count.
func New() *Cache {
	return &Cache{
		entries: make([]entry, defaultSlots),
		mask:    defaultSlots - 1,
	}
}

// Intern returns a Go string equal to raw, reusing a previously materialized
// string when the same bytes were seen before.
//
// The caller must only pass escape-free string contents: the returned string
// is byte-for-byte identical to raw.
func (c *Cache) Intern(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if len(raw) > MaxInternLen {
		return string(raw)
	}

	sum := hash.ID(raw)
	e := &c.entries[sum&c.mask]
	if e.sum == sum && e.str == string(raw) {
		return e.str
	}

	s := string(raw)
	*e = entry{sum: sum, str: s}

	return s
}

// Reset drops all cached strings but keeps the slot array.
func (c *Cache) Reset() {
	clear(c.entries)
}
