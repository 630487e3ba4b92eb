package pool

import (
	"sync"

	"github.com/arloliu/skim/tape"
)

// Slice pools for efficient reuse of typed slices.
// These pools back the double-buffered structural index of document streams:
// the lookahead worker scans into a pooled token slice while the consumer
// still iterates the current one. Because the consumer and the worker swap
// buffers on every adoption, the slice returned via Put is routinely a
// different array than the one handed out by Get.
var (
	tokenSlicePool = sync.Pool{
		New: func() any { return &[]tape.Token{} },
	}
	uint32SlicePool = sync.Pool{
		New: func() any { return &[]uint32{} },
	}
)

// GetTokenSlice retrieves a token slice with at least the given capacity from
// the pool. The returned slice has zero length.
func GetTokenSlice(capacity int) []tape.Token {
	ptr, _ := tokenSlicePool.Get().(*[]tape.Token)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]tape.Token, 0, capacity)
	}

	return slice
}

// PutTokenSlice returns a token slice to the pool. The slice must not be
// used by the caller afterwards.
func PutTokenSlice(slice []tape.Token) {
	slice = slice[:0]
	tokenSlicePool.Put(&slice)
}

// GetUint32Slice retrieves a uint32 slice with at least the given capacity
// from the pool. Used for the scanner's bracket-matching stack. The returned
// slice has zero length.
func GetUint32Slice(capacity int) []uint32 {
	ptr, _ := uint32SlicePool.Get().(*[]uint32)
	slice := (*ptr)[:0]

	if cap(slice) < capacity {
		slice = make([]uint32, 0, capacity)
	}

	return slice
}

// PutUint32Slice returns a uint32 slice to the pool. The slice must not be
// used by the caller afterwards.
func PutUint32Slice(slice []uint32) {
	slice = slice[:0]
	uint32SlicePool.Put(&slice)
}
