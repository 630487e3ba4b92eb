package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given raw bytes.
func ID(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// IDString computes the xxHash64 of the given string.
func IDString(data string) uint64 {
	return xxhash.Sum64String(data)
}
