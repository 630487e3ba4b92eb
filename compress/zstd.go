package compress

// ZstdCodec compresses with Zstandard. It has the best ratio of the
// supported algorithms, making it the usual choice for archived JSON where
// decompression happens once per open.
//
// Two implementations exist behind the same type: a cgo binding to libzstd
// when cgo is available, and the pure-Go klauspost/compress/zstd otherwise.
// Both produce standard zstd frames and interoperate freely.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec.
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}
