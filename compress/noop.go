package compress

// NoOpCodec passes data through unchanged. It backs format.CompressionNone
// and doubles as a baseline in benchmarks.
//
// Both directions return the input slice itself, sharing its memory.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Compress returns data as-is.
func (c NoOpCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data as-is.
func (c NoOpCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
