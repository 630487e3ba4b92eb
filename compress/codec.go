package compress

import (
	"fmt"

	"github.com/arloliu/skim/format"
)

// Compressor compresses a complete input buffer.
type Compressor interface {
	// Compress compresses data and returns a newly allocated result. The
	// input is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor recovers the original bytes of a compressed input.
//
// Implementations validate the compressed framing and fail on corrupted or
// mismatched data rather than returning garbage, since the result is handed
// straight to the structural indexer.
type Decompressor interface {
	// Decompress decompresses data and returns a newly allocated result. The
	// input is not modified.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions behind one value.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCodec(),
	format.CompressionZstd: NewZstdCodec(),
	format.CompressionS2:   NewS2Codec(),
	format.CompressionLZ4:  NewLZ4Codec(),
}

// GetCodec returns the built-in codec for the given compression type.
func GetCodec(ct format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[ct]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", ct)
}
