// Package compress provides the decompression codecs used to open compressed
// JSON inputs.
//
// Large JSON archives, and ndjson streams in particular, are usually stored
// compressed. This package decodes such inputs into a plain byte buffer that
// the parser can index, and offers the matching compressors for writing
// archives back out.
//
// Four algorithms are supported, selected by format.CompressionType:
//
//   - None: pass-through, for inputs that are already plain bytes
//   - Zstd: best ratio, the usual choice for cold archives
//   - S2: balanced ratio and speed
//   - LZ4: fastest decompression, for hot read paths
//
// All codecs are stateless values, safe for concurrent use; the zstd and lz4
// implementations pool their encoder and decoder state internally.
package compress
