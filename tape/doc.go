// Package tape defines the structural index shared between the scanning stage
// and the iteration engine.
//
// The structural index is a flat arena of Token records, one per structural
// character or value start in the input. Tokens reference the input and each
// other only through integer offsets and indices, never through pointers, so
// the whole index can live in a single reusable slice.
//
// # Token Layout
//
// Each Token records:
//
//   - Kind: which structural character or value class it marks
//   - Off:  byte offset of the token in the input buffer
//   - End:  one past the last byte of a scalar value (strings, numbers,
//     literals); unused for single-character structurals
//   - Twin: for container open/close tokens, the index of the matching
//     close/open token in the same tape
//
// The Twin link is what makes lazy traversal cheap: skipping an entire
// unvisited container is a single jump from its open token to its close token,
// with no re-scan of the bytes in between.
//
// Offsets and indices are uint32, which bounds a single indexed buffer at
// 4 GiB minus one byte.
package tape
