// Package scan implements the structural indexing stage: a single pass over
// raw input bytes that produces the token tape consumed by lazy iteration.
//
// The scanner locates structural characters and value starts, finds each
// string's closing quote, matches brackets (recording twin indices on the
// tape), and enforces the nesting depth limit. It validates UTF-8 inside
// string spans and rejects raw control characters there.
//
// It deliberately does not validate grammar: comma and colon placement,
// literal spelling, number syntax, and escape sequence contents are all left
// to traversal-time checks, so a malformed region that is never visited costs
// nothing and is never reported.
//
// The scanner supports a streaming mode (atEOF=false) for batched
// multi-document input: it tracks the byte and token boundary of the last
// complete top-level value, so a batch window that cuts a document in half
// can be clipped at that boundary and the remainder rescanned in the next
// window. Errors past the boundary are classified as definite (they persist
// no matter how much more input follows) or indefinite (they may be an
// artifact of the window cut).
package scan
