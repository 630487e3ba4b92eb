// Package errs defines the sentinel errors shared across skim packages.
//
// Every fallible operation in skim reports one of these values, possibly
// wrapped with positional context via fmt.Errorf("...: %w", err). Callers
// classify outcomes with errors.Is:
//
//	doc, err := parser.Iterate(data)
//	if errors.Is(err, errs.ErrEmpty) {
//	    // input was all whitespace
//	}
//
// The taxonomy is flat. Input-validity errors (ErrUTF8, ErrUncloseString, ...)
// mean the bytes are malformed and retrying is pointless; resource errors
// (ErrCapacityExceeded, ErrMemoryAllocation) mean the parser was not given
// enough room and the caller may retry after adjusting capacity.
package errs

import "errors"

var (
	// ErrMemoryAllocation indicates a buffer could not be allocated because the
	// requested size is not representable by the parser's internal offsets.
	ErrMemoryAllocation = errors.New("memory allocation failed")

	// ErrCapacityExceeded indicates a requested capacity is above the parser's
	// configured maximum capacity.
	ErrCapacityExceeded = errors.New("requested capacity exceeds maximum capacity")

	// ErrEmpty indicates the input document contained nothing but whitespace.
	ErrEmpty = errors.New("empty document")

	// ErrUTF8 indicates the input is not valid UTF-8.
	ErrUTF8 = errors.New("invalid UTF-8 encoding")

	// ErrUnescapedChars indicates a string contains a raw control character
	// that must be escaped, or an invalid escape sequence.
	ErrUnescapedChars = errors.New("unescaped or invalid characters in string")

	// ErrUncloseString indicates the input ends inside a string literal.
	ErrUncloseString = errors.New("unclosed string")

	// ErrDepthExceeded indicates object/array nesting deeper than the parser's
	// configured maximum depth.
	ErrDepthExceeded = errors.New("maximum nesting depth exceeded")

	// ErrIncorrectType indicates a navigation mismatch, such as requesting an
	// object at a position holding an array or scalar.
	ErrIncorrectType = errors.New("incorrect value type")

	// ErrTapeError indicates the structural index and the iterator disagree.
	// It reports malformed structure discovered during traversal (mismatched
	// brackets, misplaced commas or colons, bad literals) as well as internal
	// bookkeeping inconsistencies.
	ErrTapeError = errors.New("structural index inconsistency")

	// ErrOutOfBounds indicates access past the end of a container.
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrNumberFormat indicates a malformed numeric literal.
	ErrNumberFormat = errors.New("malformed number")

	// ErrParserInUse indicates an attempt to start a new iteration while a
	// previous Document or DocumentStream of the same parser is still open.
	ErrParserInUse = errors.New("parser already has a live iteration")

	// ErrStaleView indicates access to a zero-copy string view after the
	// parser's scratch buffer has been reused for a newer materialization.
	ErrStaleView = errors.New("stale string view")

	// ErrBatchCapacity indicates no complete document fits within one batch of
	// a document stream; the batch size is smaller than a single document.
	ErrBatchCapacity = errors.New("document exceeds batch capacity")
)
