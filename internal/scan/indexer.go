package scan

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/tape"
)

// Result carries the outcome of one indexing pass.
type Result struct {
	// Tokens is the produced tape, appended onto the dst slice passed to Index.
	Tokens []tape.Token
	// Stack is the bracket stack slice, returned so callers can reuse its capacity.
	Stack []uint32

	// BoundaryTokens is the number of leading tokens that form complete
	// top-level values.
	BoundaryTokens int
	// BoundaryBytes is the offset one past the last complete top-level value.
	BoundaryBytes int

	// Err is the first error that stopped the scan, nil when the whole buffer
	// was indexed.
	Err error
	// ErrOff is the byte offset at which Err was detected.
	ErrOff int
	// Definite reports whether Err would persist regardless of further input.
	// A window cut can fake an unclosed string or container; it cannot fake a
	// control character or a bracket mismatch.
	Definite bool
}

var whitespace = [256]bool{' ': true, '\t': true, '\n': true, '\r': true}

// isAtomDelim marks bytes that terminate a number or literal atom.
var isAtomDelim = [256]bool{
	' ': true, '\t': true, '\n': true, '\r': true,
	',': true, ':': true,
	'{': true, '}': true, '[': true, ']': true,
	'"': true,
}

// Index scans buf and produces its structural token tape.
//
// Tokens are appended to dst (reset to zero length first); the bracket stack
// reuses the stack slice. Offsets in the produced tokens are relative to buf.
// atEOF tells the scanner whether buf ends at true end of input; when false,
// conditions that may be artifacts of a window cut are left to the boundary
// bookkeeping instead of being reported as errors.
func Index(buf []byte, dst []tape.Token, stack []uint32, maxDepth int, atEOF bool) Result {
	res := Result{Tokens: dst[:0], Stack: stack[:0]}
	n := len(buf)
	i := 0

	fail := func(err error, off int, definite bool) {
		res.Err = err
		res.ErrOff = off
		res.Definite = definite
	}

	for i < n {
		c := buf[i]
		if whitespace[c] {
			i++

			continue
		}

		switch c {
		case '{', '[':
			if len(res.Stack) >= maxDepth {
				fail(fmt.Errorf("%w: depth %d at offset %d", errs.ErrDepthExceeded, maxDepth+1, i), i, true)
				res.Stack = res.Stack[:0]

				return res
			}
			kind := tape.KindObjectOpen
			if c == '[' {
				kind = tape.KindArrayOpen
			}
			res.Stack = append(res.Stack, uint32(len(res.Tokens)))
			res.Tokens = append(res.Tokens, tape.Token{Kind: kind, Off: uint32(i)})
			i++

		case '}', ']':
			if len(res.Stack) == 0 {
				fail(fmt.Errorf("%w: unmatched %q at offset %d", errs.ErrTapeError, c, i), i, true)

				return res
			}
			openIdx := res.Stack[len(res.Stack)-1]
			open := res.Tokens[openIdx]
			kind := tape.KindObjectClose
			if c == ']' {
				kind = tape.KindArrayClose
			}
			if (kind == tape.KindObjectClose) != (open.Kind == tape.KindObjectOpen) {
				fail(fmt.Errorf("%w: %q closes %s opened at offset %d", errs.ErrTapeError, c, open.Kind, open.Off), i, true)

				return res
			}
			res.Stack = res.Stack[:len(res.Stack)-1]
			closeIdx := uint32(len(res.Tokens))
			res.Tokens[openIdx].Twin = closeIdx
			res.Tokens = append(res.Tokens, tape.Token{Kind: kind, Off: uint32(i), Twin: openIdx})
			i++
			if len(res.Stack) == 0 {
				res.BoundaryTokens = len(res.Tokens)
				res.BoundaryBytes = i
			}

		case ':':
			res.Tokens = append(res.Tokens, tape.Token{Kind: tape.KindColon, Off: uint32(i)})
			i++

		case ',':
			res.Tokens = append(res.Tokens, tape.Token{Kind: tape.KindComma, Off: uint32(i)})
			i++

		case '"':
			end, errOff, definite, err := scanString(buf, i, atEOF)
			if err != nil {
				fail(err, errOff, definite)

				return res
			}
			res.Tokens = append(res.Tokens, tape.Token{Kind: tape.KindString, Off: uint32(i), End: uint32(end)})
			i = end
			if len(res.Stack) == 0 {
				res.BoundaryTokens = len(res.Tokens)
				res.BoundaryBytes = i
			}

		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 't', 'f', 'n':
			kind := tape.KindNumber
			switch c {
			case 't':
				kind = tape.KindTrue
			case 'f':
				kind = tape.KindFalse
			case 'n':
				kind = tape.KindNull
			}
			end := scanAtom(buf, i)
			res.Tokens = append(res.Tokens, tape.Token{Kind: kind, Off: uint32(i), End: uint32(end)})
			i = end
			// An atom running into the window edge may be cut short; only a
			// delimited atom can complete a top-level document.
			if len(res.Stack) == 0 && (end < n || atEOF) {
				res.BoundaryTokens = len(res.Tokens)
				res.BoundaryBytes = i
			}

		default:
			fail(fmt.Errorf("%w: unexpected byte %q at offset %d", errs.ErrTapeError, c, i), i, true)

			return res
		}
	}

	if atEOF && len(res.Stack) > 0 {
		openOff := int(res.Tokens[res.Stack[len(res.Stack)-1]].Off)
		fail(fmt.Errorf("%w: container opened at offset %d is never closed", errs.ErrTapeError, openOff), openOff, true)
		res.Stack = res.Stack[:0]
	}

	return res
}

const (
	lsbMask = 0x0101010101010101
	msbMask = 0x8080808080808080
)

// hasByteLess reports whether any byte of w is strictly below limit.
// limit must be at most 0x80.
func hasByteLess(w uint64, limit byte) bool {
	return (w-lsbMask*uint64(limit))&^w&msbMask != 0
}

// hasByteEqual reports whether any byte of w equals b.
func hasByteEqual(w uint64, b byte) bool {
	x := w ^ (lsbMask * uint64(b))
	return (x-lsbMask)&^x&msbMask != 0
}

// scanString finds the closing quote of the string opening at buf[start].
// It returns the offset one past the closing quote. String contents are
// checked for raw control characters and validated as UTF-8; escape sequence
// contents are left to materialization.
func scanString(buf []byte, start int, atEOF bool) (end int, errOff int, definite bool, err error) {
	n := len(buf)
	j := start + 1

	for j < n {
		// Skip words containing no quote, backslash, or control character.
		for j+8 <= n {
			w := binary.LittleEndian.Uint64(buf[j:])
			if hasByteEqual(w, '"') || hasByteEqual(w, '\\') || hasByteLess(w, 0x20) {
				break
			}
			j += 8
		}
		if j >= n {
			break
		}

		c := buf[j]
		switch {
		case c == '"':
			if !utf8.Valid(buf[start+1 : j]) {
				return 0, start, true, fmt.Errorf("%w: in string at offset %d", errs.ErrUTF8, start)
			}

			return j + 1, 0, false, nil
		case c == '\\':
			j += 2
		case c < 0x20:
			return 0, j, true, fmt.Errorf("%w: control character 0x%02x at offset %d", errs.ErrUnescapedChars, c, j)
		default:
			j++
		}
	}

	return 0, start, atEOF, fmt.Errorf("%w: string opened at offset %d", errs.ErrUncloseString, start)
}

// scanAtom returns the offset one past a number or literal atom starting at
// buf[start]. The atom's spelling is not validated here.
func scanAtom(buf []byte, start int) int {
	j := start + 1
	for j < len(buf) && !isAtomDelim[buf[j]] {
		j++
	}

	return j
}
