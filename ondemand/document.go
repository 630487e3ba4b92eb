package ondemand

import (
	"fmt"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/format"
	"github.com/arloliu/skim/tape"
)

// docIter is the shared cursor state behind Document, Value, Object and
// Array. Token indices are absolute positions in tokens; the document spans
// [start, end).
type docIter struct {
	parser *Parser
	data   []byte
	tokens []tape.Token
	start  int
	end    int

	// err latches the first structural error. Once set, every traversal
	// operation returns it; scalar conversion failures do not latch so a
	// caller may retry a value with a different accessor.
	err error
}

// kindAt returns the token kind at index i, or KindInvalid when i falls
// outside the document span. Out-of-span reads indicate tape corruption and
// are turned into ErrTapeError by the callers.
func (it *docIter) kindAt(i int) tape.Kind {
	if i < it.start || i >= it.end {
		return tape.KindInvalid
	}

	return it.tokens[i].Kind
}

func (it *docIter) fail(err error) error {
	if it.err == nil {
		it.err = err
	}

	return err
}

func (it *docIter) tapeErr(msg string, args ...any) error {
	return it.fail(fmt.Errorf("%w: "+msg, append([]any{errs.ErrTapeError}, args...)...))
}

// rawSpan returns the input bytes covering the whole value starting at
// token i, including brackets or quotes.
func (it *docIter) rawSpan(i int) []byte {
	tok := it.tokens[i]
	if tok.Kind.IsOpen() {
		closing := it.tokens[tok.Twin]

		return it.data[tok.Off : closing.Off+1]
	}

	return it.data[tok.Off:tok.End]
}

// Document is a single parsed document positioned at its root value. It
// borrows the parser's tape and the caller's input bytes; both must outlive
// it. Close releases the parser for the next iteration.
type Document struct {
	it      docIter
	release func()
}

// Value returns the document's root value. Calling it again returns a fresh
// cursor anchored at the root.
func (d *Document) Value() *Value {
	return &Value{it: &d.it, tok: d.it.start}
}

// Type reports the root value's type without materializing it.
func (d *Document) Type() format.ValueType {
	return d.Value().Type()
}

// Object materializes the root as an object iterator. Shorthand for
// Value().Object().
func (d *Document) Object() (*Object, error) {
	return d.Value().Object()
}

// Array materializes the root as an array iterator. Shorthand for
// Value().Array().
func (d *Document) Array() (*Array, error) {
	return d.Value().Array()
}

// Raw returns the raw input bytes of the whole document value, trimmed of
// surrounding whitespace.
func (d *Document) Raw() []byte {
	if d.it.start >= d.it.end {
		return nil
	}

	return d.it.rawSpan(d.it.start)
}

// Close releases the parser lease. It is safe to call more than once; only
// the first call has an effect. Values, objects, arrays and string views
// derived from the document must not be used after Close.
func (d *Document) Close() {
	if d.release != nil {
		d.release()
		d.release = nil
	}
}
