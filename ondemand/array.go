package ondemand

import (
	"fmt"
	"iter"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/tape"
)

// Array is a forward cursor over an array's elements. Comma placement is
// validated as the cursor advances; elements that are skipped over keep
// their substructure unvalidated.
type Array struct {
	it    *docIter
	next  int
	first bool
}

// NextElement advances to the next element. It returns ok=false with a nil
// error at the closing bracket. Structural errors latch on the document and
// repeat on further calls.
func (a *Array) NextElement() (v *Value, ok bool, err error) {
	if a.it.err != nil {
		return nil, false, a.it.err
	}

	i := a.next
	if !a.first {
		switch k := a.it.kindAt(i); k {
		case tape.KindComma:
			i++
		case tape.KindArrayClose:
			return nil, false, nil
		default:
			return nil, false, a.it.tapeErr("expected ',' or ']' after array element, found %s", k)
		}
	} else {
		a.first = false
		if a.it.kindAt(i) == tape.KindArrayClose {
			return nil, false, nil
		}
	}

	if k := a.it.kindAt(i); !k.IsValueStart() {
		return nil, false, a.it.tapeErr("expected array element, found %s", k)
	}

	a.next = tape.ValueEnd(a.it.tokens, i)

	return &Value{it: a.it, tok: i}, true, nil
}

// At returns the element at index n counting from the cursor's current
// position, consuming everything up to and including it. An index past the
// end of the array fails with errs.ErrOutOfBounds.
func (a *Array) At(n int) (*Value, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative index %d", errs.ErrOutOfBounds, n)
	}
	for skipped := 0; ; skipped++ {
		v, ok, err := a.NextElement()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: index %d past end of array", errs.ErrOutOfBounds, n)
		}
		if skipped == n {
			return v, nil
		}
	}
}

// Elements iterates the remaining elements. A structural error is yielded
// once with a nil value, then iteration stops.
func (a *Array) Elements() iter.Seq2[*Value, error] {
	return func(yield func(*Value, error) bool) {
		for {
			v, ok, err := a.NextElement()
			if err != nil {
				yield(nil, err)

				return
			}
			if !ok {
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
