package ondemand

import (
	"bytes"
	"iter"

	"github.com/arloliu/skim/internal/convert"
	"github.com/arloliu/skim/tape"
)

// Object is a forward cursor over an object's fields. Grammar between
// fields (commas, colons, key strings) is validated as the cursor advances;
// the substructure of a field whose value is never entered is skipped in
// constant time and never validated.
type Object struct {
	it    *docIter
	next  int
	first bool
}

// Field is one name/value pair produced by an Object cursor. It stays
// valid while its document does; advancing the cursor does not invalidate
// earlier fields.
type Field struct {
	it   *docIter
	name int
	val  int
}

// Name materializes the field name, decoding escapes if present.
func (f *Field) Name() (string, error) {
	v := Value{it: f.it, tok: f.name}

	return v.String()
}

// RawName returns the field name's content bytes with quotes stripped and
// escapes left undecoded. The bytes alias the input buffer.
func (f *Field) RawName() []byte {
	tok := f.it.tokens[f.name]

	return f.it.data[tok.Off+1 : tok.End-1]
}

// Value returns the field's value handle.
func (f *Field) Value() *Value {
	return &Value{it: f.it, tok: f.val}
}

// NextField advances to the next field. It returns ok=false with a nil
// error at the closing brace. Structural errors (a missing comma or colon,
// a non-string key) latch on the document and repeat on further calls.
func (o *Object) NextField() (f *Field, ok bool, err error) {
	if o.it.err != nil {
		return nil, false, o.it.err
	}

	i := o.next
	if !o.first {
		switch k := o.it.kindAt(i); k {
		case tape.KindComma:
			i++
		case tape.KindObjectClose:
			return nil, false, nil
		default:
			return nil, false, o.it.tapeErr("expected ',' or '}' after object field, found %s", k)
		}
	} else {
		o.first = false
		if o.it.kindAt(i) == tape.KindObjectClose {
			return nil, false, nil
		}
	}

	if k := o.it.kindAt(i); k != tape.KindString {
		return nil, false, o.it.tapeErr("expected field name string, found %s", k)
	}
	name := i
	i++
	if k := o.it.kindAt(i); k != tape.KindColon {
		return nil, false, o.it.tapeErr("expected ':' after field name, found %s", k)
	}
	i++
	if k := o.it.kindAt(i); !k.IsValueStart() {
		return nil, false, o.it.tapeErr("expected value after ':', found %s", k)
	}

	o.next = tape.ValueEnd(o.it.tokens, i)

	return &Field{it: o.it, name: name, val: i}, true, nil
}

// Find scans forward from the cursor's current position for a field with
// the given name, decoding escaped names as needed. It consumes the cursor:
// fields passed over are gone, and a hit leaves the cursor just after the
// found field. Returns ok=false with a nil error when no remaining field
// matches.
func (o *Object) Find(name string) (v *Value, ok bool, err error) {
	for {
		f, ok, err := o.NextField()
		if err != nil || !ok {
			return nil, false, err
		}

		raw := f.RawName()
		if !convert.NeedsUnescape(raw) {
			if bytes.Equal(raw, []byte(name)) {
				return f.Value(), true, nil
			}

			continue
		}

		decoded, err := f.Name()
		if err != nil {
			return nil, false, err
		}
		if decoded == name {
			return f.Value(), true, nil
		}
	}
}

// Fields iterates the remaining fields. A structural error is yielded once
// with a nil field, then iteration stops.
func (o *Object) Fields() iter.Seq2[*Field, error] {
	return func(yield func(*Field, error) bool) {
		for {
			f, ok, err := o.NextField()
			if err != nil {
				yield(nil, err)

				return
			}
			if !ok {
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}
