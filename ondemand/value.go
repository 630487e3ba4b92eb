package ondemand

import (
	"bytes"
	"fmt"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/format"
	"github.com/arloliu/skim/internal/convert"
	"github.com/arloliu/skim/tape"
)

// Value is a lazy handle on one JSON value: a token position on the tape.
// Nothing about the value has been validated or decoded until an accessor
// is called. Accessors may be retried; asking an object for Float returns
// errs.ErrIncorrectType and leaves the value usable.
type Value struct {
	it  *docIter
	tok int
}

var kindToType = [...]format.ValueType{
	tape.KindObjectOpen: format.TypeObject,
	tape.KindArrayOpen:  format.TypeArray,
	tape.KindString:     format.TypeString,
	tape.KindNumber:     format.TypeNumber,
	tape.KindTrue:       format.TypeBool,
	tape.KindFalse:      format.TypeBool,
	tape.KindNull:       format.TypeNull,
}

// Type reports the value's type from its first byte, without validating or
// decoding anything. A corrupt tape position reports the zero ValueType.
func (v *Value) Type() format.ValueType {
	k := v.it.kindAt(v.tok)
	if int(k) >= len(kindToType) {
		return 0
	}

	return kindToType[k]
}

// Raw returns the raw input bytes of the value, including quotes for
// strings and brackets for containers. The bytes alias the input buffer.
func (v *Value) Raw() ([]byte, error) {
	if v.it.err != nil {
		return nil, v.it.err
	}
	if k := v.it.kindAt(v.tok); !k.IsValueStart() {
		return nil, v.it.tapeErr("token %s is not a value", k)
	}

	return v.it.rawSpan(v.tok), nil
}

// Object begins iterating the value as an object. Fails with
// errs.ErrIncorrectType when the value is not an object.
func (v *Value) Object() (*Object, error) {
	if v.it.err != nil {
		return nil, v.it.err
	}
	if k := v.it.kindAt(v.tok); k != tape.KindObjectOpen {
		return nil, fmt.Errorf("%w: expected object, found %s", errs.ErrIncorrectType, kindName(k))
	}

	return &Object{it: v.it, next: v.tok + 1, first: true}, nil
}

// Array begins iterating the value as an array. Fails with
// errs.ErrIncorrectType when the value is not an array.
func (v *Value) Array() (*Array, error) {
	if v.it.err != nil {
		return nil, v.it.err
	}
	if k := v.it.kindAt(v.tok); k != tape.KindArrayOpen {
		return nil, fmt.Errorf("%w: expected array, found %s", errs.ErrIncorrectType, kindName(k))
	}

	return &Array{it: v.it, next: v.tok + 1, first: true}, nil
}

// String materializes the value as a Go string. Escape sequences are
// decoded; escape-free strings are interned so repeated keys and values
// share storage. The result is a stable copy, safe to keep after the
// document is closed.
func (v *Value) String() (string, error) {
	raw, err := v.stringSpan()
	if err != nil {
		return "", err
	}
	if !convert.NeedsUnescape(raw) {
		return v.it.parser.intern(raw), nil
	}

	out, err := convert.Unescape(raw, v.it.parser.scratchBytes())
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// StringBytes materializes the value as a zero-copy view. Escape-free
// strings view the input buffer directly and stay valid as long as it does.
// Strings with escapes are decoded into the parser's scratch buffer; that
// view is invalidated by the next string materialization on the same
// parser, and reading it after that fails with errs.ErrStaleView instead of
// returning overwritten bytes.
func (v *Value) StringBytes() (StringView, error) {
	raw, err := v.stringSpan()
	if err != nil {
		return StringView{}, err
	}
	if !convert.NeedsUnescape(raw) {
		return StringView{b: raw}, nil
	}

	out, err := convert.Unescape(raw, v.it.parser.scratchBytes())
	if err != nil {
		return StringView{}, err
	}

	return StringView{b: out, parser: v.it.parser, gen: v.it.parser.generation}, nil
}

// stringSpan returns the quoted string's content bytes, quotes excluded.
func (v *Value) stringSpan() ([]byte, error) {
	if v.it.err != nil {
		return nil, v.it.err
	}
	if k := v.it.kindAt(v.tok); k != tape.KindString {
		return nil, fmt.Errorf("%w: expected string, found %s", errs.ErrIncorrectType, kindName(k))
	}
	tok := v.it.tokens[v.tok]

	return v.it.data[tok.Off+1 : tok.End-1], nil
}

// Float materializes the value as a float64. Number syntax is validated
// here, not during indexing; malformed digits fail with
// errs.ErrNumberFormat.
func (v *Value) Float() (float64, error) {
	raw, err := v.numberSpan()
	if err != nil {
		return 0, err
	}

	return convert.ParseFloat(raw)
}

// Int materializes the value as an int64. Numbers with a fraction or
// exponent fail with errs.ErrIncorrectType; integers outside the int64
// range fail with errs.ErrNumberFormat.
func (v *Value) Int() (int64, error) {
	raw, err := v.numberSpan()
	if err != nil {
		return 0, err
	}

	return convert.ParseInt(raw)
}

// Uint materializes the value as a uint64. Negative or non-integer numbers
// fail with errs.ErrIncorrectType; values above the uint64 range fail with
// errs.ErrNumberFormat.
func (v *Value) Uint() (uint64, error) {
	raw, err := v.numberSpan()
	if err != nil {
		return 0, err
	}

	return convert.ParseUint(raw)
}

func (v *Value) numberSpan() ([]byte, error) {
	if v.it.err != nil {
		return nil, v.it.err
	}
	if k := v.it.kindAt(v.tok); k != tape.KindNumber {
		return nil, fmt.Errorf("%w: expected number, found %s", errs.ErrIncorrectType, kindName(k))
	}
	tok := v.it.tokens[v.tok]

	return v.it.data[tok.Off:tok.End], nil
}

var (
	litTrue  = []byte("true")
	litFalse = []byte("false")
	litNull  = []byte("null")
)

// Bool materializes the value as a bool. Literal spelling is validated
// here; a run like "tru" that indexed as a candidate literal fails with
// errs.ErrIncorrectType.
func (v *Value) Bool() (bool, error) {
	if v.it.err != nil {
		return false, v.it.err
	}
	switch k := v.it.kindAt(v.tok); k {
	case tape.KindTrue, tape.KindFalse:
	default:
		return false, fmt.Errorf("%w: expected bool, found %s", errs.ErrIncorrectType, kindName(k))
	}
	tok := v.it.tokens[v.tok]
	raw := v.it.data[tok.Off:tok.End]
	if tok.Kind == tape.KindTrue {
		if !bytes.Equal(raw, litTrue) {
			return false, fmt.Errorf("%w: malformed literal %q", errs.ErrIncorrectType, raw)
		}

		return true, nil
	}
	if !bytes.Equal(raw, litFalse) {
		return false, fmt.Errorf("%w: malformed literal %q", errs.ErrIncorrectType, raw)
	}

	return false, nil
}

// IsNull reports whether the value is the null literal. A run like "nul"
// that indexed as a candidate literal fails with errs.ErrIncorrectType.
func (v *Value) IsNull() (bool, error) {
	if v.it.err != nil {
		return false, v.it.err
	}
	if v.it.kindAt(v.tok) != tape.KindNull {
		return false, nil
	}
	tok := v.it.tokens[v.tok]
	if raw := v.it.data[tok.Off:tok.End]; !bytes.Equal(raw, litNull) {
		return false, fmt.Errorf("%w: malformed literal %q", errs.ErrIncorrectType, raw)
	}

	return true, nil
}

func kindName(k tape.Kind) string {
	switch k {
	case tape.KindObjectOpen:
		return "object"
	case tape.KindArrayOpen:
		return "array"
	case tape.KindString:
		return "string"
	case tape.KindNumber:
		return "number"
	case tape.KindTrue, tape.KindFalse:
		return "bool"
	case tape.KindNull:
		return "null"
	default:
		return k.String()
	}
}

// StringView is a zero-copy window on string bytes. Views over escape-free
// strings alias the input buffer and carry no expiry; views over decoded
// escapes alias the parser's scratch buffer and expire at the next string
// materialization.
type StringView struct {
	b      []byte
	parser *Parser
	gen    uint64
}

// Bytes returns the viewed bytes, or errs.ErrStaleView when the underlying
// scratch region has been reused since the view was created.
func (sv StringView) Bytes() ([]byte, error) {
	if sv.parser != nil && sv.parser.generation != sv.gen {
		return nil, errs.ErrStaleView
	}

	return sv.b, nil
}
