package tape

import "math"

// MaxOffset is the largest byte offset a Token can address.
const MaxOffset = math.MaxUint32

// Kind identifies the structural class of a token.
type Kind uint8

const (
	KindInvalid     Kind = iota // KindInvalid is the zero value; it never appears in a valid tape.
	KindObjectOpen              // '{'
	KindObjectClose             // '}'
	KindArrayOpen               // '['
	KindArrayClose              // ']'
	KindColon                   // ':'
	KindComma                   // ','
	KindString                  // opening '"' of a string
	KindNumber                  // first byte of a number ('-' or digit)
	KindTrue                    // 't'
	KindFalse                   // 'f'
	KindNull                    // 'n'
)

func (k Kind) String() string {
	switch k {
	case KindObjectOpen:
		return "ObjectOpen"
	case KindObjectClose:
		return "ObjectClose"
	case KindArrayOpen:
		return "ArrayOpen"
	case KindArrayClose:
		return "ArrayClose"
	case KindColon:
		return "Colon"
	case KindComma:
		return "Comma"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindTrue:
		return "True"
	case KindFalse:
		return "False"
	case KindNull:
		return "Null"
	default:
		return "Invalid"
	}
}

// IsOpen reports whether the kind opens a container.
func (k Kind) IsOpen() bool {
	return k == KindObjectOpen || k == KindArrayOpen
}

// IsClose reports whether the kind closes a container.
func (k Kind) IsClose() bool {
	return k == KindObjectClose || k == KindArrayClose
}

// IsScalar reports whether the kind starts a scalar value.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindNumber, KindTrue, KindFalse, KindNull:
		return true
	default:
		return false
	}
}

// IsValueStart reports whether the kind can begin a JSON value.
func (k Kind) IsValueStart() bool {
	return k.IsOpen() || k.IsScalar()
}

// Token is one record of the structural index.
type Token struct {
	// Off is the byte offset of the token in the indexed buffer.
	Off uint32
	// End is one past the last byte of the value for scalar kinds.
	// For KindString it is one past the closing quote.
	End uint32
	// Twin is the tape index of the matching bracket for open/close kinds.
	Twin uint32
	// Kind is the structural class of this token.
	Kind Kind
}

// ValueEnd returns the tape index one past the last token of the value
// starting at index i. For containers this is the twin close plus one; for
// scalars it is i+1.
func ValueEnd(tokens []Token, i int) int {
	if tokens[i].Kind.IsOpen() {
		return int(tokens[i].Twin) + 1
	}

	return i + 1
}
