package convert

import (
	"bytes"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/arloliu/skim/errs"
)

// NeedsUnescape reports whether raw string contents contain an escape
// sequence. When false, the raw bytes are already the materialized value.
func NeedsUnescape(raw []byte) bool {
	return bytes.IndexByte(raw, '\\') >= 0
}

// Unescape materializes raw string contents (the bytes between the quotes)
// into dst and returns the filled portion of dst.
//
// dst must have capacity of at least len(raw): an unescaped string is never
// longer than its escaped source. Invalid escape sequences, including
// malformed \uXXXX and unpaired surrogates, yield ErrUnescapedChars.
func Unescape(raw []byte, dst []byte) ([]byte, error) {
	dst = dst[:0]
	i := 0
	n := len(raw)

	for i < n {
		c := raw[i]
		if c != '\\' {
			dst = append(dst, c)
			i++

			continue
		}

		i++
		if i == n {
			return nil, fmt.Errorf("%w: trailing backslash", errs.ErrUnescapedChars)
		}

		switch raw[i] {
		case '"':
			dst = append(dst, '"')
		case '\\':
			dst = append(dst, '\\')
		case '/':
			dst = append(dst, '/')
		case 'b':
			dst = append(dst, '\b')
		case 'f':
			dst = append(dst, '\f')
		case 'n':
			dst = append(dst, '\n')
		case 'r':
			dst = append(dst, '\r')
		case 't':
			dst = append(dst, '\t')
		case 'u':
			r, size, err := decodeUnicodeEscape(raw[i-1:])
			if err != nil {
				return nil, err
			}
			dst = utf8.AppendRune(dst, r)
			i += size - 1 // i already sits on the 'u'

			continue
		default:
			return nil, fmt.Errorf("%w: invalid escape \\%c", errs.ErrUnescapedChars, raw[i])
		}
		i++
	}

	return dst, nil
}

// decodeUnicodeEscape decodes a \uXXXX sequence (and its low-surrogate pair
// when present) starting at raw[0] == '\\'. It returns the decoded rune and
// the total byte length consumed.
func decodeUnicodeEscape(raw []byte) (rune, int, error) {
	if len(raw) < 6 {
		return 0, 0, fmt.Errorf("%w: truncated unicode escape", errs.ErrUnescapedChars)
	}

	hi, ok := parseHex4(raw[2:6])
	if !ok {
		return 0, 0, fmt.Errorf("%w: invalid unicode escape", errs.ErrUnescapedChars)
	}

	if !utf16.IsSurrogate(rune(hi)) {
		return rune(hi), 6, nil
	}

	// High surrogate must be followed by an escaped low surrogate.
	if hi >= 0xDC00 {
		return 0, 0, fmt.Errorf("%w: unpaired low surrogate", errs.ErrUnescapedChars)
	}
	if len(raw) < 12 || raw[6] != '\\' || raw[7] != 'u' {
		return 0, 0, fmt.Errorf("%w: unpaired high surrogate", errs.ErrUnescapedChars)
	}

	lo, ok := parseHex4(raw[8:12])
	if !ok || lo < 0xDC00 || lo > 0xDFFF {
		return 0, 0, fmt.Errorf("%w: invalid surrogate pair", errs.ErrUnescapedChars)
	}

	return utf16.DecodeRune(rune(hi), rune(lo)), 12, nil
}

func parseHex4(h []byte) (uint32, bool) {
	var v uint32
	for _, c := range h {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= uint32(c - '0')
		case c >= 'a' && c <= 'f':
			v |= uint32(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= uint32(c-'A') + 10
		default:
			return 0, false
		}
	}

	return v, true
}
