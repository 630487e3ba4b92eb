package convert

import (
	"fmt"
	"strconv"

	"github.com/arloliu/skim/errs"
)

// ValidateNumber checks raw against the JSON number grammar:
//
//	-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?
//
// It reports whether the literal is an integer (no fraction, no exponent).
func ValidateNumber(raw []byte) (isInt bool, err error) {
	i := 0
	n := len(raw)
	if n == 0 {
		return false, errs.ErrNumberFormat
	}

	if raw[i] == '-' {
		i++
		if i == n {
			return false, fmt.Errorf("%w: lone minus sign", errs.ErrNumberFormat)
		}
	}

	// Integer part: a single zero, or a nonzero digit followed by digits.
	switch {
	case raw[i] == '0':
		i++
	case raw[i] >= '1' && raw[i] <= '9':
		for i < n && raw[i] >= '0' && raw[i] <= '9' {
			i++
		}
	default:
		return false, fmt.Errorf("%w: invalid leading byte %q", errs.ErrNumberFormat, raw[i])
	}

	isInt = true

	if i < n && raw[i] == '.' {
		isInt = false
		i++
		if i == n || raw[i] < '0' || raw[i] > '9' {
			return false, fmt.Errorf("%w: missing fraction digits", errs.ErrNumberFormat)
		}
		for i < n && raw[i] >= '0' && raw[i] <= '9' {
			i++
		}
	}

	if i < n && (raw[i] == 'e' || raw[i] == 'E') {
		isInt = false
		i++
		if i < n && (raw[i] == '+' || raw[i] == '-') {
			i++
		}
		if i == n || raw[i] < '0' || raw[i] > '9' {
			return false, fmt.Errorf("%w: missing exponent digits", errs.ErrNumberFormat)
		}
		for i < n && raw[i] >= '0' && raw[i] <= '9' {
			i++
		}
	}

	if i != n {
		return false, fmt.Errorf("%w: trailing bytes after number", errs.ErrNumberFormat)
	}

	return isInt, nil
}

// ParseFloat materializes raw as a float64.
func ParseFloat(raw []byte) (float64, error) {
	if _, err := ValidateNumber(raw); err != nil {
		return 0, err
	}

	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrNumberFormat, raw)
	}

	return f, nil
}

// ParseInt materializes raw as an int64. Literals with a fraction or exponent
// are rejected even when they denote an integral value.
func ParseInt(raw []byte) (int64, error) {
	isInt, err := ValidateNumber(raw)
	if err != nil {
		return 0, err
	}
	if !isInt {
		return 0, fmt.Errorf("%w: not an integer literal", errs.ErrIncorrectType)
	}

	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrNumberFormat, raw)
	}

	return v, nil
}

// ParseUint materializes raw as a uint64. Negative literals are rejected.
func ParseUint(raw []byte) (uint64, error) {
	isInt, err := ValidateNumber(raw)
	if err != nil {
		return 0, err
	}
	if !isInt {
		return 0, fmt.Errorf("%w: not an integer literal", errs.ErrIncorrectType)
	}
	if len(raw) > 0 && raw[0] == '-' {
		return 0, fmt.Errorf("%w: negative literal", errs.ErrIncorrectType)
	}

	v, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", errs.ErrNumberFormat, raw)
	}

	return v, nil
}
