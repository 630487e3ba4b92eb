package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/skim/errs"
	"github.com/arloliu/skim/tape"
)

func index(t *testing.T, input string) Result {
	t.Helper()
	return Index([]byte(input), nil, nil, 1024, true)
}

func kinds(tokens []tape.Token) []tape.Kind {
	out := make([]tape.Kind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Kind
	}

	return out
}

func TestIndex_SimpleObject(t *testing.T) {
	res := index(t, `{"a":1,"b":true}`)
	require.NoError(t, res.Err)

	assert.Equal(t, []tape.Kind{
		tape.KindObjectOpen,
		tape.KindString, tape.KindColon, tape.KindNumber, tape.KindComma,
		tape.KindString, tape.KindColon, tape.KindTrue,
		tape.KindObjectClose,
	}, kinds(res.Tokens))

	// Twin links connect the braces both ways.
	open := res.Tokens[0]
	closing := res.Tokens[len(res.Tokens)-1]
	assert.Equal(t, uint32(len(res.Tokens)-1), open.Twin)
	assert.Equal(t, uint32(0), closing.Twin)

	assert.Equal(t, len(res.Tokens), res.BoundaryTokens)
	assert.Equal(t, len(`{"a":1,"b":true}`), res.BoundaryBytes)
}

func TestIndex_NestedTwins(t *testing.T) {
	res := index(t, `[[1,[2]],3]`)
	require.NoError(t, res.Err)

	// Outer array twins.
	last := uint32(len(res.Tokens) - 1)
	assert.Equal(t, last, res.Tokens[0].Twin)

	// Every open token's twin must point at the matching close kind.
	for i, tok := range res.Tokens {
		if tok.Kind.IsOpen() {
			twin := res.Tokens[tok.Twin]
			assert.True(t, twin.Kind.IsClose(), "token %d twin should close", i)
			assert.Equal(t, uint32(i), twin.Twin)
		}
	}
}

func TestIndex_ScalarDocuments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind tape.Kind
	}{
		{"string", `"hello"`, tape.KindString},
		{"number", `-12.5e3`, tape.KindNumber},
		{"true", `true`, tape.KindTrue},
		{"false", `false`, tape.KindFalse},
		{"null", `null`, tape.KindNull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := index(t, tt.in)
			require.NoError(t, res.Err)
			require.Len(t, res.Tokens, 1)
			assert.Equal(t, tt.kind, res.Tokens[0].Kind)
			assert.Equal(t, len(tt.in), int(res.Tokens[0].End))
			assert.Equal(t, 1, res.BoundaryTokens)
		})
	}
}

func TestIndex_StringEscapes(t *testing.T) {
	res := index(t, `"a\"b\\c"`)
	require.NoError(t, res.Err)
	require.Len(t, res.Tokens, 1)
	assert.Equal(t, len(`"a\"b\\c"`), int(res.Tokens[0].End))
}

func TestIndex_LongString(t *testing.T) {
	// Force the word-at-a-time path well past one 8-byte block.
	content := strings.Repeat("abcdefg ", 50)
	res := index(t, `"`+content+`"`)
	require.NoError(t, res.Err)
	require.Len(t, res.Tokens, 1)
	assert.Equal(t, len(content)+2, int(res.Tokens[0].End))
}

func TestIndex_Whitespace(t *testing.T) {
	res := index(t, " \t\r\n ")
	require.NoError(t, res.Err)
	assert.Empty(t, res.Tokens)
	assert.Equal(t, 0, res.BoundaryTokens)
}

func TestIndex_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"unclosed string", `{"a": "bc`, errs.ErrUncloseString},
		{"control char in string", "\"a\x01b\"", errs.ErrUnescapedChars},
		{"mismatched close", `{"a":[1}`, errs.ErrTapeError},
		{"unmatched close", `]`, errs.ErrTapeError},
		{"unclosed container", `{"a":1`, errs.ErrTapeError},
		{"unexpected byte", `@`, errs.ErrTapeError},
		{"invalid utf8 in string", "\"ab\xff\"", errs.ErrUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := index(t, tt.in)
			require.Error(t, res.Err)
			assert.ErrorIs(t, res.Err, tt.err)
			assert.True(t, res.Definite, "errors at EOF are always definite")
		})
	}
}

func TestIndex_LazyLeavesGrammarAlone(t *testing.T) {
	// Misspelled literals, bad numbers, and bad escapes are not scan errors.
	for _, in := range []string{`[tru]`, `[1ee5]`, `["\q"]`, `[nul]`} {
		res := index(t, in)
		require.NoError(t, res.Err, "input %s", in)
	}
}

func TestIndex_DepthLimit(t *testing.T) {
	const depth = 16
	nested := strings.Repeat("[", depth) + strings.Repeat("]", depth)

	res := Index([]byte(nested), nil, nil, depth, true)
	require.NoError(t, res.Err, "nesting exactly at the limit should pass")

	deeper := strings.Repeat("[", depth+1) + strings.Repeat("]", depth+1)
	res = Index([]byte(deeper), nil, nil, depth, true)
	require.ErrorIs(t, res.Err, errs.ErrDepthExceeded)
}

func TestIndex_MultipleDocuments(t *testing.T) {
	res := index(t, `{"a":1}{"a":2} {"a":3}`)
	require.NoError(t, res.Err)
	assert.Equal(t, len(res.Tokens), res.BoundaryTokens)

	// Three object opens at top level.
	opens := 0
	for _, tok := range res.Tokens {
		if tok.Kind == tape.KindObjectOpen {
			opens++
		}
	}
	assert.Equal(t, 3, opens)
}

func TestIndex_Streaming(t *testing.T) {
	t.Run("CutInsideDocument", func(t *testing.T) {
		full := `{"a":1}{"bbbb":`
		res := Index([]byte(full), nil, nil, 1024, false)
		require.NoError(t, res.Err, "a cut container is not an error before EOF")
		assert.Equal(t, len(`{"a":1}`), res.BoundaryBytes)
	})

	t.Run("CutInsideString", func(t *testing.T) {
		full := `{"a":1} "bc`
		res := Index([]byte(full), nil, nil, 1024, false)
		require.Error(t, res.Err)
		assert.ErrorIs(t, res.Err, errs.ErrUncloseString)
		assert.False(t, res.Definite, "unclosed string before EOF may be a window artifact")
		assert.Equal(t, len(`{"a":1}`), res.BoundaryBytes)
	})

	t.Run("CutInsideNumber", func(t *testing.T) {
		full := `42 123`
		res := Index([]byte(full), nil, nil, 1024, false)
		require.NoError(t, res.Err)
		// The trailing number touches the window edge, so it does not count
		// as complete.
		assert.Equal(t, 1, res.BoundaryTokens)
		assert.Equal(t, len(`42`), res.BoundaryBytes)
	})

	t.Run("DefiniteErrorBeforeEOF", func(t *testing.T) {
		full := `{"a":1} ] `
		res := Index([]byte(full), nil, nil, 1024, false)
		require.ErrorIs(t, res.Err, errs.ErrTapeError)
		assert.True(t, res.Definite)
		assert.Equal(t, len(`{"a":1}`), res.BoundaryBytes)
	})
}

func TestIndex_ReusesBuffers(t *testing.T) {
	first := Index([]byte(`{"a":[1,2,3]}`), nil, nil, 1024, true)
	require.NoError(t, first.Err)

	second := Index([]byte(`[true,false]`), first.Tokens, first.Stack, 1024, true)
	require.NoError(t, second.Err)
	assert.Equal(t, tape.KindArrayOpen, second.Tokens[0].Kind)
}

func TestHasByteHelpers(t *testing.T) {
	w := func(s string) uint64 {
		var v uint64
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(s[i])
		}
		return v
	}

	assert.True(t, hasByteEqual(w(`abc"efgh`), '"'))
	assert.False(t, hasByteEqual(w(`abcdefgh`), '"'))
	assert.True(t, hasByteEqual(w(`\bcdefgh`), '\\'))
	assert.True(t, hasByteLess(w("abc\x01efg$"), 0x20))
	assert.False(t, hasByteLess(w(`abcdefgh`), 0x20))
}

func BenchmarkIndex(b *testing.B) {
	doc := []byte(`{"user":"alice","id":42,"tags":["a","b","c"],"nested":{"x":1.5,"y":null,"z":[true,false]}}`)
	var tokens []tape.Token
	var stack []uint32

	b.SetBytes(int64(len(doc)))
	b.ResetTimer()
	for b.Loop() {
		res := Index(doc, tokens, stack, 1024, true)
		tokens, stack = res.Tokens, res.Stack
	}
}
