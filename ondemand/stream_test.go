package ondemand

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/skim/errs"
)

func mustNextInt(t *testing.T, s *DocumentStream, key string) int64 {
	t.Helper()

	doc, err := s.Next()
	require.NoError(t, err)
	obj, err := doc.Object()
	require.NoError(t, err)
	v, ok, err := obj.Find(key)
	require.NoError(t, err)
	require.True(t, ok)
	n, err := v.Int()
	require.NoError(t, err)

	return n
}

func TestStream_Basic(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	s, err := p.IterateMany([]byte(`{"a":1}{"a":2} {"a":3}`))
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, int64(1), mustNextInt(t, s, "a"))
	require.Equal(t, 0, s.Index())
	require.Equal(t, int64(2), mustNextInt(t, s, "a"))
	require.Equal(t, 7, s.Index())
	require.Equal(t, int64(3), mustNextInt(t, s, "a"))
	require.Equal(t, 15, s.Index())

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_EmptyInputs(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		p, err := NewParser()
		require.NoError(t, err)
		s, err := p.IterateMany([]byte(input))
		require.NoError(t, err)

		_, err = s.Next()
		require.ErrorIs(t, err, io.EOF, "input %q", input)
		s.Close()
	}
}

func streamValues(t *testing.T, data []byte, opts ...StreamOption) (values []int64, errCount int) {
	t.Helper()

	p, err := NewParser()
	require.NoError(t, err)
	s, err := p.IterateMany(data, opts...)
	require.NoError(t, err)
	defer s.Close()

	for doc, err := range s.All() {
		if err != nil {
			errCount++

			continue
		}
		obj, err := doc.Object()
		require.NoError(t, err)
		v, ok, err := obj.Find("i")
		require.NoError(t, err)
		require.True(t, ok)
		n, err := v.Int()
		require.NoError(t, err)
		values = append(values, n)
	}

	return values, errCount
}

func TestStream_BatchingInvariance(t *testing.T) {
	var sb strings.Builder
	var want []int64
	for i := range 200 {
		fmt.Fprintf(&sb, "{\"i\":%d}\n", i)
		want = append(want, int64(i))
	}
	data := []byte(sb.String())

	for _, batchSize := range []int{32, 64, 257, DefaultBatchSize} {
		for _, lookahead := range []bool{true, false} {
			name := fmt.Sprintf("batch=%d lookahead=%v", batchSize, lookahead)
			t.Run(name, func(t *testing.T) {
				values, errCount := streamValues(t, data, WithBatchSize(batchSize), WithLookahead(lookahead))
				require.Zero(t, errCount)
				require.Equal(t, want, values)
			})
		}
	}
}

func TestStream_ErrorIsolation(t *testing.T) {
	t.Run("unclosed container", func(t *testing.T) {
		data := []byte("{\"i\":1}\n{\"bad\":\n{\"i\":2}\n")

		p, err := NewParser()
		require.NoError(t, err)
		s, err := p.IterateMany(data)
		require.NoError(t, err)
		defer s.Close()

		require.Equal(t, int64(1), mustNextInt(t, s, "i"))

		_, err = s.Next()
		require.ErrorIs(t, err, errs.ErrTapeError)

		require.Equal(t, int64(2), mustNextInt(t, s, "i"))

		_, err = s.Next()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("control character in string", func(t *testing.T) {
		data := []byte("{\"i\":1}\n{\"x\":\"\x01\"}\n{\"i\":2}\n")

		for _, lookahead := range []bool{true, false} {
			values, errCount := streamValues(t, data, WithBatchSize(MinimalBatchSize), WithLookahead(lookahead))
			require.Equal(t, 1, errCount)
			require.Equal(t, []int64{1, 2}, values)
		}
	})

	t.Run("stray comma between documents", func(t *testing.T) {
		data := []byte(`{"i":1},{"i":2}`)

		p, err := NewParser()
		require.NoError(t, err)
		s, err := p.IterateMany(data)
		require.NoError(t, err)
		defer s.Close()

		require.Equal(t, int64(1), mustNextInt(t, s, "i"))
		_, err = s.Next()
		require.ErrorIs(t, err, errs.ErrTapeError)
		require.Equal(t, int64(2), mustNextInt(t, s, "i"))
		_, err = s.Next()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("trailing junk at end of input", func(t *testing.T) {
		data := []byte(`{"i":1} ,`)

		p, err := NewParser()
		require.NoError(t, err)
		s, err := p.IterateMany(data)
		require.NoError(t, err)
		defer s.Close()

		require.Equal(t, int64(1), mustNextInt(t, s, "i"))
		_, err = s.Next()
		require.ErrorIs(t, err, errs.ErrTapeError)
		_, err = s.Next()
		require.ErrorIs(t, err, io.EOF)
	})
}

func TestStream_DocumentLargerThanBatch(t *testing.T) {
	big := `{"big":"` + strings.Repeat("x", 60) + `"}`
	data := []byte(big + "\n" + `{"i":7}` + "\n")

	p, err := NewParser()
	require.NoError(t, err)
	s, err := p.IterateMany(data, WithBatchSize(MinimalBatchSize))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next()
	require.ErrorIs(t, err, errs.ErrBatchCapacity)

	require.Equal(t, int64(7), mustNextInt(t, s, "i"))

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_LookaheadManyBatches(t *testing.T) {
	var sb strings.Builder
	var wantSum int64
	for i := range 2000 {
		fmt.Fprintf(&sb, "{\"i\":%d}\n", i)
		wantSum += int64(i)
	}

	p, err := NewParser()
	require.NoError(t, err)
	s, err := p.IterateMany([]byte(sb.String()), WithBatchSize(64))
	require.NoError(t, err)
	defer s.Close()

	var gotSum int64
	count := 0
	for doc, err := range s.All() {
		require.NoError(t, err)
		obj, err := doc.Object()
		require.NoError(t, err)
		f, ok, err := obj.NextField()
		require.NoError(t, err)
		require.True(t, ok)
		n, err := f.Value().Int()
		require.NoError(t, err)
		gotSum += n
		count++
	}
	require.Equal(t, 2000, count)
	require.Equal(t, wantSum, gotSum)
}

func TestStream_Options(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	t.Run("batch size below minimum", func(t *testing.T) {
		_, err := p.IterateMany([]byte(`{}`), WithBatchSize(MinimalBatchSize-1))
		require.ErrorIs(t, err, errs.ErrBatchCapacity)
	})

	t.Run("batch size above max capacity", func(t *testing.T) {
		p, err := NewParser(WithMaxCapacity(64))
		require.NoError(t, err)
		_, err = p.IterateMany([]byte(`{}`), WithBatchSize(128))
		require.ErrorIs(t, err, errs.ErrCapacityExceeded)
	})
}

func TestStream_LeaseAndClose(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	s, err := p.IterateMany([]byte(`{"i":1}`))
	require.NoError(t, err)

	_, err = p.Iterate([]byte(`{}`))
	require.ErrorIs(t, err, errs.ErrParserInUse)

	doc, err := s.Next()
	require.NoError(t, err)
	doc.Close() // closing a stream document is a no-op

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)

	s.Close()
	s.Close() // idempotent

	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)

	// the parser is free again
	doc2, err := p.Iterate([]byte(`{"i":2}`))
	require.NoError(t, err)
	doc2.Close()
}

func TestStream_ParserReuseAfterLookahead(t *testing.T) {
	// 18-byte documents with 5 tokens each: small enough that a lookahead
	// window's tape fits in the pooled spare without growing it, so the scan
	// result keeps the spare's backing array. Four documents across 32-byte
	// windows produce an odd number of buffer swaps, leaving the pooled
	// array as the active tape at Close.
	input := []byte(strings.Repeat(`{"padding0001":1} `, 4))

	p, err := NewParser()
	require.NoError(t, err)

	s, err := p.IterateMany(input, WithBatchSize(MinimalBatchSize))
	require.NoError(t, err)
	for range 4 {
		require.Equal(t, int64(1), mustNextInt(t, s, "padding0001"))
	}
	_, err = s.Next()
	require.ErrorIs(t, err, io.EOF)
	s.Close()

	s2, err := p.IterateMany(input, WithBatchSize(MinimalBatchSize))
	require.NoError(t, err)
	defer s2.Close()

	// The new stream's active tape comes from the parser, its spare from the
	// pool; sharing one backing array would let the lookahead worker
	// overwrite tokens the consumer is reading.
	require.NotNil(t, s2.spareTokens)
	require.NotSame(t, unsafe.SliceData(s2.tokens), unsafe.SliceData(s2.spareTokens),
		"active token tape and lookahead spare must not share a backing array")
	require.NotSame(t, unsafe.SliceData(s2.stack), unsafe.SliceData(s2.spareStack),
		"active stack and lookahead spare stack must not share a backing array")

	for range 4 {
		require.Equal(t, int64(1), mustNextInt(t, s2, "padding0001"))
	}
	_, err = s2.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_CloseWithLookaheadInFlight(t *testing.T) {
	var sb strings.Builder
	for i := range 64 {
		fmt.Fprintf(&sb, "{\"i\":%d}\n", i)
	}
	data := []byte(sb.String())

	p, err := NewParser()
	require.NoError(t, err)

	s, err := p.IterateMany(data, WithBatchSize(MinimalBatchSize))
	require.NoError(t, err)

	// One document is enough to schedule the next window on the worker;
	// closing now exercises the in-flight buffer recovery.
	require.Equal(t, int64(0), mustNextInt(t, s, "i"))
	s.Close()

	s2, err := p.IterateMany(data, WithBatchSize(MinimalBatchSize))
	require.NoError(t, err)
	defer s2.Close()

	require.NotSame(t, unsafe.SliceData(s2.tokens), unsafe.SliceData(s2.spareTokens),
		"active token tape and lookahead spare must not share a backing array")

	var sum int64
	for doc, err := range s2.All() {
		require.NoError(t, err)
		obj, err := doc.Object()
		require.NoError(t, err)
		v, ok, err := obj.Find("i")
		require.NoError(t, err)
		require.True(t, ok)
		n, err := v.Int()
		require.NoError(t, err)
		sum += n
	}
	require.Equal(t, int64(64*63/2), sum)
}

func TestStream_DocumentValidUntilNext(t *testing.T) {
	p, err := NewParser()
	require.NoError(t, err)

	s, err := p.IterateMany([]byte(`{"i":1} {"i":2}`))
	require.NoError(t, err)
	defer s.Close()

	doc, err := s.Next()
	require.NoError(t, err)
	obj, err := doc.Object()
	require.NoError(t, err)
	f, _, err := obj.NextField()
	require.NoError(t, err)
	name, err := f.Name()
	require.NoError(t, err)
	require.Equal(t, "i", name)

	// values survive until the next document is requested
	n, err := f.Value().Int()
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
