package compress

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/skim/format"
)

// sampleJSON builds a repetitive ndjson payload, the shape these codecs are
// expected to see.
func sampleJSON(docs int) []byte {
	var sb strings.Builder
	for i := range docs {
		fmt.Fprintf(&sb, `{"metric":"cpu.usage","host":"node-%d","value":%d.5,"tags":["prod","us-east"]}`+"\n", i%8, i)
	}

	return []byte(sb.String())
}

func allCodecs() map[format.CompressionType]Codec {
	return map[format.CompressionType]Codec{
		format.CompressionNone: NewNoOpCodec(),
		format.CompressionZstd: NewZstdCodec(),
		format.CompressionS2:   NewS2Codec(),
		format.CompressionLZ4:  NewLZ4Codec(),
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	payloads := map[string][]byte{
		"ndjson":   sampleJSON(100),
		"tiny":     []byte(`{}`),
		"unicode":  []byte(`{"name":"héllo 中文 😀"}`),
		"repeated": bytes.Repeat([]byte(`{"k":"v"}`), 1000),
	}

	for ct, codec := range allCodecs() {
		for name, payload := range payloads {
			t.Run(fmt.Sprintf("%s/%s", ct, name), func(t *testing.T) {
				compressed, err := codec.Compress(payload)
				require.NoError(t, err)

				restored, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.Equal(t, payload, restored)
			})
		}
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	for ct, codec := range allCodecs() {
		t.Run(ct.String(), func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)
			restored, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Empty(t, restored)
		})
	}
}

func TestCodec_CompressionReducesRepetitiveInput(t *testing.T) {
	payload := sampleJSON(500)
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		compressed, err := codec.Compress(payload)
		require.NoError(t, err)
		require.Less(t, len(compressed), len(payload), "%s should shrink repetitive ndjson", ct)
	}
}

func TestCodec_CorruptedInput(t *testing.T) {
	payload := sampleJSON(50)
	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			corrupted := bytes.Clone(compressed)
			for i := range corrupted {
				corrupted[i] ^= 0xa5
			}
			_, err = codec.Decompress(corrupted)
			require.Error(t, err)
		})
	}
}

func TestGetCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4,
	} {
		codec, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}

	_, err := GetCodec(format.CompressionType(0xff))
	require.Error(t, err)
}

func TestNoOpCodec_SharesInput(t *testing.T) {
	codec := NewNoOpCodec()
	data := []byte(`{"a":1}`)

	out, err := codec.Compress(data)
	require.NoError(t, err)
	require.Equal(t, &data[0], &out[0])

	out, err = codec.Decompress(data)
	require.NoError(t, err)
	require.Equal(t, &data[0], &out[0])
}

func BenchmarkDecompress(b *testing.B) {
	payload := sampleJSON(1000)
	for ct, codec := range allCodecs() {
		compressed, err := codec.Compress(payload)
		require.NoError(b, err)
		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(payload)))
			for b.Loop() {
				_, err := codec.Decompress(compressed)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
