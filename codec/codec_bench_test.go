package codec

import (
	"testing"

	"github.com/yugurt2005/poker-abstraction/testutil"
)

func benchRows() [][]float32 {
	return testutil.NewRNG(1).UniformRows(256, 50)
}

func benchmarkCodecMarshal(b *testing.B, c Codec, v any) {
	b.Helper()
	b.ReportAllocs()

	warm, err := c.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(warm)))

	var sink []byte
	b.ResetTimer()
	for b.Loop() {
		out, err := c.Marshal(v)
		if err != nil {
			b.Fatal(err)
		}
		sink = out
	}
	_ = sink
}

func benchmarkCodecUnmarshal[T any](b *testing.B, c Codec, data []byte, dst *T) {
	b.Helper()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	var v T
	b.ResetTimer()
	for b.Loop() {
		if err := c.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
	if dst != nil {
		*dst = v
	}
}

func BenchmarkCodec_Marshal_Rows(b *testing.B) {
	rows := benchRows()

	b.Run("stdlib", func(b *testing.B) { benchmarkCodecMarshal(b, JSON{}, rows) })
	b.Run("go-json", func(b *testing.B) { benchmarkCodecMarshal(b, GoJSON{}, rows) })
	b.Run("msgpack", func(b *testing.B) { benchmarkCodecMarshal(b, Msgpack{}, rows) })
}

func BenchmarkCodec_Unmarshal_Rows(b *testing.B) {
	rows := benchRows()

	for _, c := range []Codec{JSON{}, GoJSON{}, Msgpack{}} {
		data := MustMarshal(c, rows)
		b.Run(c.Name(), func(b *testing.B) {
			var sink [][]float32
			benchmarkCodecUnmarshal(b, c, data, &sink)
			_ = sink
		})
	}
}
