package cache

import (
	"log/slog"
	"runtime"

	"github.com/yugurt2005/poker-abstraction/codec"
	"github.com/yugurt2005/poker-abstraction/internal/compress"
)

// Compression selects the block compression for new artifacts.
type Compression = compress.Type

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return compress.ParseType(s)
}

type options struct {
	codec       codec.Codec
	compression Compression
	maxComputes int64
	memoryLimit int64
	logger      *slog.Logger
}

// Option configures a Cache.
type Option func(*options)

// WithCodec sets the codec used to encode new artifacts.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithCompression sets the compression used for new artifacts.
func WithCompression(t Compression) Option {
	return func(o *options) {
		o.compression = t
	}
}

// WithMaxConcurrentComputes bounds how many compute functions run at once
// across all keys. Defaults to GOMAXPROCS.
func WithMaxConcurrentComputes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxComputes = int64(n)
		}
	}
}

// WithMemoryLimit enables the in-process LRU tier, bounded to limit bytes of
// uncompressed payload. Zero disables it.
func WithMemoryLimit(limit int64) Option {
	return func(o *options) {
		o.memoryLimit = max(limit, 0)
	}
}

// WithLogger sets the logger. Defaults to discarding.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func applyOptions(optFns []Option) *options {
	o := &options{
		codec:       codec.Default,
		compression: CompressionLZ4,
		maxComputes: int64(runtime.GOMAXPROCS(0)),
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(o)
	}
	return o
}
