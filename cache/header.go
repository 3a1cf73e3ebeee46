package cache

import (
	"fmt"

	"github.com/yugurt2005/poker-abstraction/internal/compress"
)

const (
	magic         = "PABC"
	formatVersion = 1

	// rawCodec marks payloads stored by Bytes, which bypass the codec.
	rawCodec = "raw"
)

// artifact is a decoded artifact: the codec name and the uncompressed payload.
type artifact struct {
	codec   string
	payload []byte
}

// Layout: magic[4] | version u8 | compression u8 | len(codec) u8 | codec | block.
func encodeArtifact(a artifact, t compress.Type) ([]byte, error) {
	if len(a.codec) == 0 || len(a.codec) > 255 {
		return nil, fmt.Errorf("cache: invalid codec name %q", a.codec)
	}

	block, err := compress.Block(a.payload, t)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(magic)+3+len(a.codec)+len(block))
	out = append(out, magic...)
	out = append(out, formatVersion, byte(t), byte(len(a.codec)))
	out = append(out, a.codec...)
	return append(out, block...), nil
}

func decodeArtifact(data []byte) (artifact, error) {
	fixed := len(magic) + 3
	if len(data) < fixed || string(data[:len(magic)]) != magic {
		return artifact{}, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := data[4]; v != formatVersion {
		return artifact{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	t := compress.Type(data[5])
	nameLen := int(data[6])
	if nameLen == 0 || len(data) < fixed+nameLen {
		return artifact{}, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	name := string(data[fixed : fixed+nameLen])

	payload, err := compress.Unblock(data[fixed+nameLen:], t)
	if err != nil {
		return artifact{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return artifact{codec: name, payload: payload}, nil
}
