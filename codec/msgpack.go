package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack is a binary codec backed by github.com/vmihailenco/msgpack/v5.
//
// float32 values are stored in 5 bytes each, which makes it the most compact
// built-in choice for histogram rows.
type Msgpack struct{}

// Marshal encodes the value to MessagePack.
func (Msgpack) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

// Unmarshal decodes the MessagePack data into v.
func (Msgpack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }

// Name returns the unique name of the codec ("msgpack").
func (Msgpack) Name() string { return "msgpack" }

// Default is the default codec used by the artifact cache.
var Default Codec = Msgpack{}
