package cache

import "errors"

// ErrCorrupt is returned when a stored artifact has a bad header, an unknown
// codec, or a payload that cannot be decoded.
var ErrCorrupt = errors.New("cache: corrupt artifact")
