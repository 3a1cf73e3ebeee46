package mmap

import "errors"

// ErrClosed is returned by Prefetch after Close.
var ErrClosed = errors.New("mmap: mapping is closed")
