package mmap

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Mapping is a read-only view of a whole file.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path. An empty file yields an empty mapping.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if fi.Size() == 0 {
		return &Mapping{}, nil
	}
	if int64(int(fi.Size())) != fi.Size() {
		return nil, fmt.Errorf("mmap: %s: %d bytes do not fit in memory", path, fi.Size())
	}

	data, unmap, err := osMap(f, int(fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("mmap: %s: %w", path, err)
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Bytes returns the mapped file, or nil after Close.
// The slice must not be used once Close has been called.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Len returns the file size in bytes. It stays valid after Close.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Prefetch asks the kernel to read the mapping ahead of use.
func (m *Mapping) Prefetch() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osPrefetch(m.data)
}

// Close releases the mapping. Further calls are no-ops.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) || m.unmap == nil || m.data == nil {
		return nil
	}
	return m.unmap(m.data)
}
