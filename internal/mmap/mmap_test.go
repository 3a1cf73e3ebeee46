package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flop.tbl")
	content := []byte("PATB bucket ids")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	m, err := Open(path)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Len())
	assert.Equal(t, content, m.Bytes())
	assert.NoError(t, m.Prefetch())
}

func TestOpen_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path)
	require.NoError(t, err)

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Bytes())
	assert.NoError(t, m.Prefetch())
	assert.NoError(t, m.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "river.tbl")
	require.NoError(t, os.WriteFile(path, make([]byte, 8192), 0o644))

	m, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.Equal(t, 8192, m.Len())
	assert.ErrorIs(t, m.Prefetch(), ErrClosed)
}
