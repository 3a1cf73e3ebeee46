package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	opens int
}

func (c *countingStore) Open(ctx context.Context, name string) (Blob, error) {
	c.opens++
	return c.MemoryStore.Open(ctx, name)
}

func TestCachingStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	remote := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, remote.Put(ctx, "tables/flop", []byte("bucket ids")))

	local := NewLocalStore(t.TempDir())
	store := NewCachingStore(remote, local)

	for range 3 {
		data, err := ReadAll(ctx, store, "tables/flop")
		require.NoError(t, err)
		assert.Equal(t, "bucket ids", string(data))
	}
	assert.Equal(t, 1, remote.opens)

	b, err := local.Open(ctx, "tables/flop")
	require.NoError(t, err)
	defer b.Close()
	_, ok := b.(Mappable)
	assert.True(t, ok)
}

func TestCachingStore_NotFound(t *testing.T) {
	store := NewCachingStore(NewMemoryStore(), NewMemoryStore())

	_, err := store.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachingStore_PutDeleteList(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryStore()
	local := NewMemoryStore()
	store := NewCachingStore(remote, local)

	require.NoError(t, store.Put(ctx, "a", []byte("1")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)

	names, err = local.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = remote.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = local.Open(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
