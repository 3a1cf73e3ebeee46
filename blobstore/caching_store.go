package blobstore

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a remote Store and keeps a full copy of every blob it
// reads in a local Store. Later opens are served by the local copy, which is
// memory mapped when local is a LocalStore.
//
// Blobs are treated as immutable: Put and Delete update both stores, but a
// blob changed behind the CachingStore's back is not noticed.
type CachingStore struct {
	remote Store
	local  Store
	group  singleflight.Group
}

// NewCachingStore creates a new CachingStore.
func NewCachingStore(remote, local Store) *CachingStore {
	return &CachingStore{
		remote: remote,
		local:  local,
	}
}

// Open opens the local copy of a blob, fetching it from remote first if needed.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.local.Open(ctx, name)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err, _ = s.group.Do(name, func() (any, error) {
		data, err := ReadAll(ctx, s.remote, name)
		if err != nil {
			return nil, err
		}
		if err := s.local.Put(ctx, name, data); err != nil {
			return nil, fmt.Errorf("blobstore: fill local copy of %s: %w", name, err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return s.local.Open(ctx, name)
}

// Put writes the blob to remote, then to the local copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.remote.Put(ctx, name, data); err != nil {
		return err
	}
	return s.local.Put(ctx, name, data)
}

// Delete removes the blob from both stores.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	if err := s.local.Delete(ctx, name); err != nil {
		return err
	}
	return s.remote.Delete(ctx, name)
}

// List lists the remote store, which is authoritative.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.remote.List(ctx, prefix)
}
