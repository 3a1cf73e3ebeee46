package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/yugurt2005/poker-abstraction/blobstore"
	"github.com/yugurt2005/poker-abstraction/codec"
)

// Stats counts how Cache lookups were served.
type Stats struct {
	// MemoryHits were served by the in-process LRU.
	MemoryHits int64
	// StoreHits were decoded from the blob store.
	StoreHits int64
	// Computes ran the compute function.
	Computes int64
}

// Cache memoizes computations in a blob store.
//
// A Cache is safe for concurrent use.
type Cache struct {
	store  blobstore.Store
	opts   *options
	sem    *semaphore.Weighted
	group  singleflight.Group
	mem    *lru
	logger *slog.Logger

	memoryHits atomic.Int64
	storeHits  atomic.Int64
	computes   atomic.Int64
}

// New creates a cache backed by store.
func New(store blobstore.Store, optFns ...Option) *Cache {
	opts := applyOptions(optFns)

	c := &Cache{
		store:  store,
		opts:   opts,
		sem:    semaphore.NewWeighted(opts.maxComputes),
		logger: opts.logger,
	}
	if opts.memoryLimit > 0 {
		c.mem = newLRU(opts.memoryLimit)
	}
	return c
}

// Codec returns the codec used for new artifacts.
func (c *Cache) Codec() codec.Codec {
	return c.opts.codec
}

// Store returns the underlying blob store.
func (c *Cache) Store() blobstore.Store {
	return c.store
}

// Stats returns a snapshot of the lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{
		MemoryHits: c.memoryHits.Load(),
		StoreHits:  c.storeHits.Load(),
		Computes:   c.computes.Load(),
	}
}

// Bytes returns the bytes stored under key, running compute and storing its
// result if key is missing. The returned slice must not be modified.
func (c *Cache) Bytes(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	a, err := c.load(ctx, key, rawCodec, compute)
	if err != nil {
		return nil, err
	}
	return a.payload, nil
}

// Contains reports whether key is stored.
func (c *Cache) Contains(ctx context.Context, key string) (bool, error) {
	if c.mem != nil {
		if _, ok := c.mem.get(key); ok {
			return true, nil
		}
	}
	b, err := c.store.Open(ctx, key)
	if errors.Is(err, blobstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, b.Close()
}

// Invalidate removes key from the store and the memory tier.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if c.mem != nil {
		c.mem.remove(key)
	}
	return c.store.Delete(ctx, key)
}

// Get returns the value stored under key, running compute and storing its
// encoded result if key is missing.
//
// A stored artifact is decoded with the codec named in its header, which may
// differ from the cache's current codec.
func Get[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, error) {
	var (
		zero     T
		computed *T
	)

	enc := c.opts.codec
	a, err := c.load(ctx, key, enc.Name(), func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		computed = &v
		return enc.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	// singleflight runs compute on the calling goroutine of the leader.
	if computed != nil {
		return *computed, nil
	}

	dec, ok := codec.ByName(a.codec)
	if !ok {
		return zero, fmt.Errorf("%w: %s: unknown codec %q", ErrCorrupt, key, a.codec)
	}
	var v T
	if err := dec.Unmarshal(a.payload, &v); err != nil {
		return zero, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return v, nil
}

func (c *Cache) load(ctx context.Context, key, codecName string, compute func(context.Context) ([]byte, error)) (artifact, error) {
	if c.mem != nil {
		if a, ok := c.mem.get(key); ok {
			c.memoryHits.Add(1)
			return a, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		a, err := c.read(ctx, key)
		if err == nil {
			c.storeHits.Add(1)
			c.logger.DebugContext(ctx, "cache hit", "key", key, "codec", a.codec, "bytes", len(a.payload))
			return a, nil
		}
		if !errors.Is(err, blobstore.ErrNotFound) {
			return nil, err
		}
		return c.compute(ctx, key, codecName, compute)
	})
	if err != nil {
		return artifact{}, err
	}

	a := v.(artifact)
	if c.mem != nil {
		c.mem.set(key, a)
	}
	return a, nil
}

func (c *Cache) read(ctx context.Context, key string) (artifact, error) {
	data, err := blobstore.ReadAll(ctx, c.store, key)
	if err != nil {
		return artifact{}, err
	}
	a, err := decodeArtifact(data)
	if err != nil {
		return artifact{}, fmt.Errorf("%s: %w", key, err)
	}
	return a, nil
}

func (c *Cache) compute(ctx context.Context, key, codecName string, compute func(context.Context) ([]byte, error)) (artifact, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return artifact{}, err
	}
	defer c.sem.Release(1)

	c.computes.Add(1)
	c.logger.InfoContext(ctx, "cache miss, computing", "key", key)

	start := time.Now()
	payload, err := compute(ctx)
	if err != nil {
		return artifact{}, err
	}

	a := artifact{codec: codecName, payload: payload}
	data, err := encodeArtifact(a, c.opts.compression)
	if err != nil {
		return artifact{}, fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := c.store.Put(ctx, key, data); err != nil {
		return artifact{}, fmt.Errorf("cache: store %s: %w", key, err)
	}

	c.logger.InfoContext(ctx, "cache stored",
		"key", key,
		"codec", codecName,
		"compression", c.opts.compression.String(),
		"bytes", len(payload),
		"stored_bytes", len(data),
		"duration", time.Since(start),
	)
	return a, nil
}
