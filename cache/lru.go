package cache

import (
	"container/list"
	"sync"
)

// lru is a byte-bounded LRU of decoded artifacts.
type lru struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
}

type entry struct {
	key   string
	value artifact
}

func newLRU(capacity int64) *lru {
	return &lru{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

func (c *lru) get(key string) (artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	return artifact{}, false
}

func (c *lru) set(key string, a artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemSize := int64(len(a.payload))
	if ent, ok := c.items[key]; ok {
		c.size += itemSize - int64(len(ent.Value.(*entry).value.payload))
		ent.Value.(*entry).value = a
		c.evictList.MoveToFront(ent)
		c.evict()
		return
	}

	// Items larger than the whole cache are never admitted.
	if itemSize > c.capacity {
		return
	}

	ent := &entry{key, a}
	c.items[key] = c.evictList.PushFront(ent)
	c.size += itemSize
	c.evict()
}

func (c *lru) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
}

func (c *lru) evict() {
	for c.size > c.capacity {
		element := c.evictList.Back()
		if element == nil {
			break
		}
		c.removeElement(element)
	}
}

func (c *lru) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	c.size -= int64(len(kv.value.payload))
}

// bytes returns the current size of the cache in bytes.
func (c *lru) bytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}
