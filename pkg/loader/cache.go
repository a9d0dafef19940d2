package loader

import (
	"container/list"
	"sync"

	"github.com/zeebo/xxh3"
)

// loaderCache is an LRU of loaders keyed by the exact type string. One type
// string may resolve to a different loader per kind constraint, so an entry
// keeps every loader built for it.
type loaderCache struct {
	capacity int
	mu       sync.Mutex
	items    map[uint64]*list.Element
	lruList  *list.List
}

type cacheEntry struct {
	hash    uint64
	typ     string
	loaders []Loader
}

func newLoaderCache(capacity int) *loaderCache {
	if capacity < 1 {
		capacity = 1
	}
	return &loaderCache{
		capacity: capacity,
		items:    make(map[uint64]*list.Element),
		lruList:  list.New(),
	}
}

// get returns the cached loader for typ of the earliest kind allowed by kinds.
func (c *loaderCache) get(typ string, kinds KindSet) (Loader, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[xxh3.HashString(typ)]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if entry.typ != typ {
		return nil, false
	}
	c.lruList.MoveToFront(elem)

	var best Loader
	for _, l := range entry.loaders {
		if kinds.Has(l.Kind()) && (best == nil || l.Kind() < best.Kind()) {
			best = l
		}
	}
	return best, best != nil
}

// put records l for typ. A hash collision replaces the older entry.
func (c *loaderCache) put(typ string, l Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := xxh3.HashString(typ)
	if elem, ok := c.items[h]; ok {
		c.lruList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		if entry.typ != typ {
			entry.typ = typ
			entry.loaders = nil
		}
		entry.loaders = append(entry.loaders, l)
		return
	}

	elem := c.lruList.PushFront(&cacheEntry{hash: h, typ: typ, loaders: []Loader{l}})
	c.items[h] = elem
	if c.lruList.Len() > c.capacity {
		c.evictOldest()
	}
}

func (c *loaderCache) evictOldest() {
	elem := c.lruList.Back()
	if elem != nil {
		c.lruList.Remove(elem)
		delete(c.items, elem.Value.(*cacheEntry).hash)
	}
}

func (c *loaderCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[uint64]*list.Element)
	c.lruList.Init()
}

func (c *loaderCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}
