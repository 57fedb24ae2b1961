package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Cache used when no Redis URL is configured.
// Its contents do not outlive the process.
type MemoryCache struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	counts map[string]memoryCounter
	lists  map[string][][]byte
	now    func() time.Time
}

type memoryCounter struct {
	n         int64
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values: make(map[string]memoryEntry),
		counts: make(map[string]memoryCounter),
		lists:  make(map[string][][]byte),
		now:    time.Now,
	}
}

func (c *MemoryCache) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: clone(value)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.values[key] = e
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.values[key]
	if !ok {
		return nil, false, nil
	}
	if e.expired(c.now()) {
		delete(c.values, key)
		return nil, false, nil
	}
	return clone(e.value), true, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.counts, key)
	delete(c.lists, key)
	return nil
}

func (c *MemoryCache) IncrWithExpiry(_ context.Context, key string, expiry time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	ctr := c.counts[key]
	if !ctr.expiresAt.IsZero() && now.After(ctr.expiresAt) {
		ctr = memoryCounter{}
	}
	if ctr.n == 0 {
		ctr.expiresAt = now.Add(expiry)
	}
	ctr.n++
	c.counts[key] = ctr
	return ctr.n, nil
}

func (c *MemoryCache) PushFrontCapped(_ context.Context, key string, value []byte, max int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := append([][]byte{clone(value)}, c.lists[key]...)
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	c.lists[key] = list
	return nil
}

func (c *MemoryCache) Range(_ context.Context, key string, start, stop int) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	n := len(list)
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, v := range list[start : stop+1] {
		out = append(out, clone(v))
	}
	return out, nil
}

func (c *MemoryCache) Append(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = append(c.lists[key], clone(value))
	return nil
}

func (c *MemoryCache) Head(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	if len(list) == 0 {
		return nil, false, nil
	}
	return clone(list[0]), true, nil
}

func (c *MemoryCache) SetHead(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	if len(list) == 0 {
		return ErrEmpty
	}
	list[0] = clone(value)
	return nil
}

func (c *MemoryCache) PopHead(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := c.lists[key]
	if len(list) == 0 {
		return nil, false, nil
	}
	head := list[0]
	if len(list) == 1 {
		delete(c.lists, key)
	} else {
		c.lists[key] = list[1:]
	}
	return head, true, nil
}

func (c *MemoryCache) Len(_ context.Context, key string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lists[key]), nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ Cache = (*MemoryCache)(nil)
