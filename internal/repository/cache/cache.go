package cache

import (
	"sync"
	"time"
)

type KV interface {
	Put(key string, v any)
	// PutIfAbsent stores v only when key is missing or expired and reports
	// whether it did. ttl <= 0 means the cache default.
	PutIfAbsent(key string, v any, ttl time.Duration) bool
	Get(key string) (any, bool)
	Delete(key string)
}

type Cache struct {
	data map[string]expiring
	mu   sync.RWMutex

	ttl    time.Duration
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
	now    func() time.Time
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option { return func(c *Cache) { c.ttl = ttl } }

func NewCache(opts ...Option) *Cache {
	c := &Cache{
		data: make(map[string]expiring),
		stop: make(chan struct{}),
		now:  time.Now,
	}
	for _, o := range opts {
		o(c)
	}

	if c.ttl > 0 {
		c.ticker = time.NewTicker(c.ttl / 2)
		go c.janitor()
	}
	return c
}

func (c *Cache) janitor() {
	for {
		select {
		case <-c.ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) Close() {
	c.once.Do(func() {
		if c.ticker != nil {
			c.ticker.Stop()
		}
		close(c.stop)
	})
}

type expiring struct {
	V any
	E time.Time
}

func (e expiring) expired(now time.Time) bool { return !e.E.IsZero() && now.After(e.E) }

func (c *Cache) entry(v any, ttl time.Duration) expiring {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if ttl > 0 {
		return expiring{V: v, E: c.now().Add(ttl)}
	}
	return expiring{V: v}
}

func (c *Cache) Put(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = c.entry(v, 0)
}

func (c *Cache) PutIfAbsent(key string, v any, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.data[key]; ok && !cur.expired(c.now()) {
		return false
	}
	c.data[key] = c.entry(v, ttl)
	return true
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(c.now()) {
		c.Delete(key)
		return nil, false
	}
	return e.V, true
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

func (c *Cache) purgeExpired() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.data {
		if e.expired(now) {
			delete(c.data, k)
		}
	}
	c.mu.Unlock()
}
