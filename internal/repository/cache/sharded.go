package cache

import (
	"hash/maphash"
	"sync"
	"time"
)

type shard struct {
	mu   sync.RWMutex
	data map[string]expiring
}

func (s *shard) putIfAbsent(key string, e expiring, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.data[key]; ok && !cur.expired(now) {
		return false
	}
	s.data[key] = e
	return true
}

// lookup drops an expired entry unless another writer replaced it meanwhile.
func (s *shard) lookup(key string, now time.Time) (any, bool) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expired(now) {
		return e.V, true
	}
	s.mu.Lock()
	if cur, ok := s.data[key]; ok && cur.E.Equal(e.E) {
		delete(s.data, key)
	}
	s.mu.Unlock()
	return nil, false
}

func (s *shard) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// ShardedCache spreads keys over a power-of-two number of locked shards. It
// backs the nonce cache, which takes a write on every signed request.
type ShardedCache struct {
	shards []shard
	seed   maphash.Seed
	ttl    time.Duration
	now    func() time.Time

	stop chan struct{}
	once sync.Once
}

type ShardedOption func(*ShardedCache)

// WithShards rounds n up to a power of two; n <= 0 means 16.
func WithShards(n int) ShardedOption {
	return func(c *ShardedCache) {
		size := 16
		if n > 0 {
			size = 1
			for size < n {
				size <<= 1
			}
		}
		c.shards = make([]shard, size)
		for i := range c.shards {
			c.shards[i].data = make(map[string]expiring)
		}
	}
}

// WithShardTTL sets the default entry lifetime and starts a sweeper.
func WithShardTTL(ttl time.Duration) ShardedOption { return func(c *ShardedCache) { c.ttl = ttl } }

func NewShardedCache(opts ...ShardedOption) *ShardedCache {
	c := &ShardedCache{
		seed: maphash.MakeSeed(),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	WithShards(0)(c)
	for _, o := range opts {
		o(c)
	}
	if c.ttl > 0 {
		go c.sweeper(c.ttl / 2)
	}
	return c
}

func (c *ShardedCache) sweeper(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.purge()
		case <-c.stop:
			return
		}
	}
}

func (c *ShardedCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *ShardedCache) shardFor(key string) *shard {
	return &c.shards[maphash.String(c.seed, key)&uint64(len(c.shards)-1)]
}

func (c *ShardedCache) expiringAt(v any, ttl time.Duration) expiring {
	if ttl <= 0 {
		ttl = c.ttl
	}
	if ttl <= 0 {
		return expiring{V: v}
	}
	return expiring{V: v, E: c.now().Add(ttl)}
}

func (c *ShardedCache) Put(key string, v any) {
	s := c.shardFor(key)
	e := c.expiringAt(v, 0)
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
}

func (c *ShardedCache) PutIfAbsent(key string, v any, ttl time.Duration) bool {
	return c.shardFor(key).putIfAbsent(key, c.expiringAt(v, ttl), c.now())
}

func (c *ShardedCache) Get(key string) (any, bool) {
	return c.shardFor(key).lookup(key, c.now())
}

func (c *ShardedCache) Delete(key string) {
	s := c.shardFor(key)
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// purge removes expired entries and reports how many it dropped.
func (c *ShardedCache) purge() int {
	now := c.now()
	n := 0
	for i := range c.shards {
		n += c.shards[i].sweep(now)
	}
	return n
}
