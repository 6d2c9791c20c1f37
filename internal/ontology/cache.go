package ontology

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/apoorv/socratic/internal/store"
)

// TreeCache caches the full topic tree. The tree is read on every
// session start and mastery-status call but only changes on expansion
// commits, so a short TTL plus explicit invalidation keeps reads off
// the database without serving stale trees after a write.
type TreeCache struct {
	topics store.TopicRepo
	ttl    time.Duration

	mu       sync.RWMutex
	cached   []store.Topic
	loadedAt time.Time

	group singleflight.Group
}

// NewTreeCache creates a cache over the topic repository.
func NewTreeCache(topics store.TopicRepo, ttl time.Duration) *TreeCache {
	return &TreeCache{topics: topics, ttl: ttl}
}

// All returns every topic, from cache when fresh. Concurrent cache
// misses share one database load.
func (c *TreeCache) All(ctx context.Context) ([]store.Topic, error) {
	c.mu.RLock()
	if c.cached != nil && time.Since(c.loadedAt) < c.ttl {
		out := c.cached
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("tree", func() (any, error) {
		topics, err := c.topics.All(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = topics
		c.loadedAt = time.Now()
		c.mu.Unlock()
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]store.Topic), nil
}

// Invalidate drops the cached tree. Called after every expansion
// commit and seed.
func (c *TreeCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
