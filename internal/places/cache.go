package places

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mmcloughlin/geohash"
)

// geohash precision 6 is a cell of roughly 1.2km x 0.6km
const cellPrecision = 6

type cacheEntry struct {
	places  []Place
	expires time.Time
}

// Cache wraps a Finder and reuses results for the same dish within one geohash cell.
type Cache struct {
	next Finder
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCache(next Finder, ttl time.Duration) *Cache {
	return &Cache{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(dish string, loc Location) string {
	return strings.ToLower(strings.TrimSpace(dish)) + "|" + geohash.EncodeWithPrecision(loc.Lat, loc.Lon, cellPrecision)
}

func (c *Cache) Nearby(ctx context.Context, dish string, loc Location) ([]Place, error) {
	key := cacheKey(dish, loc)
	now := c.now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && now.Before(e.expires) {
		c.mu.Unlock()
		return e.places, nil
	}
	c.mu.Unlock()

	found, err := c.next.Nearby(ctx, dish, loc)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{places: found, expires: now.Add(c.ttl)}
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()

	return found, nil
}
