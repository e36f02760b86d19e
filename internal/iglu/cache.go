package iglu

import (
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/datenstrom/datenstrom-go/internal/clock"
)

// cacheEntry wraps either a successfully resolved Entry or a negative
// (not-found) sentinel, each with its own expiry.
type cacheEntry struct {
	entry     Entry
	negative  bool
	expiresAt time.Time
}

// ttlCache is a fixed-size LRU fronted with per-entry TTLs, mirroring the
// original's TTLCache(maxsize, ttl, none_ttl): positive hits expire after
// ttl, negative (schema-not-found) hits expire after the shorter none_ttl
// so a registry that starts serving a schema is picked up quickly.
type ttlCache struct {
	lru      *lru.Cache
	clock    clock.Clock
	ttl      time.Duration
	negTTL   time.Duration
}

func newTTLCache(size int, ttl, negTTL time.Duration, c clock.Clock) (*ttlCache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ttlCache{lru: l, clock: c, ttl: ttl, negTTL: negTTL}, nil
}

// get returns (entry, found, ok). ok is false if there is no live entry
// (either never cached or expired). found is only meaningful when ok is
// true, and distinguishes a cached success from a cached negative result.
func (c *ttlCache) get(key string) (Entry, bool, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return Entry{}, false, false
	}
	ce := v.(cacheEntry)
	if c.clock.Now().After(ce.expiresAt) {
		c.lru.Remove(key)
		return Entry{}, false, false
	}
	if ce.negative {
		return Entry{}, false, true
	}
	return ce.entry, true, true
}

func (c *ttlCache) putHit(key string, entry Entry) {
	c.lru.Add(key, cacheEntry{entry: entry, expiresAt: c.clock.Now().Add(c.ttl)})
}

func (c *ttlCache) putMiss(key string) {
	c.lru.Add(key, cacheEntry{negative: true, expiresAt: c.clock.Now().Add(c.negTTL)})
}
