// Package httpcache implements a small TTL-cached JSON GET client, the
// same shape used by both the Iglu remote registry and the tenant/remote
// config lookups: a cache miss costs one HTTP round trip, a hit costs
// nothing, and a failed lookup is itself cached briefly so a down
// dependency doesn't get hit once per request.
package httpcache

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/datenstrom/datenstrom-go/internal/clock"
)

const maxResponseBytes = 1 << 20

// Client is a cached GET+JSON-decode helper.
type Client struct {
	http   *http.Client
	clock  clock.Clock
	ttl    time.Duration
	negTTL time.Duration

	mu    sync.Mutex
	cache *lru.Cache
}

type entry struct {
	value     []byte
	found     bool
	expiresAt time.Time
}

// New returns a Client caching up to size URLs, with separate TTLs for
// successful and failed lookups.
func New(size int, ttl, negTTL time.Duration, c clock.Clock) (*Client, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:   &http.Client{Timeout: 10 * time.Second},
		clock:  c,
		ttl:    ttl,
		negTTL: negTTL,
		cache:  cache,
	}, nil
}

// GetJSON fetches url (using the cache when possible) and decodes its body
// into out. It reports whether the URL resolved to a 200 response at all;
// a false return is not itself an error, matching the "not configured for
// this tenant" semantics most callers want. A fetch error is returned once
// and then cached as a miss for the negative TTL.
func (c *Client) GetJSON(url string, out any) (bool, error) {
	c.mu.Lock()
	if v, ok := c.cache.Get(url); ok {
		e := v.(entry)
		if c.clock.Now().Before(e.expiresAt) {
			c.mu.Unlock()
			if !e.found {
				return false, nil
			}
			return true, json.Unmarshal(e.value, out)
		}
		c.cache.Remove(url)
	}
	c.mu.Unlock()

	body, found, err := c.fetch(url)

	c.mu.Lock()
	ttl := c.negTTL
	if err == nil && found {
		ttl = c.ttl
	}
	c.cache.Add(url, entry{value: body, found: err == nil && found, expiresAt: c.clock.Now().Add(ttl)})
	c.mu.Unlock()

	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return true, json.Unmarshal(body, out)
}

func (c *Client) fetch(url string) ([]byte, bool, error) {
	resp, err := c.http.Get(url)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("httpcache: %s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, false, err
	}
	if len(body) > maxResponseBytes {
		return nil, false, fmt.Errorf("httpcache: response from %s exceeds %d bytes", url, maxResponseBytes)
	}
	return body, true, nil
}
