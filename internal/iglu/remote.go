package iglu

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/datenstrom/datenstrom-go/internal/clock"
	"github.com/datenstrom/datenstrom-go/internal/retry"
)

const (
	remoteCacheSize    = 1024
	remoteCacheTTL     = 1 * time.Hour
	remoteCacheNoneTTL = 60 * time.Second

	// MaxSchemaSize bounds how large a fetched schema document may be,
	// guarding against a misbehaving registry serving an unbounded body.
	MaxSchemaSize = 128 * 1024

	draftSchemaURI = "https://json-schema.org/draft/2020-12/schema"
)

// RemoteRegistry fetches schema documents from an Iglu-compatible HTTP
// registry (GET {base}/schemas/{vendor}/{name}/{format}/{version}) and
// caches both hits and misses.
type RemoteRegistry struct {
	BaseURL string

	client *http.Client
	cache  *ttlCache
	log    *logrus.Entry
}

// NewRemoteRegistry constructs a registry pointed at baseURL, e.g.
// "https://iglucentral.com".
func NewRemoteRegistry(baseURL string, c clock.Clock, log *logrus.Entry) (*RemoteRegistry, error) {
	cache, err := newTTLCache(remoteCacheSize, remoteCacheTTL, remoteCacheNoneTTL, c)
	if err != nil {
		return nil, err
	}
	return &RemoteRegistry{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
		log:     log,
	}, nil
}

// Lookup resolves ref against the remote registry, consulting the cache
// first. A cached negative result is reported as ok=false without a
// network round trip.
func (r *RemoteRegistry) Lookup(ref string) (Entry, bool) {
	if entry, found, ok := r.cache.get(ref); ok {
		return entry, found
	}

	schema, err := ParseSchema(ref)
	if err != nil {
		r.cache.putMiss(ref)
		return Entry{}, false
	}

	doc, err := r.fetch(schema)
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).WithField("schema", ref).Debug("iglu: remote schema fetch failed")
		}
		r.cache.putMiss(ref)
		return Entry{}, false
	}

	entry, err := NewEntry(schema, doc)
	if err != nil {
		if r.log != nil {
			r.log.WithError(err).WithField("schema", ref).Warn("iglu: remote schema failed to compile")
		}
		r.cache.putMiss(ref)
		return Entry{}, false
	}

	r.cache.putHit(ref, entry)
	return entry, true
}

func (r *RemoteRegistry) fetch(schema Schema) (map[string]any, error) {
	u := fmt.Sprintf("%s/schemas/%s/%s/%s/%s",
		r.BaseURL,
		url.PathEscape(schema.Vendor),
		url.PathEscape(schema.Name),
		url.PathEscape(schema.Format),
		url.PathEscape(schema.Version),
	)
	var body []byte
	err := retry.Do(func() error {
		resp, err := r.client.Get(u)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			statusErr := fmt.Errorf("iglu: remote registry returned status %d for %s", resp.StatusCode, u)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				// A 4xx means the schema doesn't exist (or the request is
				// malformed) and retrying won't change that.
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}

		b, err := io.ReadAll(io.LimitReader(resp.Body, MaxSchemaSize+1))
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(body) > MaxSchemaSize {
		return nil, fmt.Errorf("iglu: schema document for %s exceeds %d bytes", schema, MaxSchemaSize)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("iglu: schema document for %s is not valid JSON: %w", schema, err)
	}

	if s, ok := doc["$schema"].(string); !ok || s != draftSchemaURI {
		return nil, fmt.Errorf("iglu: schema document for %s does not declare %s", schema, draftSchemaURI)
	}

	return doc, nil
}
