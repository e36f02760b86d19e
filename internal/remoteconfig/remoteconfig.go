// Package remoteconfig resolves a per-hostname site configuration that can
// selectively disable individual enrichment stages, fetched from an
// operator-run config endpoint and cached like every other remote lookup
// in this enricher.
package remoteconfig

import (
	"fmt"
	"net/url"
	"time"

	"github.com/datenstrom/datenstrom-go/internal/clock"
	"github.com/datenstrom/datenstrom-go/internal/httpcache"
)

const (
	cacheSize = 512
	cacheTTL  = 5 * time.Minute
	negTTL    = 30 * time.Second
)

// SiteConfig is the per-hostname override document. A zero-value SiteConfig
// disables nothing: every enrichment stage runs by default.
type SiteConfig struct {
	DisableGeoIP    bool `json:"disable_geoip"`
	DisableDevice   bool `json:"disable_device"`
	DisableCampaign bool `json:"disable_campaign"`
	DisablePII      bool `json:"disable_pii"`
}

// Resolver fetches and caches SiteConfig by hostname.
type Resolver struct {
	endpoint string
	client   *httpcache.Client
}

// NewResolver builds a Resolver querying "{endpoint}?hostname=..." for each
// lookup. If endpoint is empty, Resolve always returns the zero SiteConfig
// (no remote config configured).
func NewResolver(endpoint string, c clock.Clock) (*Resolver, error) {
	client, err := httpcache.New(cacheSize, cacheTTL, negTTL, c)
	if err != nil {
		return nil, err
	}
	return &Resolver{endpoint: endpoint, client: client}, nil
}

// Resolve returns the SiteConfig for hostname, or the zero value if none is
// configured or the lookup fails.
func (r *Resolver) Resolve(hostname string) SiteConfig {
	if r.endpoint == "" || hostname == "" {
		return SiteConfig{}
	}
	u := fmt.Sprintf("%s?hostname=%s", r.endpoint, url.QueryEscape(hostname))
	var cfg SiteConfig
	found, err := r.client.GetJSON(u, &cfg)
	if err != nil || !found {
		return SiteConfig{}
	}
	return cfg
}
