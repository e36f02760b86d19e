package enrich

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"

	"github.com/datenstrom/datenstrom-go/internal/clock"
)

const (
	tenantRequestCacheSize = 128
	tenantRequestCacheTTL  = 60 * time.Second
)

// TenantEnrichment resolves tenant_id from the request hostname. Once a
// hostname has successfully resolved to a tenant it is remembered for the
// life of the process (hostnames don't change tenants); lookups for a
// hostname not yet seen are cached for a short TTL so a slow or failing
// lookup endpoint can't be hammered once per request.
type TenantEnrichment struct {
	LookupEndpoint string

	client *http.Client
	clock  clock.Clock
	log    *logrus.Entry

	mu       sync.RWMutex
	resolved map[string]string

	requests *lru.Cache
}

type tenantRequestResult struct {
	tenantID  string
	found     bool
	expiresAt time.Time
}

// NewTenantEnrichment constructs a TenantEnrichment that queries endpoint
// for hostnames it hasn't resolved yet. If endpoint is empty the stage is a
// no-op (no tenant lookup configured).
func NewTenantEnrichment(endpoint string, c clock.Clock, log *logrus.Entry) (*TenantEnrichment, error) {
	requests, err := lru.New(tenantRequestCacheSize)
	if err != nil {
		return nil, err
	}
	return &TenantEnrichment{
		LookupEndpoint: endpoint,
		client:         &http.Client{Timeout: 5 * time.Second},
		clock:          c,
		log:            log,
		resolved:       make(map[string]string),
		requests:       requests,
	}, nil
}

func (t *TenantEnrichment) Enrich(pad *Scratchpad) error {
	if t.LookupEndpoint == "" {
		return nil
	}
	host := pad.Payload.Collector
	if pad.Payload.Hostname != nil && *pad.Payload.Hostname != "" {
		host = *pad.Payload.Hostname
	}
	if host == "" {
		return nil
	}

	t.mu.RLock()
	tenantID, ok := t.resolved[host]
	t.mu.RUnlock()
	if ok {
		return pad.SetValue("tenant_id", tenantID)
	}

	tenantID, found := t.lookup(host)
	if !found {
		return nil
	}

	t.mu.Lock()
	t.resolved[host] = tenantID
	t.mu.Unlock()

	return pad.SetValue("tenant_id", tenantID)
}

func (t *TenantEnrichment) lookup(host string) (string, bool) {
	if v, ok := t.requests.Get(host); ok {
		r := v.(tenantRequestResult)
		if t.clock.Now().Before(r.expiresAt) {
			return r.tenantID, r.found
		}
		t.requests.Remove(host)
	}

	tenantID, found := t.fetch(host)
	t.requests.Add(host, tenantRequestResult{
		tenantID:  tenantID,
		found:     found,
		expiresAt: t.clock.Now().Add(tenantRequestCacheTTL),
	})
	return tenantID, found
}

func (t *TenantEnrichment) fetch(host string) (string, bool) {
	u := fmt.Sprintf("%s?hostname=%s", t.LookupEndpoint, url.QueryEscape(host))
	resp, err := t.client.Get(u)
	if err != nil {
		if t.log != nil {
			t.log.WithError(err).WithField("hostname", host).Debug("enrich: tenant lookup failed")
		}
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	var body struct {
		TenantID string `json:"tenant_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.TenantID == "" {
		return "", false
	}
	return body.TenantID, true
}
