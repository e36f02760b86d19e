// Package rawproc drives a raw CollectorPayload through query-string/body
// decomposition and the enrichment chain, producing zero or more
// AtomicEvent records.
package rawproc

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
	"github.com/datenstrom/datenstrom-go/internal/enrich"
	"github.com/datenstrom/datenstrom-go/internal/raw"
	"github.com/datenstrom/datenstrom-go/internal/remoteconfig"
)

// RawProcessor turns one raw payload into its candidate events and runs
// each through the enrichment chain. A failure on any one candidate fails
// the whole raw payload: there is no partial success.
type RawProcessor struct {
	Chain        *enrich.Chain
	SiteConfig   *remoteconfig.Resolver
}

// NewRawProcessor builds a RawProcessor driven by chain. siteConfig may be
// nil, in which case no enrichment stage is ever disabled per-hostname.
func NewRawProcessor(chain *enrich.Chain, siteConfig *remoteconfig.Resolver) *RawProcessor {
	return &RawProcessor{Chain: chain, SiteConfig: siteConfig}
}

// Process decomposes payload into its candidate events and enriches each
// one. An error means none of the payload's events were produced.
func (r *RawProcessor) Process(payload raw.CollectorPayload) ([]atomic.AtomicEvent, error) {
	candidates, err := extractCandidates(payload)
	if err != nil {
		return nil, fmt.Errorf("rawproc: %w", err)
	}

	disabled := r.disabledStages(payload)

	events := make([]atomic.AtomicEvent, 0, len(candidates))
	for _, fields := range candidates {
		pad := enrich.NewScratchpad(payload, fields)
		pad.Disabled = disabled
		if err := r.Chain.Run(pad); err != nil {
			return nil, fmt.Errorf("rawproc: %w", err)
		}
		event, err := pad.ToAtomicEvent()
		if err != nil {
			return nil, fmt.Errorf("rawproc: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *RawProcessor) disabledStages(payload raw.CollectorPayload) map[string]bool {
	if r.SiteConfig == nil {
		return nil
	}
	hostname := payload.Collector
	if payload.Hostname != nil && *payload.Hostname != "" {
		hostname = *payload.Hostname
	}
	cfg := r.SiteConfig.Resolve(hostname)
	disabled := map[string]bool{}
	if cfg.DisableGeoIP {
		disabled["geoip"] = true
	}
	if cfg.DisableDevice {
		disabled["device"] = true
	}
	if cfg.DisableCampaign {
		disabled["campaign"] = true
	}
	if cfg.DisablePII {
		disabled["pii"] = true
	}
	return disabled
}

// payloadDataSchemaPrefix matches any 1-*-* revision of the payload_data
// envelope, the shape GET/POST-native trackers batch events into.
const payloadDataSchemaPrefix = "iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1"

// extractCandidates decomposes a raw payload into one field map per
// candidate event, following the same branching the original raw processor
// uses: seed the base fields from the envelope and query string, resolve a
// schema from the "e" short code if there is one, then expand the body (if
// any) into one or more candidates.
//
//  1. No body: the query string alone is the candidate (GET-style tracking)
//     when it carries an "e" event type; without one there is no candidate.
//  2. Body is a payload_data envelope ({"schema": "...payload_data...",
//     "data": [...]})  : one candidate per array item, merged over base.
//  3. Else if base already resolved a known schema: the body itself is the
//     event's data, validated directly against that schema.
//  4. Else: the body must be a self-describing {"schema": ..., "data": ...}
//     object.
func extractCandidates(payload raw.CollectorPayload) ([]map[string]string, error) {
	base := map[string]string{}
	if payload.IPAddress != "" {
		base["ip"] = payload.IPAddress
	}
	if payload.UserAgent != nil && *payload.UserAgent != "" {
		base["ua"] = *payload.UserAgent
	}
	if payload.NetworkUserID != nil && *payload.NetworkUserID != "" {
		base["nuid"] = *payload.NetworkUserID
	}
	if payload.Querystring != nil && *payload.Querystring != "" {
		values, err := url.ParseQuery(*payload.Querystring)
		if err == nil {
			for k := range values {
				base[k] = values.Get(k)
			}
		}
	}

	if e := base["e"]; e != "" {
		if schemaRef, ok := enrich.SchemaForShortCode(e); ok {
			base["schema"] = schemaRef
		}
	}

	if len(payload.Body) == 0 {
		if base["e"] == "" {
			return nil, nil
		}
		return []map[string]string{base}, nil
	}

	contentType := ""
	if payload.ContentType != nil {
		contentType = *payload.ContentType
	}
	if !strings.Contains(contentType, "application/json") {
		return nil, fmt.Errorf("unsupported body content type %q", contentType)
	}

	var body map[string]any
	if err := json.Unmarshal(payload.Body, &body); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	if schemaVal, _ := body["schema"].(string); strings.HasPrefix(schemaVal, payloadDataSchemaPrefix) {
		items, ok := body["data"].([]any)
		if !ok {
			return nil, fmt.Errorf("payload_data body missing data array")
		}
		candidates := make([]map[string]string, 0, len(items))
		for _, elem := range items {
			item, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("payload_data item is not an object")
			}
			candidates = append(candidates, mergeFields(base, item))
		}
		return candidates, nil
	}

	if resolvedSchema := base["schema"]; resolvedSchema != "" {
		fields := mergeFields(base, body)
		fields["schema"] = resolvedSchema
		fields[enrich.RawEventObjectField] = "1"
		return []map[string]string{fields}, nil
	}

	schemaVal, hasSchema := body["schema"].(string)
	dataVal, hasData := body["data"]
	if !hasSchema || schemaVal == "" || !hasData {
		return nil, fmt.Errorf("body is not a payload_data array and carries no {schema, data}")
	}
	dataObj, ok := dataVal.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("body data is not an object")
	}
	fields := mergeFields(base, dataObj)
	fields["schema"] = schemaVal
	return []map[string]string{fields}, nil
}

func mergeFields(base map[string]string, item map[string]any) map[string]string {
	fields := make(map[string]string, len(base)+len(item))
	for k, v := range base {
		fields[k] = v
	}
	for k, v := range item {
		fields[k] = stringify(v)
	}
	return fields
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
