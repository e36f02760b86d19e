package enrich

import (
	"strconv"
	"strings"
	"time"
)

// transformSpec names the atomic field a short tracker key maps onto and
// the function used to convert its raw string value.
type transformSpec struct {
	field     string
	transform func(string) (any, error)
}

// transformations is the short-tracker-key -> atomic-field table consumed
// by Scratchpad.SetShort. Keys not listed here are ignored by the
// transform stage (they are either handled by a later enrichment stage or
// not part of the atomic record at all).
var transformations = map[string]transformSpec{
	"eid":  {"event_id", identity},
	"aid":  {"identifier", identity},
	"p":    {"platform", identity},
	"dtm":  {"dvce_created_tstamp", transformTstamp},
	"ttm":  {"true_tstamp", transformTstamp},
	"stm":  {"dvce_sent_tstamp", transformTstamp},
	"tv":   {"v_tracker", identity},
	"cv":   {"v_collector", identity},
	"tna":  {"name_tracker", identity},
	"ip":   {"user_ipaddress", transformIP},
	"uid":  {"user_id", identity},
	"duid": {"domain_userid", identity},
	"vid":  {"domain_sessionidx", transformInt},
	"sid":  {"domain_sessionid", identity},
	"nuid": {"network_userid", identity},
	"ua":   {"useragent", identity},
	"lang": {"language", identity},
}

func identity(v string) (any, error) {
	return v, nil
}

func transformInt(v string) (any, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// transformTstamp converts a millisecond-epoch string into a UTC time.Time.
func transformTstamp(v string) (any, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// transformIP mirrors the original's IP-cleaning rule: a request may have
// been proxied through a chain of forwarders recorded as a comma-separated
// list, and any hop may be bracketed (an IPv6 literal in a Forwarded-style
// header). Only the first hop is kept, brackets stripped.
func transformIP(v string) (any, error) {
	first := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
	first = strings.TrimPrefix(first, "[")
	first = strings.TrimSuffix(first, "]")
	return first, nil
}

// TransformEnrichment is the second stage of the enrichment chain: it walks
// the raw tracker key/value pairs and copies each recognised one onto the
// scratchpad's matching atomic field.
type TransformEnrichment struct{}

// Enrich applies every raw tracker key the scratchpad carries that
// transformations recognises.
func (TransformEnrichment) Enrich(pad *Scratchpad) error {
	for key, value := range pad.RawFields {
		if value == "" {
			continue
		}
		if err := pad.SetShort(key, value); err != nil {
			return err
		}
	}
	return nil
}
