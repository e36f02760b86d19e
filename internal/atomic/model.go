// Package atomic holds the AtomicEvent output record and the
// self-describing event/context pairs it carries.
package atomic

import (
	"encoding/json"
	"time"
)

// SelfDescribingEvent pairs an Iglu schema reference with free-form data.
type SelfDescribingEvent struct {
	Schema string         `json:"schema"`
	Data   map[string]any `json:"data"`
}

// SelfDescribingContext is structurally identical to SelfDescribingEvent but
// kept as a distinct type so contexts and events can't be confused at the
// call site.
type SelfDescribingContext struct {
	Schema string         `json:"schema"`
	Data   map[string]any `json:"data"`
}

// AtomicEvent is the normalised, fixed-schema record the enricher writes to
// the events lane. Field names match the wire JSON aliases exactly (no
// schema_name renaming) so downstream consumers see the contract described
// in the data model.
type AtomicEvent struct {
	EventID string `json:"event_id"`

	CollectorHost string  `json:"collector_host"`
	CollectorAuth *string `json:"collector_auth,omitempty"`
	Identifier    *string `json:"identifier,omitempty"`
	Platform      string  `json:"platform"`

	EventVendor  string `json:"event_vendor"`
	EventName    string `json:"event_name"`
	EventVersion string `json:"event_version"`

	Tstamp            time.Time  `json:"tstamp"`
	CollectorTstamp   time.Time  `json:"collector_tstamp"`
	DvceCreatedTstamp *time.Time `json:"dvce_created_tstamp,omitempty"`
	DvceSentTstamp    *time.Time `json:"dvce_sent_tstamp,omitempty"`
	TrueTstamp        *time.Time `json:"true_tstamp,omitempty"`
	EtlTstamp         time.Time  `json:"etl_tstamp"`

	VTracker    *string `json:"v_tracker,omitempty"`
	VCollector  string  `json:"v_collector"`
	VEtl        string  `json:"v_etl"`
	NameTracker *string `json:"name_tracker,omitempty"`

	UserIPAddress     *string `json:"user_ipaddress,omitempty"`
	UserID            *string `json:"user_id,omitempty"`
	SessionID         *string `json:"session_id,omitempty"`
	SessionIdx        *int    `json:"session_idx,omitempty"`
	DomainUserID      *string `json:"domain_userid,omitempty"`
	DomainSessionID   *string `json:"domain_sessionid,omitempty"`
	DomainSessionIdx  *int    `json:"domain_sessionidx,omitempty"`
	NetworkUserID     *string `json:"network_userid,omitempty"`

	GeoCountry *string `json:"geo_country,omitempty"`
	GeoRegion  *string `json:"geo_region,omitempty"`
	GeoCity    *string `json:"geo_city,omitempty"`

	Useragent *string `json:"useragent,omitempty"`
	Language  *string `json:"language,omitempty"`

	DeviceID *string `json:"device_id,omitempty"`
	TenantID *string `json:"tenant_id,omitempty"`

	Category *string `json:"category,omitempty"`
	Action   *string `json:"action,omitempty"`
	Label    *string `json:"label,omitempty"`
	Property *string `json:"property,omitempty"`
	Value    *string `json:"value,omitempty"`

	Contexts []SelfDescribingContext `json:"contexts"`
	Event    SelfDescribingEvent     `json:"event"`
}

// ToJSON matches the original's by_alias=True dump: the wire format always
// uses the field names above, so a plain json.Marshal is sufficient.
func (e AtomicEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an AtomicEvent off the events lane.
func FromJSON(b []byte) (AtomicEvent, error) {
	var e AtomicEvent
	if err := json.Unmarshal(b, &e); err != nil {
		return AtomicEvent{}, err
	}
	return e, nil
}

// FieldNames lists every top-level field name recognised on the atomic
// record. The scratchpad does not read it; it rejects unknown set_value
// keys through its own index built from the struct's json tags.
var FieldNames = buildFieldNames()

func buildFieldNames() map[string]struct{} {
	names := []string{
		"event_id", "collector_host", "collector_auth", "identifier", "platform",
		"event_vendor", "event_name", "event_version",
		"tstamp", "collector_tstamp", "dvce_created_tstamp", "dvce_sent_tstamp", "true_tstamp", "etl_tstamp",
		"v_tracker", "v_collector", "v_etl", "name_tracker",
		"user_ipaddress", "user_id", "session_id", "session_idx",
		"domain_userid", "domain_sessionid", "domain_sessionidx", "network_userid",
		"geo_country", "geo_region", "geo_city",
		"useragent", "language",
		"device_id", "tenant_id",
		"category", "action", "label", "property", "value",
	}
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}
