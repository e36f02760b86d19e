// Package raw holds the CollectorPayload wire envelope and the ErrorPayload
// written to the errors lane.
package raw

import (
	"encoding/json"
	"strings"
	"time"
)

// SnowplowCollectorPayloadSchema is the Iglu reference stamped on a
// Thrift-encoded CollectorPayload.
const SnowplowCollectorPayloadSchema = "iglu:com.snowplowanalytics.snowplow/CollectorPayload/thrift/1-0-0"

// AvroSchemaName is the schema tag stamped on an Avro-encoded CollectorPayload.
const AvroSchemaName = "CollectorPayload"

// CollectorPayload is the raw envelope produced at ingest and consumed by
// the enricher. It is immutable through the pipeline: every component that
// needs a variant (e.g. body stripped for size accounting) works on a copy.
type CollectorPayload struct {
	SchemaName string `json:"schema"`

	IPAddress string `json:"ipAddress"`
	Timestamp int64  `json:"timestamp"`
	Encoding  string `json:"encoding"`
	Collector string `json:"collector"`

	UserAgent     *string  `json:"userAgent,omitempty"`
	RefererURI    *string  `json:"refererUri,omitempty"`
	Path          *string  `json:"path,omitempty"`
	Querystring   *string  `json:"querystring,omitempty"`
	Body          []byte   `json:"body,omitempty"`
	Headers       []string `json:"headers,omitempty"`
	ContentType   *string  `json:"contentType,omitempty"`
	Hostname      *string  `json:"hostname,omitempty"`
	NetworkUserID *string  `json:"networkUserId,omitempty"`
}

// HeadersMap splits the "Name: Value" header lines into a lower-cased-key
// map, silently dropping any entry without exactly one ":" separator.
func (p CollectorPayload) HeadersMap() map[string]string {
	out := make(map[string]string, len(p.Headers))
	for _, h := range p.Headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		out[key] = strings.TrimSpace(parts[1])
	}
	return out
}

// ErrorPayload is written to the errors lane whenever decoding or
// enrichment fails for a raw payload.
type ErrorPayload struct {
	CollectorDomain string    `json:"collector_domain"`
	Reason          string    `json:"reason"`
	Tstamp          time.Time `json:"tstamp"`
	Payload         []byte    `json:"payload,omitempty"`
}

// NewErrorPayload stamps the current time onto a fresh ErrorPayload.
func NewErrorPayload(domain, reason string, payload []byte) ErrorPayload {
	return ErrorPayload{
		CollectorDomain: domain,
		Reason:          reason,
		Tstamp:          time.Now().UTC(),
		Payload:         payload,
	}
}

// ToBytes serialises the ErrorPayload for the errors lane.
func (e ErrorPayload) ToBytes() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorPayloadFromJSON decodes an ErrorPayload off the errors lane.
func ErrorPayloadFromJSON(b []byte) (ErrorPayload, error) {
	var e ErrorPayload
	if err := json.Unmarshal(b, &e); err != nil {
		return ErrorPayload{}, err
	}
	return e, nil
}
