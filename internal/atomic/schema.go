package atomic

// Schema is the self-describing JSON Schema (Draft 2020-12) for
// io.datenstrom/atomic/jsonschema/1-0-0, validated against an assembled
// AtomicEvent before it leaves the scratchpad.
var Schema = map[string]any{
	"$schema":     "https://json-schema.org/draft/2020-12/schema",
	"description": "Schema for an atomic event in datenstrom",
	"self": map[string]any{
		"vendor":  "io.datenstrom",
		"name":    "atomic",
		"format":  "jsonschema",
		"version": "1-0-0",
	},
	"type": "object",
	"properties": map[string]any{
		"event_id":       map[string]any{"type": "string"},
		"collector_host": map[string]any{"type": "string"},
		"collector_auth": map[string]any{"type": []any{"string", "null"}},
		"identifier":     map[string]any{"type": []any{"string", "null"}},
		"platform":       map[string]any{"type": "string"},

		"event_vendor":  map[string]any{"type": "string"},
		"event_name":    map[string]any{"type": "string"},
		"event_version": map[string]any{"type": "string"},

		"tstamp":              map[string]any{"type": "string", "format": "date-time"},
		"collector_tstamp":    map[string]any{"type": "string", "format": "date-time"},
		"dvce_created_tstamp": map[string]any{"type": []any{"string", "null"}},
		"dvce_sent_tstamp":    map[string]any{"type": []any{"string", "null"}},
		"true_tstamp":         map[string]any{"type": []any{"string", "null"}},
		"etl_tstamp":          map[string]any{"type": "string", "format": "date-time"},

		"v_tracker":    map[string]any{"type": []any{"string", "null"}},
		"v_collector":  map[string]any{"type": "string"},
		"v_etl":        map[string]any{"type": "string"},
		"name_tracker": map[string]any{"type": []any{"string", "null"}},

		"user_ipaddress":     map[string]any{"type": []any{"string", "null"}},
		"user_id":            map[string]any{"type": []any{"string", "null"}},
		"session_id":         map[string]any{"type": []any{"string", "null"}},
		"session_idx":        map[string]any{"type": []any{"integer", "null"}},
		"domain_userid":      map[string]any{"type": []any{"string", "null"}},
		"domain_sessionid":   map[string]any{"type": []any{"string", "null"}},
		"domain_sessionidx":  map[string]any{"type": []any{"integer", "null"}},
		"network_userid":     map[string]any{"type": []any{"string", "null"}},

		"geo_country": map[string]any{"type": []any{"string", "null"}},
		"geo_region":  map[string]any{"type": []any{"string", "null"}},
		"geo_city":    map[string]any{"type": []any{"string", "null"}},

		"useragent": map[string]any{"type": []any{"string", "null"}},
		"language":  map[string]any{"type": []any{"string", "null"}},

		"device_id": map[string]any{"type": []any{"string", "null"}},
		"tenant_id": map[string]any{"type": []any{"string", "null"}},

		"category": map[string]any{"type": []any{"string", "null"}},
		"action":   map[string]any{"type": []any{"string", "null"}},
		"label":    map[string]any{"type": []any{"string", "null"}},
		"property": map[string]any{"type": []any{"string", "null"}},
		"value":    map[string]any{"type": []any{"string", "null"}},

		"contexts": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"schema": map[string]any{
						"type":    "string",
						"pattern": `^iglu:[a-zA-Z0-9-_.]+/[a-zA-Z0-9-_]+/[a-zA-Z0-9-_]+/[0-9]+-[0-9]+-[0-9]+$`,
					},
					"data": map[string]any{},
				},
				"required": []any{"schema", "data"},
			},
		},
		"event": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"schema": map[string]any{
					"type":    "string",
					"pattern": `^iglu:[a-zA-Z0-9-_.]+/[a-zA-Z0-9-_]+/[a-zA-Z0-9-_]+/[0-9]+-[0-9]+-[0-9]+$`,
				},
				"data": map[string]any{},
			},
			"required":             []any{"schema", "data"},
			"additionalProperties": false,
		},
	},
	"required": []any{
		"event_id", "collector_host", "platform",
		"event_vendor", "event_name", "event_version",
		"tstamp", "collector_tstamp", "etl_tstamp",
		"v_collector", "v_etl", "event",
	},
}
