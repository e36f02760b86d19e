package iglu

import "github.com/datenstrom/datenstrom-go/internal/atomic"

// staticSchemaDocs mirrors the original's STATIC_JSON_SCHEMAS: the set of
// schemas that ship with the enricher rather than being fetched from a
// registry, keyed by their canonical iglu: reference.
var staticSchemaDocs = map[string]map[string]any{
	"iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4": payloadDataSchema,
	"iglu:com.snowplowanalytics.snowplow/contexts/jsonschema/1-0-1":     contextsSchema,
	"iglu:com.snowplowanalytics.snowplow/unstruct_event/jsonschema/1-0-0": unstructEventSchema,
	"iglu:io.datenstrom/atomic/jsonschema/1-0-0":             atomic.Schema,
	"iglu:io.datenstrom/page_view/jsonschema/1-0-0":          pageViewSchema,
	"iglu:io.datenstrom/page_ping/jsonschema/1-0-0":          pagePingSchema,
	"iglu:io.datenstrom/structured_event/jsonschema/1-0-0":   structuredEventSchema,
	"iglu:io.datenstrom/transaction/jsonschema/1-0-0":        transactionSchema,
	"iglu:io.datenstrom/transaction_item/jsonschema/1-0-0":   transactionItemSchema,
	"iglu:io.datenstrom/campaign_attribution/jsonschema/1-0-0":              campaignAttributionSchema,
	"iglu:io.datenstrom/device_info/jsonschema/1-0-0":                       deviceInfoSchema,
}

var payloadDataSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "com.snowplowanalytics.snowplow", "name": "payload_data",
		"format": "jsonschema", "version": "1-0-4",
	},
	"type":     "object",
	"required": []any{"tv", "p", "e"},
	"properties": map[string]any{
		"tv": map[string]any{"type": "string"}, "p": map[string]any{"type": "string"},
		"e": map[string]any{"type": "string"}, "eid": map[string]any{"type": "string"},
		"aid": map[string]any{"type": "string"}, "tna": map[string]any{"type": "string"},
		"dtm": map[string]any{"type": "string"}, "ttm": map[string]any{"type": "string"},
		"stm": map[string]any{"type": "string"}, "tz": map[string]any{"type": "string"},
		"ip": map[string]any{"type": "string"}, "ua": map[string]any{"type": "string"},
		"lang": map[string]any{"type": "string"}, "cs": map[string]any{"type": "string"},
		"res": map[string]any{"type": "string"}, "cd": map[string]any{"type": "string"},
		"cookie": map[string]any{"type": "string"}, "url": map[string]any{"type": "string"},
		"page": map[string]any{"type": "string"}, "refr": map[string]any{"type": "string"},
		"fp": map[string]any{"type": "string"}, "uid": map[string]any{"type": "string"},
		"duid": map[string]any{"type": "string"}, "vid": map[string]any{"type": "string"},
		"sid": map[string]any{"type": "string"}, "nuid": map[string]any{"type": "string"},
		"se_ca": map[string]any{"type": "string"}, "se_ac": map[string]any{"type": "string"},
		"se_la": map[string]any{"type": "string"}, "se_pr": map[string]any{"type": "string"},
		"se_va": map[string]any{"type": "string"}, "ue_pr": map[string]any{"type": "string"},
		"ue_px": map[string]any{"type": "string"}, "co": map[string]any{"type": "string"},
		"cx": map[string]any{"type": "string"}, "pp_mix": map[string]any{"type": "string"},
		"pp_max": map[string]any{"type": "string"}, "pp_miy": map[string]any{"type": "string"},
		"pp_may": map[string]any{"type": "string"}, "tr_id": map[string]any{"type": "string"},
		"tr_tt": map[string]any{"type": "string"}, "tr_af": map[string]any{"type": "string"},
		"tr_tx": map[string]any{"type": "string"}, "tr_sh": map[string]any{"type": "string"},
		"tr_ci": map[string]any{"type": "string"}, "tr_st": map[string]any{"type": "string"},
		"tr_co": map[string]any{"type": "string"}, "tr_cu": map[string]any{"type": "string"},
		"ti_id": map[string]any{"type": "string"}, "ti_sk": map[string]any{"type": "string"},
		"ti_na": map[string]any{"type": "string"}, "ti_nm": map[string]any{"type": "string"},
		"ti_ca": map[string]any{"type": "string"}, "ti_pr": map[string]any{"type": "string"},
		"ti_qu": map[string]any{"type": "string"}, "ti_cu": map[string]any{"type": "string"},
	},
	"additionalProperties": false,
}

var contextsSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "com.snowplowanalytics.snowplow", "name": "contexts",
		"format": "jsonschema", "version": "1-0-1",
	},
	"type":     "object",
	"required": []any{"schema", "data"},
	"properties": map[string]any{
		"schema": map[string]any{"type": "string", "const": "iglu:com.snowplowanalytics.snowplow/contexts/jsonschema/1-0-1"},
		"data": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object", "required": []any{"schema", "data"},
				"properties": map[string]any{
					"schema": map[string]any{"type": "string", "pattern": `^iglu:[a-zA-Z0-9_.-]+/[a-zA-Z0-9_-]+/jsonschema/[0-9]+-[0-9]+-[0-9]+$`},
					"data":   map[string]any{"type": "object"},
				},
			},
		},
	},
}

var unstructEventSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "com.snowplowanalytics.snowplow", "name": "unstruct_event",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type":     "object",
	"required": []any{"schema", "data"},
	"properties": map[string]any{
		"schema": map[string]any{"type": "string", "const": "iglu:com.snowplowanalytics.snowplow/unstruct_event/jsonschema/1-0-0"},
		"data": map[string]any{
			"type": "object", "required": []any{"schema", "data"},
			"properties": map[string]any{
				"schema": map[string]any{"type": "string", "pattern": `^iglu:[a-zA-Z0-9_.-]+/[a-zA-Z0-9_-]+/jsonschema/[0-9]+-[0-9]+-[0-9]+$`},
				"data":   map[string]any{"type": "object"},
			},
		},
	},
}

var pageViewSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "page_view",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type":     "object",
	"required": []any{"page_url"},
	"properties": map[string]any{
		"page_url": map[string]any{"type": "string"}, "page_title": map[string]any{"type": []any{"string", "null"}},
		"referrer": map[string]any{"type": []any{"string", "null"}},
	},
}

var pagePingSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "page_ping",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type": "object",
	"properties": map[string]any{
		"page_url": map[string]any{"type": "string"}, "page_title": map[string]any{"type": []any{"string", "null"}},
		"referrer":        map[string]any{"type": []any{"string", "null"}},
		"pp_xoffset_min":  map[string]any{"type": []any{"integer", "null"}},
		"pp_xoffset_max":  map[string]any{"type": []any{"integer", "null"}},
		"pp_yoffset_min":  map[string]any{"type": []any{"integer", "null"}},
		"pp_yoffset_max":  map[string]any{"type": []any{"integer", "null"}},
	},
}

var structuredEventSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "structured_event",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type":     "object",
	"required": []any{"category", "action"},
	"properties": map[string]any{
		"category": map[string]any{"type": "string", "maxLength": 1000},
		"action":   map[string]any{"type": "string", "maxLength": 1000},
		"label":    map[string]any{"type": []any{"string", "null"}, "maxLength": 1000},
		"property": map[string]any{"type": []any{"string", "null"}, "maxLength": 1000},
		"value":    map[string]any{"type": []any{"number", "null"}},
	},
}

var transactionSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "transaction",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type":     "object",
	"required": []any{"order_id", "total_value"},
	"properties": map[string]any{
		"order_id": map[string]any{"type": "string"}, "total_value": map[string]any{"type": "number"},
		"affiliation": map[string]any{"type": []any{"string", "null"}}, "tax_value": map[string]any{"type": []any{"number", "null"}},
		"shipping": map[string]any{"type": []any{"number", "null"}}, "city": map[string]any{"type": []any{"string", "null"}},
		"state": map[string]any{"type": []any{"string", "null"}}, "country": map[string]any{"type": []any{"string", "null"}},
		"currency": map[string]any{"type": []any{"string", "null"}},
	},
}

var transactionItemSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "transaction_item",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type":     "object",
	"required": []any{"order_id", "sku", "price", "quantity"},
	"properties": map[string]any{
		"order_id": map[string]any{"type": "string"}, "sku": map[string]any{"type": "string"},
		"name": map[string]any{"type": []any{"string", "null"}}, "category": map[string]any{"type": []any{"string", "null"}},
		"price": map[string]any{"type": "number"}, "quantity": map[string]any{"type": "integer"},
		"currency": map[string]any{"type": []any{"string", "null"}},
	},
}

var campaignAttributionSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "campaign_attribution",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type": "object",
	"properties": map[string]any{
		"medium": map[string]any{"type": []any{"string", "null"}}, "source": map[string]any{"type": []any{"string", "null"}},
		"term": map[string]any{"type": []any{"string", "null"}}, "content": map[string]any{"type": []any{"string", "null"}},
		"campaign": map[string]any{"type": []any{"string", "null"}}, "click_id": map[string]any{"type": []any{"string", "null"}},
		"network": map[string]any{"type": []any{"string", "null"}},
	},
}

var deviceInfoSchema = map[string]any{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"self": map[string]any{
		"vendor": "io.datenstrom", "name": "device_info",
		"format": "jsonschema", "version": "1-0-0",
	},
	"type": "object",
	"properties": map[string]any{
		"device_family": map[string]any{"type": []any{"string", "null"}}, "os_family": map[string]any{"type": []any{"string", "null"}},
		"os_version": map[string]any{"type": []any{"string", "null"}}, "browser_family": map[string]any{"type": []any{"string", "null"}},
		"browser_version": map[string]any{"type": []any{"string", "null"}},
	},
}
