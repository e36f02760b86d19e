package enrich

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
	"github.com/datenstrom/datenstrom-go/internal/iglu"
)

const (
	schemaPageView             = "iglu:io.datenstrom/page_view/jsonschema/1-0-0"
	schemaPagePing             = "iglu:io.datenstrom/page_ping/jsonschema/1-0-0"
	schemaStructuredEvent      = "iglu:io.datenstrom/structured_event/jsonschema/1-0-0"
	schemaTransaction          = "iglu:io.datenstrom/transaction/jsonschema/1-0-0"
	schemaTransactionItem      = "iglu:io.datenstrom/transaction_item/jsonschema/1-0-0"
	schemaUnstructEventWrapper = "iglu:com.snowplowanalytics.snowplow/unstruct_event/jsonschema/1-0-0"
)

// RawEventObjectField marks a candidate whose event data was carried as a
// single self-describing JSON object in the request body (rather than
// tracker key/value pairs), so extraction must read the schema's declared
// fields directly instead of going through the "e" short code's key
// mapping even when "e" also happens to be set.
const RawEventObjectField = "__event_object__"

// SchemaForShortCode resolves a tracker "e" short code to its Iglu event
// schema. "ue" (unstructured event) carries its own schema in the payload
// and is not mapped here.
func SchemaForShortCode(eventType string) (string, bool) {
	switch eventType {
	case "pv":
		return schemaPageView, true
	case "pp":
		return schemaPagePing, true
	case "se":
		return schemaStructuredEvent, true
	case "tr":
		return schemaTransaction, true
	case "ti":
		return schemaTransactionItem, true
	default:
		return "", false
	}
}

// EventExtractionEnrichment resolves the event type tracker key ("e") into
// a self-describing event and assigns it onto the scratchpad. This is the
// only stage that calls Scratchpad.SetEvent, so it must run exactly once
// per candidate and before any context that reads event type.
type EventExtractionEnrichment struct {
	Registry *iglu.Registry
}

func (x EventExtractionEnrichment) Enrich(pad *Scratchpad) error {
	eventType := pad.RawFields["e"]

	schemaRef, data, err := x.extract(pad, eventType)
	if err != nil {
		return err
	}

	if x.Registry != nil {
		if entry, err := x.Registry.Resolve(schemaRef); err == nil {
			if paths, verr := entry.ValidationErrors(data); verr == nil && len(paths) > 0 {
				return fmt.Errorf("enrich: event data does not satisfy %s: invalid fields %s", schemaRef, strings.Join(paths, ", "))
			}
		}
	}

	if err := pad.SetValue("event_vendor", vendorOf(schemaRef)); err != nil {
		return err
	}
	if err := pad.SetValue("event_name", nameOf(schemaRef)); err != nil {
		return err
	}
	if err := pad.SetValue("event_version", versionOf(schemaRef)); err != nil {
		return err
	}

	if err := pad.SetEvent(atomic.SelfDescribingEvent{Schema: schemaRef, Data: data}); err != nil {
		return err
	}
	return flattenStructuredEvent(pad, data)
}

func (x EventExtractionEnrichment) extract(pad *Scratchpad, eventType string) (string, map[string]any, error) {
	f := pad.RawFields
	if f[RawEventObjectField] != "" {
		if schemaRef, ok := f["schema"]; ok && schemaRef != "" {
			return x.extractKnownSchema(pad, schemaRef)
		}
	}
	switch eventType {
	case "pv":
		return schemaPageView, map[string]any{
			"page_url":   f["url"],
			"page_title": optional(f["page"]),
			"referrer":   optional(f["refr"]),
		}, nil
	case "pp":
		return schemaPagePing, map[string]any{
			"page_url":       f["url"],
			"page_title":     optional(f["page"]),
			"referrer":       optional(f["refr"]),
			"pp_xoffset_min": optionalInt(f["pp_mix"]),
			"pp_xoffset_max": optionalInt(f["pp_max"]),
			"pp_yoffset_min": optionalInt(f["pp_miy"]),
			"pp_yoffset_max": optionalInt(f["pp_may"]),
		}, nil
	case "se":
		return schemaStructuredEvent, map[string]any{
			"category": f["se_ca"],
			"action":   f["se_ac"],
			"label":    optional(f["se_la"]),
			"property": optional(f["se_pr"]),
			"value":    optionalFloat(f["se_va"]),
		}, nil
	case "tr":
		return schemaTransaction, map[string]any{
			"order_id":    f["tr_id"],
			"total_value": mustFloat(f["tr_tt"]),
			"affiliation": optional(f["tr_af"]),
			"tax_value":   optionalFloat(f["tr_tx"]),
			"shipping":    optionalFloat(f["tr_sh"]),
			"city":        optional(f["tr_ci"]),
			"state":       optional(f["tr_st"]),
			"country":     optional(f["tr_co"]),
			"currency":    optional(f["tr_cu"]),
		}, nil
	case "ti":
		return schemaTransactionItem, map[string]any{
			"order_id": f["ti_id"],
			"sku":      f["ti_sk"],
			"name":     optional(f["ti_na"]),
			"category": optional(f["ti_ca"]),
			"price":    mustFloat(f["ti_pr"]),
			"quantity": mustInt(f["ti_qu"]),
			"currency": optional(f["ti_cu"]),
		}, nil
	case "ue":
		return x.extractUnstruct(pad)
	case "":
		if schemaRef, ok := f["schema"]; ok && schemaRef != "" {
			return x.extractKnownSchema(pad, schemaRef)
		}
		return "", nil, fmt.Errorf("enrich: missing event type")
	default:
		return "", nil, fmt.Errorf("enrich: unrecognised event type %q", eventType)
	}
}

// extractKnownSchema builds event data for a schema the raw processor
// resolved independently of the "e" short code (a body that carried a full
// self-describing object rather than tracker key/value pairs). Every raw
// field whose name matches a property the schema declares is carried
// through; registry validation then reports any that are missing.
func (x EventExtractionEnrichment) extractKnownSchema(pad *Scratchpad, schemaRef string) (string, map[string]any, error) {
	data := map[string]any{}
	if x.Registry != nil {
		if entry, err := x.Registry.Resolve(schemaRef); err == nil {
			for _, field := range entry.Fields() {
				if v, ok := pad.RawFields[field]; ok && v != "" {
					data[field] = v
				}
			}
			return schemaRef, data, nil
		}
	}
	for k, v := range pad.RawFields {
		if k == "schema" || k == "e" || k == RawEventObjectField {
			continue
		}
		data[k] = v
	}
	return schemaRef, data, nil
}

// flattenStructuredEvent copies the structured-event fields out of the
// event's data onto the atomic record's matching top-level fields. Fields
// absent from data are left unset; data of any event type that carries one
// of these keys (transaction_item's category, for one) is copied too.
func flattenStructuredEvent(pad *Scratchpad, data map[string]any) error {
	for _, field := range []string{"category", "action", "label", "property", "value"} {
		v, ok := data[field]
		if !ok || v == nil {
			continue
		}
		s, ok := stringifyAny(v)
		if !ok {
			continue
		}
		if err := pad.SetValue(field, s); err != nil {
			return err
		}
	}
	return nil
}

func stringifyAny(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	default:
		return "", false
	}
}

// unstructWrapper mirrors the unstruct_event envelope:
// {"schema": "...", "data": {"schema": "...", "data": {...}}}.
type unstructWrapper struct {
	Schema string `json:"schema"`
	Data   struct {
		Schema string         `json:"schema"`
		Data   map[string]any `json:"data"`
	} `json:"data"`
}

func (x EventExtractionEnrichment) extractUnstruct(pad *Scratchpad) (string, map[string]any, error) {
	raw, ok := readBase64JSON(pad.RawFields["ue_px"])
	if !ok {
		raw = []byte(pad.RawFields["ue_pr"])
	}
	if len(raw) == 0 {
		return "", nil, fmt.Errorf("enrich: unstructured event missing ue_pr/ue_px")
	}

	var wrapper unstructWrapper
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return "", nil, fmt.Errorf("enrich: invalid unstructured event payload: %w", err)
	}
	if wrapper.Schema != schemaUnstructEventWrapper {
		return "", nil, fmt.Errorf("enrich: unexpected unstructured event envelope schema %q", wrapper.Schema)
	}
	if wrapper.Data.Schema == "" {
		return "", nil, fmt.Errorf("enrich: unstructured event envelope missing inner schema")
	}
	return wrapper.Data.Schema, wrapper.Data.Data, nil
}

// readBase64JSON decodes a standard- or url-safe base64 string into raw
// JSON bytes. ok is false if s is empty or not valid base64.
func readBase64JSON(s string) ([]byte, bool) {
	if s == "" {
		return nil, false
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, true
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, true
	}
	return nil, false
}

func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func optionalInt(s string) any {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return n
}

func optionalFloat(s string) any {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}

func mustFloat(s string) any {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}

func mustInt(s string) any {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func vendorOf(schemaRef string) string {
	s, err := iglu.ParseSchema(schemaRef)
	if err != nil {
		return ""
	}
	return s.Vendor
}

func nameOf(schemaRef string) string {
	s, err := iglu.ParseSchema(schemaRef)
	if err != nil {
		return ""
	}
	return s.Name
}

func versionOf(schemaRef string) string {
	s, err := iglu.ParseSchema(schemaRef)
	if err != nil {
		return ""
	}
	return s.Version
}
