package iglu

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Entry is a resolved schema: its identity, the raw JSON Schema document it
// came from, and a compiled validator ready to check candidate instances.
type Entry struct {
	Schema   Schema
	Document map[string]any

	validator *gojsonschema.Schema
}

// NewEntry compiles a raw JSON Schema document (Draft 2020-12) into an
// Entry. The document's own $schema/self metadata is not re-validated here;
// callers that need that guard (the remote registry) check it before
// calling NewEntry.
func NewEntry(schema Schema, document map[string]any) (Entry, error) {
	loader := gojsonschema.NewGoLoader(document)
	validator, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return Entry{}, fmt.Errorf("iglu: invalid schema document for %s: %w", schema, err)
	}
	return Entry{Schema: schema, Document: document, validator: validator}, nil
}

// Validate checks instance (already decoded into Go values suitable for
// gojsonschema, typically map[string]any) against the entry's schema.
func (e Entry) Validate(instance any) (*gojsonschema.Result, error) {
	return e.validator.Validate(gojsonschema.NewGoLoader(instance))
}

// IsValid reports whether instance satisfies the schema, swallowing the
// detailed error list.
func (e Entry) IsValid(instance any) bool {
	result, err := e.Validate(instance)
	if err != nil {
		return false
	}
	return result.Valid()
}

// ValidationErrors validates instance and, when invalid, returns the
// offending field paths (e.g. "page_url", "(root)"). A nil slice means
// instance satisfies the schema.
func (e Entry) ValidationErrors(instance any) ([]string, error) {
	result, err := e.Validate(instance)
	if err != nil {
		return nil, err
	}
	if result.Valid() {
		return nil, nil
	}
	paths := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		path := re.Field()
		// "required" errors report the offending property name in Details
		// rather than Field, which just points at the containing object.
		if prop, ok := re.Details()["property"].(string); ok && prop != "" {
			if path == "" || path == "(root)" {
				path = prop
			} else {
				path = path + "." + prop
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Fields returns the top-level property names declared by the schema, used
// by the event extraction enrichment to know which tracker keys a
// self-describing event's data object is allowed to carry.
func (e Entry) Fields() []string {
	props, ok := e.Document["properties"].(map[string]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(props))
	for k := range props {
		out = append(out, k)
	}
	return out
}

// MarshalRoundTrip re-encodes a Go value through JSON to obtain a
// map[string]any suitable for gojsonschema's Go loader, used when the
// source value came from a typed struct rather than a decoded map.
func MarshalRoundTrip(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
