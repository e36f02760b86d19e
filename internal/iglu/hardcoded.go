package iglu

import "fmt"

// HardcodedRegistry serves the schemas built into the binary (the
// payload_data/contexts/unstruct_event envelopes and a handful of
// datenstrom-native domain schemas). It never performs network I/O: any
// ref outside staticSchemaDocs is reported as not found so the caller
// falls through to a remote registry.
type HardcodedRegistry struct {
	entries map[string]Entry
}

// NewHardcodedRegistry compiles every built-in schema document up front so
// that later lookups cannot fail on a malformed literal.
func NewHardcodedRegistry() (*HardcodedRegistry, error) {
	entries := make(map[string]Entry, len(staticSchemaDocs))
	for ref, doc := range staticSchemaDocs {
		schema, err := ParseSchema(ref)
		if err != nil {
			return nil, fmt.Errorf("iglu: hardcoded schema %q: %w", ref, err)
		}
		entry, err := NewEntry(schema, doc)
		if err != nil {
			return nil, fmt.Errorf("iglu: hardcoded schema %q: %w", ref, err)
		}
		entries[ref] = entry
	}
	return &HardcodedRegistry{entries: entries}, nil
}

// Lookup returns the compiled Entry for ref, or ok=false if ref is not one
// of the built-in schemas.
func (r *HardcodedRegistry) Lookup(ref string) (Entry, bool) {
	e, ok := r.entries[ref]
	return e, ok
}
