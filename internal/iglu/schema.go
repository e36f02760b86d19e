// Package iglu implements the Iglu-style schema registry: a hardcoded set
// of built-in schemas plus optional remote HTTP registries, fronted by an
// LRU+TTL cache and a process-lifetime memoization layer.
package iglu

import (
	"fmt"
	"regexp"
)

// schemaPattern matches an Iglu schema URI, e.g.
// iglu:com.snowplowanalytics.snowplow/event/jsonschema/1-0-0
var schemaPattern = regexp.MustCompile(`^iglu:([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_-]+)/([a-zA-Z0-9_-]+)/(\d+)-(\d+)-(\d+)$`)

// Schema identifies a single versioned JSON Schema by its four Iglu
// coordinates.
type Schema struct {
	Vendor  string
	Name    string
	Format  string
	Version string
}

// String renders the schema back into its canonical iglu: URI.
func (s Schema) String() string {
	return fmt.Sprintf("iglu:%s/%s/%s/%s", s.Vendor, s.Name, s.Format, s.Version)
}

// Key is the cache key used across the registry and its caches.
func (s Schema) Key() string {
	return s.String()
}

// ParseSchema parses an iglu: schema URI into its four coordinates.
func ParseSchema(ref string) (Schema, error) {
	m := schemaPattern.FindStringSubmatch(ref)
	if m == nil {
		return Schema{}, fmt.Errorf("iglu: malformed schema reference %q", ref)
	}
	return Schema{
		Vendor:  m[1],
		Name:    m[2],
		Format:  m[3],
		Version: fmt.Sprintf("%s-%s-%s", m[4], m[5], m[6]),
	}, nil
}

// MustParseSchema parses ref and panics on failure. Reserved for schema
// literals that are known at compile time.
func MustParseSchema(ref string) Schema {
	s, err := ParseSchema(ref)
	if err != nil {
		panic(err)
	}
	return s
}
