package iglu

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datenstrom/datenstrom-go/internal/clock"
)

func TestHardcodedRegistryServesPayloadData(t *testing.T) {
	hardcoded, err := NewHardcodedRegistry()
	require.NoError(t, err)

	entry, ok := hardcoded.Lookup("iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4")
	require.True(t, ok)
	require.True(t, entry.IsValid(map[string]any{"tv": "py-0.1.0", "p": "web", "e": "pv"}))
	require.False(t, entry.IsValid(map[string]any{"p": "web"}))
}

func TestParseSchemaRoundTrip(t *testing.T) {
	ref := "iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4"
	s, err := ParseSchema(ref)
	require.NoError(t, err)
	require.Equal(t, "com.snowplowanalytics.snowplow", s.Vendor)
	require.Equal(t, "payload_data", s.Name)
	require.Equal(t, "jsonschema", s.Format)
	require.Equal(t, "1-0-4", s.Version)
	require.Equal(t, ref, s.String())
}

func TestRemoteRegistryCachesNegativeResultUntilExpiry(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	fake := clock.NewFake(time.Unix(0, 0))
	remote, err := NewRemoteRegistry(srv.URL, fake, nil)
	require.NoError(t, err)

	ref := "iglu:com.example/widget/jsonschema/1-0-0"
	_, ok := remote.Lookup(ref)
	require.False(t, ok)
	_, ok = remote.Lookup(ref)
	require.False(t, ok)
	require.Equal(t, 1, hits, "second lookup within the negative TTL should be served from cache")

	fake.Advance(2 * time.Minute)
	_, ok = remote.Lookup(ref)
	require.False(t, ok)
	require.Equal(t, 2, hits, "lookup after the negative TTL expires should hit the network again")
}

func TestRemoteRegistryServesCompiledSchema(t *testing.T) {
	doc := map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"self": map[string]any{
			"vendor": "com.example", "name": "widget", "format": "jsonschema", "version": "1-0-0",
		},
		"type":     "object",
		"required": []any{"id"},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(doc)
	}))
	defer srv.Close()

	remote, err := NewRemoteRegistry(srv.URL, clock.Real{}, nil)
	require.NoError(t, err)

	entry, ok := remote.Lookup("iglu:com.example/widget/jsonschema/1-0-0")
	require.True(t, ok)
	require.True(t, entry.IsValid(map[string]any{"id": "abc"}))
	require.False(t, entry.IsValid(map[string]any{}))
}

func TestRegistryMemoizesAcrossHardcodedAndRemote(t *testing.T) {
	hardcoded, err := NewHardcodedRegistry()
	require.NoError(t, err)

	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	remote, err := NewRemoteRegistry(srv.URL, clock.Real{}, nil)
	require.NoError(t, err)

	registry, err := NewRegistry(hardcoded, remote)
	require.NoError(t, err)

	_, err = registry.Resolve("iglu:com.example/missing/jsonschema/1-0-0")
	require.Error(t, err)
	_, err = registry.Resolve("iglu:com.example/missing/jsonschema/1-0-0")
	require.Error(t, err)
	require.Equal(t, 1, hits, "the remote registry's negative cache should prevent a second remote round trip")

	_, err = registry.Resolve("iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4")
	require.NoError(t, err)
}
