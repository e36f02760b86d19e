package codec

import (
	"encoding/json"
	"fmt"

	"github.com/linkedin/goavro/v2"

	"github.com/datenstrom/datenstrom-go/internal/raw"
)

// rawAvroSchema is the fixed Avro record schema for CollectorPayload,
// carrying the same fields as the Thrift layout.
var rawAvroSchemaJSON = mustJSON(map[string]any{
	"type":      "record",
	"name":      "CollectorPayload",
	"namespace": "io.datenstrom",
	"fields": []any{
		map[string]any{"name": "schema", "type": "string"},
		map[string]any{"name": "ipAddress", "type": "string"},
		map[string]any{"name": "timestamp", "type": "long"},
		map[string]any{"name": "encoding", "type": "string"},
		map[string]any{"name": "collector", "type": "string"},
		map[string]any{"name": "userAgent", "type": []any{"null", "string"}},
		map[string]any{"name": "refererUri", "type": []any{"null", "string"}},
		map[string]any{"name": "path", "type": []any{"null", "string"}},
		map[string]any{"name": "querystring", "type": []any{"null", "string"}},
		map[string]any{"name": "body", "type": []any{"null", "bytes"}},
		map[string]any{"name": "headers", "type": []any{"null", map[string]any{"type": "array", "items": "string"}}},
		map[string]any{"name": "contentType", "type": []any{"null", "string"}},
		map[string]any{"name": "hostname", "type": []any{"null", "string"}},
		map[string]any{"name": "networkUserId", "type": []any{"null", "string"}},
	},
})

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

var rawAvroCodec = mustAvroCodec(rawAvroSchemaJSON)

func mustAvroCodec(schemaJSON string) *goavro.Codec {
	codec, err := goavro.NewCodec(schemaJSON)
	if err != nil {
		panic(fmt.Sprintf("codec: invalid avro schema: %v", err))
	}
	return codec
}

func optStringUnion(v *string) any {
	if v == nil {
		return nil
	}
	return goavro.Union("string", *v)
}

func stringFromUnion(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(map[string]any)["string"].(string)
	return &s
}

func optBytesUnion(v []byte) any {
	if v == nil {
		return nil
	}
	return goavro.Union("bytes", v)
}

func bytesFromUnion(v any) []byte {
	if v == nil {
		return nil
	}
	return v.(map[string]any)["bytes"].([]byte)
}

func optHeadersUnion(v []string) any {
	if v == nil {
		return nil
	}
	items := make([]any, len(v))
	for i, s := range v {
		items[i] = s
	}
	return goavro.Union("array", items)
}

func headersFromUnion(v any) []string {
	if v == nil {
		return nil
	}
	items := v.(map[string]any)["array"].([]any)
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.(string)
	}
	return out
}

// EncodeAvro serialises a CollectorPayload using the schemaless Avro binary
// encoding (no embedded writer schema, matching the Snowplow convention).
func EncodeAvro(p raw.CollectorPayload) ([]byte, error) {
	native := map[string]any{
		"schema":        p.SchemaName,
		"ipAddress":     p.IPAddress,
		"timestamp":     p.Timestamp,
		"encoding":      p.Encoding,
		"collector":     p.Collector,
		"userAgent":     optStringUnion(p.UserAgent),
		"refererUri":    optStringUnion(p.RefererURI),
		"path":          optStringUnion(p.Path),
		"querystring":   optStringUnion(p.Querystring),
		"body":          optBytesUnion(p.Body),
		"headers":       optHeadersUnion(p.Headers),
		"contentType":   optStringUnion(p.ContentType),
		"hostname":      optStringUnion(p.Hostname),
		"networkUserId": optStringUnion(p.NetworkUserID),
	}
	return rawAvroCodec.BinaryFromNative(nil, native)
}

// DecodeAvro parses a schemaless Avro-encoded CollectorPayload.
func DecodeAvro(b []byte) (raw.CollectorPayload, error) {
	native, _, err := rawAvroCodec.NativeFromBinary(b)
	if err != nil {
		return raw.CollectorPayload{}, fmt.Errorf("codec: invalid avro message: %w", err)
	}
	m := native.(map[string]any)
	return raw.CollectorPayload{
		SchemaName:    m["schema"].(string),
		IPAddress:     m["ipAddress"].(string),
		Timestamp:     m["timestamp"].(int64),
		Encoding:      m["encoding"].(string),
		Collector:     m["collector"].(string),
		UserAgent:     stringFromUnion(m["userAgent"]),
		RefererURI:    stringFromUnion(m["refererUri"]),
		Path:          stringFromUnion(m["path"]),
		Querystring:   stringFromUnion(m["querystring"]),
		Body:          bytesFromUnion(m["body"]),
		Headers:       headersFromUnion(m["headers"]),
		ContentType:   stringFromUnion(m["contentType"]),
		Hostname:      stringFromUnion(m["hostname"]),
		NetworkUserID: stringFromUnion(m["networkUserId"]),
	}, nil
}
