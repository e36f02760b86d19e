// Package codec implements the CollectorPayload wire codec: Thrift binary
// and schemaless Avro, plus the oversized-payload split algorithm.
package codec

import (
	"fmt"

	"github.com/datenstrom/datenstrom-go/internal/raw"
)

// Format selects which wire encoding the codec uses. Exactly one format is
// used end-to-end within a deployment.
type Format string

const (
	FormatThrift Format = "thrift"
	FormatAvro   Format = "avro"
)

// Encode serialises a CollectorPayload in the given wire format, stamping
// the format-appropriate schema tag onto the payload first.
func Encode(format Format, p raw.CollectorPayload) ([]byte, error) {
	switch format {
	case FormatThrift:
		p.SchemaName = raw.SnowplowCollectorPayloadSchema
		return EncodeThrift(p)
	case FormatAvro:
		p.SchemaName = raw.AvroSchemaName
		return EncodeAvro(p)
	default:
		return nil, fmt.Errorf("codec: unknown format %q", format)
	}
}

// Decode parses a CollectorPayload out of the given wire format.
func Decode(format Format, b []byte) (raw.CollectorPayload, error) {
	switch format {
	case FormatThrift:
		return DecodeThrift(b)
	case FormatAvro:
		return DecodeAvro(b)
	default:
		return raw.CollectorPayload{}, fmt.Errorf("codec: unknown format %q", format)
	}
}
