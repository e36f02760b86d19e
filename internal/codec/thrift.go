package codec

import (
	"context"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/datenstrom/datenstrom-go/internal/raw"
)

// Thrift field IDs for the Snowplow CollectorPayload struct. Byte-for-byte
// compatibility with the Snowplow Stream Collector's Thrift records is a
// contract of this codec:
//
//	struct CollectorPayload {
//	    31337: string schema
//	    100: string ipAddress
//	    200: i64 timestamp
//	    210: string encoding
//	    220: string collector
//	    300: optional string userAgent
//	    310: optional string refererUri
//	    320: optional string path
//	    330: optional string querystring
//	    340: optional string body
//	    350: optional list<string> headers
//	    360: optional string contentType
//	    400: optional string hostname
//	    410: optional string networkUserId
//	}
const (
	fieldSchema        = int16(31337)
	fieldIPAddress     = int16(100)
	fieldTimestamp     = int16(200)
	fieldEncoding      = int16(210)
	fieldCollector     = int16(220)
	fieldUserAgent     = int16(300)
	fieldRefererURI    = int16(310)
	fieldPath          = int16(320)
	fieldQuerystring   = int16(330)
	fieldBody          = int16(340)
	fieldHeaders       = int16(350)
	fieldContentType   = int16(360)
	fieldHostname      = int16(400)
	fieldNetworkUserID = int16(410)
)

// EncodeThrift serialises a CollectorPayload using Thrift's binary protocol.
func EncodeThrift(p raw.CollectorPayload) ([]byte, error) {
	ctx := context.Background()
	transport := thrift.NewTMemoryBuffer()
	proto := thrift.NewTBinaryProtocolTransport(transport)

	if err := proto.WriteStructBegin(ctx, "CollectorPayload"); err != nil {
		return nil, err
	}

	writeString := func(id int16, name string, v string) error {
		if err := proto.WriteFieldBegin(ctx, name, thrift.STRING, id); err != nil {
			return err
		}
		if err := proto.WriteString(ctx, v); err != nil {
			return err
		}
		return proto.WriteFieldEnd(ctx)
	}
	writeOptString := func(id int16, name string, v *string) error {
		if v == nil {
			return nil
		}
		return writeString(id, name, *v)
	}

	if err := writeString(fieldSchema, "schema", p.SchemaName); err != nil {
		return nil, err
	}
	if err := writeString(fieldIPAddress, "ipAddress", p.IPAddress); err != nil {
		return nil, err
	}

	if err := proto.WriteFieldBegin(ctx, "timestamp", thrift.I64, fieldTimestamp); err != nil {
		return nil, err
	}
	if err := proto.WriteI64(ctx, p.Timestamp); err != nil {
		return nil, err
	}
	if err := proto.WriteFieldEnd(ctx); err != nil {
		return nil, err
	}

	if err := writeString(fieldEncoding, "encoding", p.Encoding); err != nil {
		return nil, err
	}
	if err := writeString(fieldCollector, "collector", p.Collector); err != nil {
		return nil, err
	}

	if err := writeOptString(fieldUserAgent, "userAgent", p.UserAgent); err != nil {
		return nil, err
	}
	if err := writeOptString(fieldRefererURI, "refererUri", p.RefererURI); err != nil {
		return nil, err
	}
	if err := writeOptString(fieldPath, "path", p.Path); err != nil {
		return nil, err
	}
	if err := writeOptString(fieldQuerystring, "querystring", p.Querystring); err != nil {
		return nil, err
	}

	if p.Body != nil {
		if err := proto.WriteFieldBegin(ctx, "body", thrift.STRING, fieldBody); err != nil {
			return nil, err
		}
		if err := proto.WriteBinary(ctx, p.Body); err != nil {
			return nil, err
		}
		if err := proto.WriteFieldEnd(ctx); err != nil {
			return nil, err
		}
	}

	if p.Headers != nil {
		if err := proto.WriteFieldBegin(ctx, "headers", thrift.LIST, fieldHeaders); err != nil {
			return nil, err
		}
		if err := proto.WriteListBegin(ctx, thrift.STRING, len(p.Headers)); err != nil {
			return nil, err
		}
		for _, h := range p.Headers {
			if err := proto.WriteString(ctx, h); err != nil {
				return nil, err
			}
		}
		if err := proto.WriteListEnd(ctx); err != nil {
			return nil, err
		}
		if err := proto.WriteFieldEnd(ctx); err != nil {
			return nil, err
		}
	}

	if err := writeOptString(fieldContentType, "contentType", p.ContentType); err != nil {
		return nil, err
	}
	if err := writeOptString(fieldHostname, "hostname", p.Hostname); err != nil {
		return nil, err
	}
	if err := writeOptString(fieldNetworkUserID, "networkUserId", p.NetworkUserID); err != nil {
		return nil, err
	}

	if err := proto.WriteFieldStop(ctx); err != nil {
		return nil, err
	}
	if err := proto.WriteStructEnd(ctx); err != nil {
		return nil, err
	}

	return transport.Bytes(), nil
}

// DecodeThrift parses a Thrift binary-protocol CollectorPayload.
func DecodeThrift(b []byte) (raw.CollectorPayload, error) {
	ctx := context.Background()
	transport := thrift.NewTMemoryBufferLen(len(b))
	if _, err := transport.Write(b); err != nil {
		return raw.CollectorPayload{}, err
	}
	proto := thrift.NewTBinaryProtocolTransport(transport)

	var p raw.CollectorPayload

	if _, err := proto.ReadStructBegin(ctx); err != nil {
		return raw.CollectorPayload{}, err
	}
	for {
		_, typeID, id, err := proto.ReadFieldBegin(ctx)
		if err != nil {
			return raw.CollectorPayload{}, err
		}
		if typeID == thrift.STOP {
			break
		}
		switch id {
		case fieldSchema:
			p.SchemaName, err = proto.ReadString(ctx)
		case fieldIPAddress:
			p.IPAddress, err = proto.ReadString(ctx)
		case fieldTimestamp:
			p.Timestamp, err = proto.ReadI64(ctx)
		case fieldEncoding:
			p.Encoding, err = proto.ReadString(ctx)
		case fieldCollector:
			p.Collector, err = proto.ReadString(ctx)
		case fieldUserAgent:
			var v string
			v, err = proto.ReadString(ctx)
			p.UserAgent = &v
		case fieldRefererURI:
			var v string
			v, err = proto.ReadString(ctx)
			p.RefererURI = &v
		case fieldPath:
			var v string
			v, err = proto.ReadString(ctx)
			p.Path = &v
		case fieldQuerystring:
			var v string
			v, err = proto.ReadString(ctx)
			p.Querystring = &v
		case fieldBody:
			p.Body, err = proto.ReadBinary(ctx)
		case fieldHeaders:
			var elemType thrift.TType
			var size int
			elemType, size, err = proto.ReadListBegin(ctx)
			if err == nil {
				_ = elemType
				headers := make([]string, 0, size)
				for i := 0; i < size; i++ {
					var h string
					h, err = proto.ReadString(ctx)
					if err != nil {
						break
					}
					headers = append(headers, h)
				}
				p.Headers = headers
				if err == nil {
					err = proto.ReadListEnd(ctx)
				}
			}
		case fieldContentType:
			var v string
			v, err = proto.ReadString(ctx)
			p.ContentType = &v
		case fieldHostname:
			var v string
			v, err = proto.ReadString(ctx)
			p.Hostname = &v
		case fieldNetworkUserID:
			var v string
			v, err = proto.ReadString(ctx)
			p.NetworkUserID = &v
		default:
			err = thrift.SkipDefaultDepth(ctx, proto, typeID)
		}
		if err != nil {
			return raw.CollectorPayload{}, err
		}
		if err := proto.ReadFieldEnd(ctx); err != nil {
			return raw.CollectorPayload{}, err
		}
	}
	if err := proto.ReadStructEnd(ctx); err != nil {
		return raw.CollectorPayload{}, err
	}

	return p, nil
}
