package codec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/datenstrom/datenstrom-go/internal/raw"
)

func samplePayload() raw.CollectorPayload {
	ua := "Mozilla/5.0"
	path := "/i"
	qs := "e=pv&url=http://example.com"
	host := "collector.example.com"
	return raw.CollectorPayload{
		IPAddress:   "203.0.113.5",
		Timestamp:   1700000000000,
		Encoding:    "UTF-8",
		Collector:   "ssc-2.0.0-kinesis",
		UserAgent:   &ua,
		Path:        &path,
		Querystring: &qs,
		Hostname:    &host,
		Headers:     []string{"X-Forwarded-For: 203.0.113.5", "User-Agent: Mozilla/5.0"},
	}
}

func TestThriftRoundTrip(t *testing.T) {
	p := samplePayload()
	encoded, err := Encode(FormatThrift, p)
	require.NoError(t, err)

	decoded, err := Decode(FormatThrift, encoded)
	require.NoError(t, err)

	p.SchemaName = raw.SnowplowCollectorPayloadSchema
	if diff := cmp.Diff(p, decoded); diff != "" {
		t.Errorf("thrift round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAvroRoundTrip(t *testing.T) {
	p := samplePayload()
	encoded, err := Encode(FormatAvro, p)
	require.NoError(t, err)

	decoded, err := Decode(FormatAvro, encoded)
	require.NoError(t, err)

	p.SchemaName = raw.AvroSchemaName
	if diff := cmp.Diff(p, decoded); diff != "" {
		t.Errorf("avro round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitAndSerializeUnderLimitIsSingleFrame(t *testing.T) {
	p := samplePayload()
	p.Body = []byte(`{"schema":"iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4","data":[{"e":"pv"}]}`)

	frames, err := SplitAndSerialize(FormatThrift, p, 1<<20)
	require.NoError(t, err)
	require.Len(t, frames, 1)
}

func TestSplitAndSerializePreservesOrderAcrossFrames(t *testing.T) {
	p := samplePayload()

	items := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		items = append(items, `{"e":"pv","eid":"`+paddedID(i)+`"}`)
	}
	p.Body = []byte(`{"schema":"iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4","data":[` + strings.Join(items, ",") + `]}`)

	frames, err := SplitAndSerialize(FormatThrift, p, 2000)
	require.NoError(t, err)
	require.Greater(t, len(frames), 1)

	var seenOrder []string
	for _, frame := range frames {
		decoded, err := Decode(FormatThrift, frame)
		require.NoError(t, err)

		var body struct {
			Data []struct {
				Eid string `json:"eid"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(decoded.Body, &body))
		for _, item := range body.Data {
			seenOrder = append(seenOrder, item.Eid)
		}
	}

	require.Len(t, seenOrder, 200)
	for i, id := range seenOrder {
		require.Equal(t, paddedID(i), id)
	}
}

func TestSplitAndSerializeOversizedEnvelopeFails(t *testing.T) {
	p := samplePayload()
	longUA := strings.Repeat("a", 5000)
	p.UserAgent = &longUA
	p.Body = []byte(`{"schema":"iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4","data":[{"e":"pv"}]}`)

	_, err := SplitAndSerialize(FormatThrift, p, 100)
	require.ErrorIs(t, err, ErrOversizedEnvelope)
}

func paddedID(i int) string {
	s := "000" + itoa(i)
	return s[len(s)-4:]
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}
