package rawproc

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/datenstrom/datenstrom-go/internal/clock"
	"github.com/datenstrom/datenstrom-go/internal/enrich"
	"github.com/datenstrom/datenstrom-go/internal/iglu"
	"github.com/datenstrom/datenstrom-go/internal/raw"
)

func testChain(t *testing.T) *enrich.Chain {
	t.Helper()
	hardcoded, err := iglu.NewHardcodedRegistry()
	require.NoError(t, err)
	registry, err := iglu.NewRegistry(hardcoded)
	require.NoError(t, err)

	fakeClock := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	return enrich.NewChain(
		enrich.ProcessingInfoEnrichment{},
		enrich.TransformEnrichment{},
		enrich.EventExtractionEnrichment{Registry: registry},
		enrich.ContextExtractionEnrichment{Registry: registry},
		enrich.CampaignEnrichment{},
		enrich.PostProcessingEnrichment{Clock: fakeClock},
		enrich.PIIEnrichment{},
	)
}

func strp(s string) *string { return &s }

func TestProcessPageViewFromQueryString(t *testing.T) {
	values := url.Values{}
	values.Set("e", "pv")
	values.Set("url", "http://example.com/landing?utm_source=news&utm_medium=email")
	values.Set("p", "web")
	values.Set("tv", "py-0.1.0")
	qs := values.Encode()
	payload := raw.CollectorPayload{
		IPAddress:   "203.0.113.9",
		Timestamp:   1735689600000,
		Encoding:    "UTF-8",
		Collector:   "ssc-2.0.0",
		Querystring: &qs,
		Hostname:    strp("collector.example.com"),
	}

	processor := NewRawProcessor(testChain(t), nil)
	events, err := processor.Process(payload)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	require.Equal(t, "iglu:io.datenstrom/page_view/jsonschema/1-0-0", event.Event.Schema)
	require.Equal(t, "web", event.Platform)
	require.NotEmpty(t, event.EventID)
	require.Equal(t, "203.0.0.0", *event.UserIPAddress)
	require.Len(t, event.Contexts, 1)
	require.Equal(t, "iglu:io.datenstrom/campaign_attribution/jsonschema/1-0-0", event.Contexts[0].Schema)
	require.Equal(t, "email", event.Contexts[0].Data["medium"])
}

func TestProcessStructuredEventBatch(t *testing.T) {
	body := []byte(`{"schema":"iglu:com.snowplowanalytics.snowplow/payload_data/jsonschema/1-0-4","data":[` +
		`{"e":"se","se_ca":"video","se_ac":"play","tv":"py-0.1.0","p":"web"},` +
		`{"e":"se","se_ca":"video","se_ac":"pause","tv":"py-0.1.0","p":"web"}` +
		`]}`)
	ct := "application/json"
	payload := raw.CollectorPayload{
		IPAddress:   "203.0.113.9",
		Timestamp:   1735689600000,
		Encoding:    "UTF-8",
		Collector:   "ssc-2.0.0",
		ContentType: &ct,
		Body:        body,
	}

	processor := NewRawProcessor(testChain(t), nil)
	events, err := processor.Process(payload)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "play", events[0].Event.Data["action"])
	require.Equal(t, "pause", events[1].Event.Data["action"])
}

func TestProcessUnknownEventTypeFailsWholeRawPayload(t *testing.T) {
	qs := "e=zz"
	payload := raw.CollectorPayload{
		IPAddress:   "203.0.113.9",
		Timestamp:   1735689600000,
		Querystring: &qs,
	}

	processor := NewRawProcessor(testChain(t), nil)
	_, err := processor.Process(payload)
	require.Error(t, err)
}

func TestProcessNoEventTypeProducesNoCandidates(t *testing.T) {
	qs := "foo=bar"
	payload := raw.CollectorPayload{
		IPAddress:   "203.0.113.9",
		Timestamp:   1735689600000,
		Querystring: &qs,
	}

	processor := NewRawProcessor(testChain(t), nil)
	events, err := processor.Process(payload)
	require.NoError(t, err)
	require.Empty(t, events)
}
