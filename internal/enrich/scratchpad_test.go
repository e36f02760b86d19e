package enrich

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
	"github.com/datenstrom/datenstrom-go/internal/raw"
)

func newTestScratchpad() *Scratchpad {
	return NewScratchpad(raw.CollectorPayload{}, map[string]string{})
}

func TestSetValueUnknownField(t *testing.T) {
	pad := newTestScratchpad()
	err := pad.SetValue("not_a_real_field", "x")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestSetValueForbiddenField(t *testing.T) {
	pad := newTestScratchpad()
	err := pad.SetValue("contexts", []atomic.SelfDescribingContext{})
	require.ErrorIs(t, err, ErrForbiddenField)

	err = pad.SetValue("event", atomic.SelfDescribingEvent{})
	require.ErrorIs(t, err, ErrForbiddenField)
}

func TestSetValueRoundTrip(t *testing.T) {
	pad := newTestScratchpad()
	require.NoError(t, pad.SetValue("platform", "web"))
	v, ok := pad.GetValue("platform")
	require.True(t, ok)
	require.Equal(t, "web", v)
}

func TestAddContextRejectsDuplicateSchema(t *testing.T) {
	pad := newTestScratchpad()
	ctx := atomic.SelfDescribingContext{Schema: "iglu:com.example/thing/jsonschema/1-0-0", Data: map[string]any{}}
	require.NoError(t, pad.AddContext(ctx))
	err := pad.AddContext(ctx)
	require.ErrorIs(t, err, ErrDuplicateContext)
}

func TestSetEventRejectsSecondCall(t *testing.T) {
	pad := newTestScratchpad()
	ev := atomic.SelfDescribingEvent{Schema: "iglu:com.example/thing/jsonschema/1-0-0"}
	require.NoError(t, pad.SetEvent(ev))
	err := pad.SetEvent(ev)
	require.ErrorIs(t, err, ErrEventAlreadySet)
}

func TestToAtomicEventRequiresEvent(t *testing.T) {
	pad := newTestScratchpad()
	_, err := pad.ToAtomicEvent()
	require.ErrorIs(t, err, ErrEventNotSet)

	require.NoError(t, pad.SetEvent(atomic.SelfDescribingEvent{Schema: "iglu:com.example/thing/jsonschema/1-0-0"}))
	event, err := pad.ToAtomicEvent()
	require.NoError(t, err)
	require.NotNil(t, event.Contexts)
}

func TestSetShortAppliesTransformAndIgnoresUnknownKeys(t *testing.T) {
	pad := newTestScratchpad()
	require.NoError(t, pad.SetShort("p", "web"))
	v, ok := pad.GetValue("platform")
	require.True(t, ok)
	require.Equal(t, "web", v)

	require.NoError(t, pad.SetShort("not_a_tracker_key", "whatever"))
}

func TestTransformIPTakesFirstHopAndStripsBrackets(t *testing.T) {
	v, err := transformIP("[2001:db8::1], 203.0.113.9")
	require.NoError(t, err)
	require.Equal(t, "2001:db8::1", v)
}
