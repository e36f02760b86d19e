package enrich

import (
	"time"

	"github.com/gofrs/uuid"

	"github.com/datenstrom/datenstrom-go/internal/clock"
)

// PostProcessingEnrichment fills in the fields that only make sense once
// every earlier stage has run: a generated event_id if the tracker didn't
// send one, the derived best-effort tstamp, the etl_tstamp, and a default
// platform.
type PostProcessingEnrichment struct {
	Clock clock.Clock
}

func (p PostProcessingEnrichment) Enrich(pad *Scratchpad) error {
	if _, ok := pad.GetValue("event_id"); !ok {
		id, err := uuid.NewV4()
		if err != nil {
			return err
		}
		if err := pad.SetValue("event_id", id.String()); err != nil {
			return err
		}
	}

	tstamp := p.deriveTstamp(pad)
	if err := pad.SetValue("tstamp", tstamp); err != nil {
		return err
	}

	if err := pad.SetValue("etl_tstamp", p.Clock.Now().UTC()); err != nil {
		return err
	}

	if _, ok := pad.GetValue("platform"); !ok {
		if err := pad.SetValue("platform", "web"); err != nil {
			return err
		}
	}

	return nil
}

// deriveTstamp picks the best available timestamp for the event: a
// tracker-asserted true_tstamp wins outright; otherwise a device-created
// timestamp is corrected for clock skew using the gap between when the
// device says it sent the event and when the collector received it (this
// needs both dvce_created_tstamp and dvce_sent_tstamp); failing both, the
// collector's own receipt time is used.
func (p PostProcessingEnrichment) deriveTstamp(pad *Scratchpad) time.Time {
	if v, ok := pad.GetValue("true_tstamp"); ok {
		return v.(time.Time)
	}

	collectorTstamp, _ := pad.GetValue("collector_tstamp")
	ct, _ := collectorTstamp.(time.Time)

	created, createdOK := pad.GetValue("dvce_created_tstamp")
	if !createdOK {
		return ct
	}
	createdTime := created.(time.Time)

	sent, sentOK := pad.GetValue("dvce_sent_tstamp")
	if !sentOK {
		return ct
	}
	sentTime := sent.(time.Time)

	offset := ct.Sub(sentTime)
	return createdTime.Add(offset)
}
