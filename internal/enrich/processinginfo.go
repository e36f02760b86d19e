package enrich

import (
	"time"

	"github.com/datenstrom/datenstrom-go/internal/version"
)

// ProcessingInfoEnrichment is the first stage of the chain: it copies
// collector-side context off the raw envelope before any tracker-supplied
// value has a chance to override it.
type ProcessingInfoEnrichment struct{}

func (ProcessingInfoEnrichment) Enrich(pad *Scratchpad) error {
	if err := pad.SetValue("v_etl", version.Version); err != nil {
		return err
	}
	if err := pad.SetValue("collector_tstamp", time.UnixMilli(pad.Payload.Timestamp).UTC()); err != nil {
		return err
	}
	if err := pad.SetValue("v_collector", pad.Payload.Collector); err != nil {
		return err
	}

	host := pad.Payload.Collector
	if pad.Payload.Hostname != nil && *pad.Payload.Hostname != "" {
		host = *pad.Payload.Hostname
	}
	if err := pad.SetValue("collector_host", host); err != nil {
		return err
	}

	if pad.Payload.IPAddress != "" {
		if err := pad.SetValue("user_ipaddress", pad.Payload.IPAddress); err != nil {
			return err
		}
	}
	if pad.Payload.UserAgent != nil && *pad.Payload.UserAgent != "" {
		if err := pad.SetValue("useragent", *pad.Payload.UserAgent); err != nil {
			return err
		}
	}
	if pad.Payload.NetworkUserID != nil && *pad.Payload.NetworkUserID != "" {
		if err := pad.SetValue("network_userid", *pad.Payload.NetworkUserID); err != nil {
			return err
		}
	}
	return nil
}
