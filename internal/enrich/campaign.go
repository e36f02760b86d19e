package enrich

import (
	"net/url"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
)

const schemaCampaignAttribution = "iglu:io.datenstrom/campaign_attribution/jsonschema/1-0-0"

// clickIDMap maps a known ad-network click-id query parameter to the
// network name attached alongside it.
var clickIDMap = map[string]string{
	"gclid":   "google",
	"msclkid": "bing",
	"fbclid":  "facebook",
	"dclid":   "doubleclick",
}

// CampaignEnrichment derives a campaign_attribution context from the UTM
// and click-id query parameters on the page URL, when present.
type CampaignEnrichment struct{}

func (CampaignEnrichment) Enrich(pad *Scratchpad) error {
	if pad.Disabled["campaign"] {
		return nil
	}
	event, ok := pad.GetEvent()
	if !ok {
		return nil
	}
	pageURL, _ := event.Data["page_url"].(string)
	if pageURL == "" {
		return nil
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	q := parsed.Query()

	data := map[string]any{}
	setIfPresent(data, "medium", q.Get("utm_medium"))
	setIfPresent(data, "source", q.Get("utm_source"))
	setIfPresent(data, "term", q.Get("utm_term"))
	setIfPresent(data, "content", q.Get("utm_content"))
	setIfPresent(data, "campaign", q.Get("utm_campaign"))

	for param, network := range clickIDMap {
		if id := q.Get(param); id != "" {
			data["click_id"] = id
			data["network"] = network
			break
		}
	}

	if len(data) == 0 {
		return nil
	}
	return pad.AddContext(atomic.SelfDescribingContext{Schema: schemaCampaignAttribution, Data: data})
}

func setIfPresent(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
