package enrich

import (
	"regexp"

	"github.com/datenstrom/datenstrom-go/internal/atomic"
)

const schemaDeviceInfo = "iglu:io.datenstrom/device_info/jsonschema/1-0-0"

// DeviceEnrichment attaches a best-effort device_info context parsed out of
// the request's User-Agent header. There is no ecosystem UA-parsing
// library in play here, so this is a small set of ordered regex rules
// covering the families the original ua_parser-backed enrichment
// recognised; anything unmatched falls back to "Other" per family, and the
// context is only attached if at least one family resolved to something
// more specific than that.
type DeviceEnrichment struct{}

var (
	osRules = []struct {
		family  string
		pattern *regexp.Regexp
	}{
		{"iOS", regexp.MustCompile(`iPhone OS (\d+[_.]\d+)`)},
		{"iOS", regexp.MustCompile(`CPU OS (\d+[_.]\d+)`)},
		{"Android", regexp.MustCompile(`Android (\d+(?:\.\d+)*)`)},
		{"Mac OS X", regexp.MustCompile(`Mac OS X (\d+[_.]\d+(?:[_.]\d+)?)`)},
		{"Windows", regexp.MustCompile(`Windows NT (\d+\.\d+)`)},
		{"Linux", regexp.MustCompile(`Linux`)},
	}

	browserRules = []struct {
		family  string
		pattern *regexp.Regexp
	}{
		{"Edge", regexp.MustCompile(`Edg(?:A|iOS)?/(\d+(?:\.\d+)*)`)},
		{"Chrome", regexp.MustCompile(`Chrome/(\d+(?:\.\d+)*)`)},
		{"Firefox", regexp.MustCompile(`Firefox/(\d+(?:\.\d+)*)`)},
		{"Safari", regexp.MustCompile(`Version/(\d+(?:\.\d+)*).*Safari`)},
	}

	deviceRules = []struct {
		family  string
		pattern *regexp.Regexp
	}{
		{"iPhone", regexp.MustCompile(`iPhone`)},
		{"iPad", regexp.MustCompile(`iPad`)},
		{"Generic Android", regexp.MustCompile(`Android`)},
		{"Spider", regexp.MustCompile(`(?i)bot|crawl|spider`)},
	}
)

func matchFamily(ua string, rules []struct {
	family  string
	pattern *regexp.Regexp
}) (family, version string) {
	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(ua); m != nil {
			version = ""
			if len(m) > 1 {
				version = m[1]
			}
			return r.family, version
		}
	}
	return "Other", ""
}

func (DeviceEnrichment) Enrich(pad *Scratchpad) error {
	if pad.Disabled["device"] {
		return nil
	}
	uaVal, ok := pad.GetValue("useragent")
	if !ok {
		return nil
	}
	ua, _ := uaVal.(string)
	if ua == "" {
		return nil
	}

	deviceFamily, _ := matchFamily(ua, deviceRules)
	osFamily, osVersion := matchFamily(ua, osRules)
	browserFamily, browserVersion := matchFamily(ua, browserRules)

	if deviceFamily == "Other" && osFamily == "Other" && browserFamily == "Other" {
		return nil
	}

	data := map[string]any{
		"device_family":   deviceFamily,
		"os_family":       osFamily,
		"browser_family":  browserFamily,
	}
	setIfPresent(data, "os_version", osVersion)
	setIfPresent(data, "browser_version", browserVersion)

	return pad.AddContext(atomic.SelfDescribingContext{Schema: schemaDeviceInfo, Data: data})
}
