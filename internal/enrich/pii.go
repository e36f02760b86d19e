package enrich

import "strings"

// redactIPParts is how many trailing dotted-decimal octets of an IPv4
// address are zeroed out.
const redactIPParts = 3

// PIIEnrichment is the final stage of the chain: it redacts the last
// octets of an IPv4 user_ipaddress. IPv6 addresses are left untouched,
// since there is no equivalent dotted-octet boundary to redact without a
// network-prefix policy the enricher doesn't have.
type PIIEnrichment struct{}

func (PIIEnrichment) Enrich(pad *Scratchpad) error {
	if pad.Disabled["pii"] {
		return nil
	}
	v, ok := pad.GetValue("user_ipaddress")
	if !ok {
		return nil
	}
	ip, _ := v.(string)
	redacted, changed := redactIPv4(ip)
	if !changed {
		return nil
	}
	return pad.SetValue("user_ipaddress", redacted)
}

func redactIPv4(ip string) (string, bool) {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip, false
	}
	for i := len(parts) - redactIPParts; i < len(parts); i++ {
		parts[i] = "0"
	}
	return strings.Join(parts, "."), true
}
