package enrich

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPEnrichment attaches country/region/city onto the atomic record by
// looking up the request's user_ipaddress in a MaxMind City database.
type GeoIPEnrichment struct {
	DB *geoip2.Reader
}

func (g GeoIPEnrichment) Enrich(pad *Scratchpad) error {
	if g.DB == nil || pad.Disabled["geoip"] {
		return nil
	}
	ipStr, _ := pad.GetValue("user_ipaddress")
	s, _ := ipStr.(string)
	if s == "" {
		s = pad.Payload.IPAddress
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil
	}

	record, err := g.DB.City(ip)
	if err != nil {
		// A lookup miss (private range, reserved address, unknown IP) is
		// not itself an enrichment failure.
		return nil
	}

	if record.Country.IsoCode != "" {
		if err := pad.SetValue("geo_country", record.Country.IsoCode); err != nil {
			return err
		}
	}
	if len(record.Subdivisions) > 0 && record.Subdivisions[0].IsoCode != "" {
		if err := pad.SetValue("geo_region", record.Subdivisions[0].IsoCode); err != nil {
			return err
		}
	}
	if city := record.City.Names["en"]; city != "" {
		if err := pad.SetValue("geo_city", city); err != nil {
			return err
		}
	}
	return nil
}
