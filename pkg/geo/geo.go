package geo

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/rayen-mansouri/packet-analyzer/util"
)

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Locator resolves publicly routable addresses to ISO country codes using
// a MaxMind GeoIP2 or GeoLite2 country database
type Locator struct {
	db countryReader
}

// Open loads the database at path
func Open(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Locator{db: db}, nil
}

// Country returns the ISO code for addr, or "" for private, unparseable
// or unknown addresses
func (l *Locator) Country(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil || !util.IPIsPubliclyRoutable(ip) {
		return ""
	}
	record, err := l.db.Country(ip)
	if err != nil || record == nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the database
func (l *Locator) Close() error {
	return l.db.Close()
}
