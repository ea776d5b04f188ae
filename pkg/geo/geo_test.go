package geo

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/stretchr/testify/assert"
)

type fakeReader struct {
	codes  map[string]string
	closed bool
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	code, ok := f.codes[ip.String()]
	if !ok {
		return nil, errors.New("not found")
	}
	record := &geoip2.Country{}
	record.Country.IsoCode = code
	return record, nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func TestCountry(t *testing.T) {
	reader := &fakeReader{codes: map[string]string{"8.8.8.8": "US", "10.0.0.1": "ZZ"}}
	l := &Locator{db: reader}

	assert.Equal(t, "US", l.Country("8.8.8.8"))
	assert.Equal(t, "", l.Country("10.0.0.1"), "private addresses are never looked up")
	assert.Equal(t, "", l.Country("1.1.1.1"), "lookup misses are empty")
	assert.Equal(t, "", l.Country("aa:bb:cc:dd:ee:ff"))

	assert.Nil(t, l.Close())
	assert.True(t, reader.closed)
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.NotNil(t, err)
}
