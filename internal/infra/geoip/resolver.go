// Package geoip maps uploader IPs to ISO country codes using a MaxMind
// GeoIP2/GeoLite2 country database.
package geoip

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when no database is loaded.
var ErrUnavailable = errors.New("geoip resolver unavailable")

const defaultCacheSize = 4096

type countryReader interface {
	Country(ip []byte) (*geoip2.Country, error)
	Close() error
}

// Resolver looks up countries and remembers recent answers. A nil *Resolver
// is valid and reports ErrUnavailable.
type Resolver struct {
	reader countryReader

	mu       sync.Mutex
	cache    map[netip.Addr]string
	maxCache int
}

// NewResolver opens the database at path. An empty path yields a nil
// resolver and no error.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return newResolver(mmdbReader{reader}, defaultCacheSize), nil
}

func newResolver(reader countryReader, cacheSize int) *Resolver {
	return &Resolver{reader: reader, cache: make(map[netip.Addr]string), maxCache: cacheSize}
}

// CountryCode returns the upper-case ISO code for ip, or "" when the address
// is not public or the database has no country for it.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	addr = addr.Unmap()
	if !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return "", nil
	}

	r.mu.Lock()
	code, hit := r.cache[addr]
	r.mu.Unlock()
	if hit {
		return code, nil
	}

	record, err := r.reader.Country(addr.AsSlice())
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	if record != nil {
		code = strings.ToUpper(record.Country.IsoCode)
	}

	r.mu.Lock()
	if len(r.cache) >= r.maxCache {
		clear(r.cache)
	}
	r.cache[addr] = code
	r.mu.Unlock()
	return code, nil
}

// Close releases the database.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

type mmdbReader struct {
	*geoip2.Reader
}

func (m mmdbReader) Country(ip []byte) (*geoip2.Country, error) {
	return m.Reader.Country(ip)
}
