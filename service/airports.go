package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"flightbook/model"
	"flightbook/store"
)

// MinAirportQueryLen is the shortest query that triggers a lookup.
const MinAirportQueryLen = 2

const airportCacheKey = "airports"

// GetAirports returns the full airport list.
func (c *Client) GetAirports(ctx context.Context) ([]model.Airport, error) {
	endpoint := fmt.Sprintf("%s/airport/search", c.baseURL)
	var airports []model.Airport
	if err := c.getJSON(ctx, endpoint, &airports); err != nil {
		return nil, err
	}
	return airports, nil
}

type AirportSource interface {
	GetAirports(ctx context.Context) ([]model.Airport, error)
}

// AirportDirectory serves search-as-you-type lookups from a list fetched once per process.
type AirportDirectory struct {
	source AirportSource
	cache  store.Cache
	ttl    time.Duration

	mu      sync.Mutex
	entries []airportEntry
}

type airportEntry struct {
	airport model.Airport
	keys    [4]string
}

func NewAirportDirectory(source AirportSource, cache store.Cache, ttl time.Duration) *AirportDirectory {
	if cache == nil {
		cache = store.NopCache{}
	}
	return &AirportDirectory{source: source, cache: cache, ttl: ttl}
}

// Search returns airports whose city, country, name or code contains the query.
// The airport with code exclude is left out so both ends of a route cannot match.
func (d *AirportDirectory) Search(ctx context.Context, query string, exclude string) ([]model.Airport, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinAirportQueryLen {
		return nil, nil
	}
	entries, err := d.load(ctx)
	if err != nil {
		return nil, err
	}

	needle := NormalizeAirportText(query)
	var exact, partial []model.Airport
	for _, entry := range entries {
		if exclude != "" && strings.EqualFold(entry.airport.IataCode, exclude) {
			continue
		}
		if entry.keys[3] == needle {
			exact = append(exact, entry.airport)
			continue
		}
		for _, key := range entry.keys {
			if strings.Contains(key, needle) {
				partial = append(partial, entry.airport)
				break
			}
		}
	}
	return append(exact, partial...), nil
}

// Lookup resolves an IATA code to its airport.
func (d *AirportDirectory) Lookup(ctx context.Context, code string) (model.Airport, bool, error) {
	entries, err := d.load(ctx)
	if err != nil {
		return model.Airport{}, false, err
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.airport.IataCode, code) {
			return entry.airport, true, nil
		}
	}
	return model.Airport{}, false, nil
}

func (d *AirportDirectory) load(ctx context.Context) ([]airportEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.entries != nil {
		return d.entries, nil
	}

	cached, fresh, cacheErr := store.Load[[]model.Airport](ctx, d.cache, airportCacheKey, d.ttl)
	if cacheErr == nil && fresh && len(cached) > 0 {
		d.entries = indexAirports(cached)
		return d.entries, nil
	}

	airports, err := d.source.GetAirports(ctx)
	if err != nil {
		if len(cached) > 0 {
			d.entries = indexAirports(cached)
			return d.entries, nil
		}
		return nil, err
	}
	if len(airports) == 0 {
		if len(cached) > 0 {
			return indexAirports(cached), nil
		}
		// An empty directory is asked for again on the next search.
		return nil, nil
	}
	_ = store.Save(ctx, d.cache, airportCacheKey, airports)
	d.entries = indexAirports(airports)
	return d.entries, nil
}

func indexAirports(airports []model.Airport) []airportEntry {
	entries := make([]airportEntry, 0, len(airports))
	for _, a := range airports {
		entries = append(entries, airportEntry{
			airport: a,
			keys: [4]string{
				NormalizeAirportText(a.City),
				NormalizeAirportText(a.Country),
				NormalizeAirportText(a.Name),
				NormalizeAirportText(a.IataCode),
			},
		})
	}
	return entries
}

var dottedI = strings.NewReplacer("İ", "i", "I", "i", "ı", "i")

// NormalizeAirportText folds case, the Turkish dotted/dotless i and diacritics,
// so "İSTANBUL", "Istanbul" and "istanbul" compare equal.
func NormalizeAirportText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(dottedI.Replace(s))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
