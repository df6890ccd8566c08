package mapbox

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/couchcryptid/climo-likelihood/internal/domain"
	"github.com/couchcryptid/climo-likelihood/internal/observability"
)

// reversePrecision rounds coordinates to four decimals (about 11 m) so
// repeated queries for the same spot share a cache entry.
const reversePrecision = 1e4

type point struct {
	lat, lon int64
}

func pointKey(lat, lon float64) point {
	return point{lat: int64(math.Round(lat * reversePrecision)), lon: int64(math.Round(lon * reversePrecision))}
}

// CachedGeocoder decorates a Geocoder with per-direction LRU caches. Errors
// and empty answers are never cached.
type CachedGeocoder struct {
	inner   domain.Geocoder
	forward *lru[string, []domain.GeocodingResult]
	reverse *lru[point, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder wraps inner. Each direction holds up to maxEntries results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		forward: newLRU[string, []domain.GeocodingResult](maxEntries),
		reverse: newLRU[point, domain.GeocodingResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, query string) ([]domain.GeocodingResult, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if results, ok := c.forward.get(key); ok {
		c.record(methodForward, "hit")
		return slices.Clone(results), nil
	}
	c.record(methodForward, "miss")

	results, err := c.inner.ForwardGeocode(ctx, query)
	if err != nil || len(results) == 0 {
		return results, err
	}
	if c.forward.put(key, slices.Clone(results)) {
		c.record(methodForward, "evict")
	}
	return results, nil
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := pointKey(lat, lon)
	if result, ok := c.reverse.get(key); ok {
		c.record(methodReverse, "hit")
		return result, nil
	}
	c.record(methodReverse, "miss")

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil || (result.FormattedAddress == "" && result.PlaceName == "") {
		return result, err
	}
	if c.reverse.put(key, result) {
		c.record(methodReverse, "evict")
	}
	return result, nil
}

func (c *CachedGeocoder) record(method, result string) {
	c.metrics.GeocodeCache.WithLabelValues(method, result).Inc()
}
