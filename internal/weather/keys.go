package weather

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Key prefixes for the shared KV store.
const (
	cityKeyPrefix      = "weather:city:"
	proximityKeyPrefix = "weather:proximity:"
	forecastKeyPrefix  = "forecast:city:"
	metadataKeyPrefix  = "metadata:"

	// MetadataScanPrefix covers the metadata siblings of all weather value
	// keys. The background refresher scans this range.
	MetadataScanPrefix = metadataKeyPrefix + "weather:"
)

// CityKey builds the canonical cache key for a city lookup.
func CityKey(city, country string) string {
	key := cityKeyPrefix + strings.ToLower(city)
	if country != "" {
		key += ":" + strings.ToLower(country)
	}
	return key
}

// ProximityKey builds the cache key for a coordinate lookup. Coordinates are
// snapped down to their grid cell so nearby requests share one cache entry.
func ProximityKey(lat, lon, precision float64) string {
	clat, clon := Cluster(lat, lon, precision)
	return fmt.Sprintf("%s%.2f:%.2f", proximityKeyPrefix, clat, clon)
}

// ForecastKey builds the cache key for a forecast lookup.
func ForecastKey(city, country string) string {
	key := forecastKeyPrefix + strings.ToLower(city)
	if country != "" {
		key += ":" + strings.ToLower(country)
	}
	return key
}

// MetadataKey returns the metadata sibling key for a value key.
func MetadataKey(valueKey string) string {
	return metadataKeyPrefix + valueKey
}

// Cluster snaps coordinates down to the corner of their grid cell. All
// coordinates within one precision-sized cell share the same cluster.
func Cluster(lat, lon, precision float64) (float64, float64) {
	return math.Floor(lat/precision) * precision, math.Floor(lon/precision) * precision
}

// QueryFromKey reconstructs the upstream query for a weather value key. The
// refresher uses it to re-fetch stale entries from their metadata records.
func QueryFromKey(valueKey string) (Query, bool) {
	switch {
	case strings.HasPrefix(valueKey, cityKeyPrefix):
		rest := strings.TrimPrefix(valueKey, cityKeyPrefix)
		parts := strings.SplitN(rest, ":", 2)
		if parts[0] == "" {
			return Query{}, false
		}
		q := CityQuery(parts[0], "")
		if len(parts) == 2 {
			q.Country = parts[1]
		}
		return q, true

	case strings.HasPrefix(valueKey, proximityKeyPrefix):
		rest := strings.TrimPrefix(valueKey, proximityKeyPrefix)
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 {
			return Query{}, false
		}
		lat, latErr := strconv.ParseFloat(parts[0], 64)
		lon, lonErr := strconv.ParseFloat(parts[1], 64)
		if latErr != nil || lonErr != nil {
			return Query{}, false
		}
		return CoordQuery(lat, lon), true
	}
	return Query{}, false
}
