// Package weather provides the weather domain model and the adaptive cache
// fronting the upstream weather provider.
package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Weather errors.
var (
	// ErrNotFound is returned when the upstream knows no such location.
	ErrNotFound = errors.New("weather: location not found")

	// ErrUpstreamUnavailable is returned after the retry budget against the
	// upstream provider is exhausted.
	ErrUpstreamUnavailable = errors.New("weather: upstream provider unavailable")

	// ErrUpstreamSchema is returned when the upstream response is missing
	// required fields. Not retryable.
	ErrUpstreamSchema = errors.New("weather: incomplete upstream response")

	// ErrPrecipitationConflict is returned when a snapshot reports rain and
	// snow at the same time.
	ErrPrecipitationConflict = errors.New("weather: snapshot reports both rain and snow")
)

// Group is the coarse weather classification reported by the upstream.
type Group string

const (
	GroupClear        Group = "clear"
	GroupClouds       Group = "clouds"
	GroupRain         Group = "rain"
	GroupSnow         Group = "snow"
	GroupThunderstorm Group = "thunderstorm"
	GroupDrizzle      Group = "drizzle"
	GroupMist         Group = "mist"
	GroupExtreme      Group = "extreme"
)

// GroupFromUpstream maps the upstream "main" field to a Group. Anything
// outside the known set (dust, squalls, tornadoes) collapses into extreme.
func GroupFromUpstream(main string) Group {
	switch strings.ToLower(main) {
	case "clear":
		return GroupClear
	case "clouds":
		return GroupClouds
	case "rain":
		return GroupRain
	case "snow":
		return GroupSnow
	case "thunderstorm":
		return GroupThunderstorm
	case "drizzle":
		return GroupDrizzle
	case "mist", "fog", "haze", "smoke":
		return GroupMist
	default:
		return GroupExtreme
	}
}

// Snapshot is the normalized, cache-ready weather record.
type Snapshot struct {
	Temperature    float64  `json:"temperature"`
	FeelsLike      float64  `json:"feels_like"`
	TemperatureMin *float64 `json:"temperature_min,omitempty"`
	TemperatureMax *float64 `json:"temperature_max,omitempty"`
	Humidity       int      `json:"humidity"`
	Pressure       int      `json:"pressure"`
	Description    string   `json:"description"`
	Group          Group    `json:"weather_group"`
	WindSpeed      float64  `json:"wind_speed"`
	Rain           float64  `json:"rain"`
	Snow           float64  `json:"snow"`
	WeatherID      *int     `json:"weather_id,omitempty"`
	Location       string   `json:"location"`
	Country        string   `json:"country"`
	Timestamp      int64    `json:"timestamp"`
	Sunrise        int64    `json:"sunrise"`
	Sunset         int64    `json:"sunset"`
}

// Validate checks the snapshot invariants.
func (s *Snapshot) Validate() error {
	if s.Rain > 0 && s.Snow > 0 {
		return ErrPrecipitationConflict
	}
	return nil
}

// Forecast is a multi-point weather forecast for a location.
type Forecast struct {
	Location string          `json:"location"`
	Country  string          `json:"country"`
	Sunrise  int64           `json:"sunrise"`
	Sunset   int64           `json:"sunset"`
	Points   []ForecastPoint `json:"points"`
}

// ForecastPoint is the forecast for a single timestamp.
type ForecastPoint struct {
	Timestamp         int64   `json:"timestamp"`
	Temperature       float64 `json:"temperature"`
	FeelsLike         float64 `json:"feels_like"`
	Humidity          int     `json:"humidity"`
	Pressure          int     `json:"pressure"`
	Description       string  `json:"description"`
	Group             Group   `json:"weather_group"`
	WindSpeed         float64 `json:"wind_speed"`
	Rain              float64 `json:"rain"`
	Snow              float64 `json:"snow"`
	PrecipProbability float64 `json:"precipitation_probability"`
}

// LocationMeta is the metadata sibling of a cached weather value. It tracks
// freshness and demand for the adaptive refresh loop.
type LocationMeta struct {
	LocationKey  string `json:"location_key"`
	LastUpdated  int64  `json:"last_updated"`
	Active       bool   `json:"active"`
	RequestCount int    `json:"request_count"`
}

// Query identifies a location either by name or by coordinates.
type Query struct {
	City    string
	Country string
	Lat     float64
	Lon     float64
	Coords  bool
}

// CityQuery builds a name-based query. Country may be empty.
func CityQuery(city, country string) Query {
	return Query{City: city, Country: country}
}

// CoordQuery builds a coordinate-based query.
func CoordQuery(lat, lon float64) Query {
	return Query{Lat: lat, Lon: lon, Coords: true}
}

func (q Query) String() string {
	if q.Coords {
		return fmt.Sprintf("%.4f,%.4f", q.Lat, q.Lon)
	}
	if q.Country != "" {
		return q.City + "," + q.Country
	}
	return q.City
}

// Provider is the upstream weather data source.
type Provider interface {
	// Current fetches the current weather for a location.
	Current(ctx context.Context, q Query) (*Snapshot, error)

	// FiveDayForecast fetches the forecast for a location.
	FiveDayForecast(ctx context.Context, q Query) (*Forecast, error)

	// Name returns the provider name for logging.
	Name() string
}
