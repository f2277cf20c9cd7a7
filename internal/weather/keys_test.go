package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylecast/stylecast/internal/weather"
)

func TestCityKey(t *testing.T) {
	assert.Equal(t, "weather:city:warsaw", weather.CityKey("Warsaw", ""))
	assert.Equal(t, "weather:city:warsaw:pl", weather.CityKey("Warsaw", "PL"))
	assert.Equal(t, "weather:city:new york:us", weather.CityKey("New York", "US"))
}

func TestProximityKey(t *testing.T) {
	// Coordinates in the same grid cell share one key.
	assert.Equal(t, "weather:proximity:50.00:20.00", weather.ProximityKey(52.23, 21.01, 5.0))
	assert.Equal(t, "weather:proximity:50.00:20.00", weather.ProximityKey(54.99, 23.99, 5.0))
	assert.Equal(t, "weather:proximity:45.00:15.00", weather.ProximityKey(49.99, 19.99, 5.0))
	assert.Equal(t, "weather:proximity:-35.00:150.00", weather.ProximityKey(-33.87, 151.21, 5.0))
}

func TestCluster(t *testing.T) {
	lat, lon := weather.Cluster(52.4, 21.01, 5.0)
	assert.InDelta(t, 50.0, lat, 1e-9)
	assert.InDelta(t, 20.0, lon, 1e-9)

	// Cell boundaries belong to the cell they open.
	lat, lon = weather.Cluster(55.0, 25.0, 5.0)
	assert.InDelta(t, 55.0, lat, 1e-9)
	assert.InDelta(t, 25.0, lon, 1e-9)

	lat, lon = weather.Cluster(54.99, 23.99, 5.0)
	assert.InDelta(t, 50.0, lat, 1e-9)
	assert.InDelta(t, 20.0, lon, 1e-9)

	lat, lon = weather.Cluster(-52.4, 2.4, 5.0)
	assert.InDelta(t, -55.0, lat, 1e-9)
	assert.InDelta(t, 0.0, lon, 1e-9)
}

func TestForecastKey(t *testing.T) {
	assert.Equal(t, "forecast:city:warsaw", weather.ForecastKey("Warsaw", ""))
	assert.Equal(t, "forecast:city:warsaw:pl", weather.ForecastKey("Warsaw", "PL"))
}

func TestMetadataKey(t *testing.T) {
	assert.Equal(t, "metadata:weather:city:warsaw", weather.MetadataKey("weather:city:warsaw"))
}

func TestQueryFromKey_City(t *testing.T) {
	q, ok := weather.QueryFromKey("weather:city:warsaw")
	require.True(t, ok)
	assert.Equal(t, "warsaw", q.City)
	assert.Empty(t, q.Country)
	assert.False(t, q.Coords)

	q, ok = weather.QueryFromKey("weather:city:warsaw:pl")
	require.True(t, ok)
	assert.Equal(t, "warsaw", q.City)
	assert.Equal(t, "pl", q.Country)
}

func TestQueryFromKey_Proximity(t *testing.T) {
	q, ok := weather.QueryFromKey("weather:proximity:50.00:20.00")
	require.True(t, ok)
	assert.True(t, q.Coords)
	assert.InDelta(t, 50.0, q.Lat, 1e-9)
	assert.InDelta(t, 20.0, q.Lon, 1e-9)
}

func TestQueryFromKey_Unrecognized(t *testing.T) {
	_, ok := weather.QueryFromKey("forecast:city:warsaw")
	assert.False(t, ok)

	_, ok = weather.QueryFromKey("garbage")
	assert.False(t, ok)
}
