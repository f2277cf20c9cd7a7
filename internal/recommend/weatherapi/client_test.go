package weatherapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylecast/stylecast/internal/weather"
)

const snapshotBody = `{
	"temperature": 15.0,
	"feels_like": 14.0,
	"humidity": 60,
	"pressure": 1012,
	"description": "scattered clouds",
	"weather_group": "clouds",
	"wind_speed": 3.2,
	"location": "Warsaw",
	"country": "PL",
	"timestamp": 1756000000
}`

func newTestClient(baseURL string) *Client {
	return NewClient(ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Current(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/weather/city/Warsaw", r.URL.Path)
		_, _ = w.Write([]byte(snapshotBody))
	}))
	defer server.Close()

	snap, err := newTestClient(server.URL).Current(context.Background(), "Warsaw", "")
	require.NoError(t, err)

	assert.Equal(t, 15.0, snap.Temperature)
	assert.Equal(t, weather.GroupClouds, snap.Group)
	assert.Equal(t, "Warsaw", snap.Location)
}

func TestClient_Current_WithCountry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/weather/city/Warsaw/country/pl", r.URL.Path)
		_, _ = w.Write([]byte(snapshotBody))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Current(context.Background(), "Warsaw", "pl")
	require.NoError(t, err)
}

func TestClient_Current_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Current(context.Background(), "Nowhereville", "")
	assert.ErrorIs(t, err, weather.ErrNotFound)
}

func TestClient_Current_ServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Current(context.Background(), "Warsaw", "")
	assert.ErrorIs(t, err, weather.ErrUpstreamUnavailable)
}

func TestClient_Healthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, newTestClient(server.URL).Healthy(context.Background()))
	assert.False(t, newTestClient("http://127.0.0.1:1").Healthy(context.Background()))
}
