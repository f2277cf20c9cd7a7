// Package handler provides the HTTP handlers for both API services.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stylecast/stylecast/internal/api/models"
	"github.com/stylecast/stylecast/internal/api/response"
	"github.com/stylecast/stylecast/internal/weather"
)

// WeatherHandler handles weather lookups.
type WeatherHandler struct {
	cache *weather.Cache
}

// NewWeatherHandler creates a new WeatherHandler.
func NewWeatherHandler(cache *weather.Cache) *WeatherHandler {
	return &WeatherHandler{cache: cache}
}

// GetByCity handles GET /weather/city/{city}.
func (h *WeatherHandler) GetByCity(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if city == "" {
		response.BadRequest(w, r, "city is required", nil)
		return
	}

	snap, err := h.cache.ByCity(r.Context(), city, "")
	if err != nil {
		writeWeatherError(w, r, err, city)
		return
	}
	response.JSON(w, r, http.StatusOK, snap)
}

// GetByCityCountry handles GET /weather/city/{city}/country/{countryCode}.
func (h *WeatherHandler) GetByCityCountry(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	country := chi.URLParam(r, "countryCode")
	if city == "" || country == "" {
		response.BadRequest(w, r, "city and country code are required", nil)
		return
	}

	snap, err := h.cache.ByCity(r.Context(), city, country)
	if err != nil {
		writeWeatherError(w, r, err, city)
		return
	}
	response.JSON(w, r, http.StatusOK, snap)
}

// GetByProximity handles POST /weather/proximity?lat=&lon=.
func (h *WeatherHandler) GetByProximity(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		response.BadRequest(w, r, "lat and lon must be valid numbers", nil)
		return
	}

	var fieldErrors []models.FieldError
	if lat < -90 || lat > 90 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lat", Message: "must be between -90 and 90",
		})
	}
	if lon < -180 || lon > 180 {
		fieldErrors = append(fieldErrors, models.FieldError{
			Field: "lon", Message: "must be between -180 and 180",
		})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "coordinates out of range", fieldErrors)
		return
	}

	snap, err := h.cache.ByProximity(r.Context(), lat, lon)
	if err != nil {
		writeWeatherError(w, r, err, "coordinates")
		return
	}
	response.JSON(w, r, http.StatusOK, snap)
}

// GetForecast handles GET /weather/city/{city}/forecast?country_code=.
func (h *WeatherHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if city == "" {
		response.BadRequest(w, r, "city is required", nil)
		return
	}
	country := r.URL.Query().Get("country_code")

	forecast, err := h.cache.ForecastByCity(r.Context(), city, country)
	if err != nil {
		writeWeatherError(w, r, err, city)
		return
	}
	response.JSON(w, r, http.StatusOK, forecast)
}

// writeWeatherError maps weather errors onto problem responses.
func writeWeatherError(w http.ResponseWriter, r *http.Request, err error, subject string) {
	switch {
	case errors.Is(err, weather.ErrNotFound):
		response.NotFound(w, r, "weather data not found for "+subject)
	case errors.Is(err, weather.ErrUpstreamUnavailable):
		response.ServiceUnavailable(w, r, "weather provider is unavailable")
	default:
		response.InternalError(w, r, "failed to fetch weather data")
	}
}
