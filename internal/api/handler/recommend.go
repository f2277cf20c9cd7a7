package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stylecast/stylecast/internal/api/response"
	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/filter"
	"github.com/stylecast/stylecast/internal/recommend"
	"github.com/stylecast/stylecast/internal/weather"
)

// RecommendationHandler handles outfit recommendation requests.
type RecommendationHandler struct {
	engine *recommend.Engine
}

// NewRecommendationHandler creates a new RecommendationHandler.
func NewRecommendationHandler(engine *recommend.Engine) *RecommendationHandler {
	return &RecommendationHandler{engine: engine}
}

// complexRequest is the body of POST /recommendations/complex.
type complexRequest struct {
	Location        string   `json:"location"`
	CountryCode     string   `json:"country_code,omitempty"`
	PreferredColors []string `json:"preferred_colors,omitempty"`
	PreferredStyles []string `json:"preferred_styles,omitempty"`
	Gender          string   `json:"gender,omitempty"`
	FitPreference   string   `json:"fit_preference,omitempty"`
}

func (req *complexRequest) preferences() (*filter.Preferences, error) {
	return buildPreferences(req.Gender, req.PreferredStyles, req.PreferredColors, req.FitPreference)
}

// buildPreferences converts request fields into the filter preference record,
// dropping empty entries. Returns nil when nothing narrows the result.
func buildPreferences(gender string, styles, colors []string, fit string) (*filter.Preferences, error) {
	prefs := &filter.Preferences{
		Gender: catalog.Gender(gender),
		Fit:    fit,
	}
	for _, s := range styles {
		if s != "" {
			prefs.Styles = append(prefs.Styles, s)
		}
	}
	for _, c := range colors {
		if c != "" {
			prefs.Colors = append(prefs.Colors, c)
		}
	}

	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	if prefs.Empty() {
		return nil, nil
	}
	return prefs, nil
}

// Simple handles POST /recommendations/simple?location=.
func (h *RecommendationHandler) Simple(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		response.BadRequest(w, r, "location is required", nil)
		return
	}

	resp, err := h.engine.RecommendSimple(r.Context(), location, "")
	if err != nil {
		writeRecommendError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// Complex handles POST /recommendations/complex.
func (h *RecommendationHandler) Complex(w http.ResponseWriter, r *http.Request) {
	req, prefs, ok := decodeRecommendationRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.engine.Recommend(r.Context(), recommend.Request{
		Location:    req.Location,
		Country:     req.CountryCode,
		Preferences: prefs,
	})
	if err != nil {
		writeRecommendError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// customRequest is the body of POST /recommendations/custom. The caller
// supplies the weather snapshot instead of a location.
type customRequest struct {
	WeatherData     *weather.Snapshot `json:"weather_data"`
	Gender          string            `json:"gender,omitempty"`
	PreferredStyles []string          `json:"preferred_styles,omitempty"`
	PreferredColors []string          `json:"preferred_colors,omitempty"`
	FitPreferences  string            `json:"fit_preferences,omitempty"`
}

func (req *customRequest) preferences() (*filter.Preferences, error) {
	return buildPreferences(req.Gender, req.PreferredStyles, req.PreferredColors, req.FitPreferences)
}

// Custom handles POST /recommendations/custom. The weather conditions come
// from the request body, not from a weather lookup.
func (h *RecommendationHandler) Custom(w http.ResponseWriter, r *http.Request) {
	var req customRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return
	}
	if req.WeatherData == nil {
		response.BadRequest(w, r, "weather_data is required", nil)
		return
	}
	if err := req.WeatherData.Validate(); err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	prefs, err := req.preferences()
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	resp, err := h.engine.RecommendCategorized(r.Context(), req.WeatherData, prefs)
	if err != nil {
		writeRecommendError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, resp)
}

func decodeRecommendationRequest(w http.ResponseWriter, r *http.Request) (*complexRequest, *filter.Preferences, bool) {
	var req complexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, r, "invalid request body", nil)
		return nil, nil, false
	}
	if req.Location == "" {
		response.BadRequest(w, r, "location is required", nil)
		return nil, nil, false
	}

	prefs, err := req.preferences()
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return nil, nil, false
	}
	return &req, prefs, true
}

// writeRecommendError maps engine errors onto problem responses.
func writeRecommendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrLocationNotFound):
		response.NotFound(w, r, "location not found")
	case errors.Is(err, recommend.ErrWeatherUnavailable):
		response.ServiceUnavailable(w, r, "weather service is unavailable")
	case errors.Is(err, recommend.ErrNoSuitableAssets):
		response.InternalError(w, r, "no suitable assets found for the given conditions")
	case errors.Is(err, recommend.ErrMalformedOutput):
		response.InternalError(w, r, "failed to generate valid recommendations")
	default:
		response.InternalError(w, r, "failed to generate recommendations")
	}
}
