// Package recommend generates LLM-ranked outfit recommendations from the
// filtered asset catalog and current weather.
package recommend

import (
	"errors"
	"time"
)

// Predefined errors for recommendation operations.
var (
	// ErrNoSuitableAssets is returned when no catalog asset survives the
	// filter chain for the given conditions.
	ErrNoSuitableAssets = errors.New("no suitable assets found for the given conditions")

	// ErrMalformedOutput is returned when the LLM response cannot be
	// parsed into valid recommendations after sanitization.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrWeatherUnavailable is returned when the weather source cannot
	// serve the location.
	ErrWeatherUnavailable = errors.New("weather data unavailable")

	// ErrLocationNotFound is returned when the weather source does not
	// know the location.
	ErrLocationNotFound = errors.New("location not found")
)

// MissingPiece marks an outfit slot the model could not fill.
const MissingPiece = "N/A"

// OutfitRecommendation is one ranked outfit. Head and top may be MissingPiece
// when no suitable asset exists for the slot.
type OutfitRecommendation struct {
	Head        string  `json:"head"`
	Top         string  `json:"top"`
	Bottom      string  `json:"bottom"`
	Footwear    string  `json:"footwear"`
	Description string  `json:"description"`

	// Scores are clamped to [0, 1].
	WeatherScore float64 `json:"weather_appropriate_score"`
	StyleScore   float64 `json:"style_score"`

	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the essential outfit parts are present.
func (r *OutfitRecommendation) Valid() bool {
	return r.Bottom != "" && r.Bottom != MissingPiece &&
		r.Footwear != "" && r.Footwear != MissingPiece
}

// Response is the ranked recommendation set for one request.
type Response struct {
	Location        string                 `json:"location,omitempty"`
	Recommendations []OutfitRecommendation `json:"recommendations"`
	WeatherSummary  string                 `json:"weather_summary"`
	StyleNotes      string                 `json:"style_notes"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// CategorizedRecommendation groups ranked asset names per outfit slot.
type CategorizedRecommendation struct {
	Head            []string `json:"head"`
	Top             []string `json:"top"`
	Bottom          []string `json:"bottom"`
	Footwear        []string `json:"footwear"`
	Description     string   `json:"description"`
	AdditionalNotes string   `json:"additional_notes,omitempty"`
}

// CategorizedResponse is the per-slot recommendation set for one request.
type CategorizedResponse struct {
	Recommendations CategorizedRecommendation `json:"recommendations"`
	WeatherSummary  string                    `json:"weather_summary"`
	StyleNotes      string                    `json:"style_notes"`
}
