package recommend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseOutfits decodes sanitized LLM output into validated recommendations.
// Entries without the essential parts are dropped; an output with no valid
// entry at all is malformed.
func parseOutfits(raw string, now time.Time) ([]OutfitRecommendation, error) {
	sanitized := Sanitize(raw)

	var items []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(sanitized), &items); err != nil {
		// Some models emit one object holding all recommendation_N keys.
		var single map[string]json.RawMessage
		if err2 := json.Unmarshal([]byte(sanitized), &single); err2 != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		items = []map[string]json.RawMessage{single}
	}

	var recommendations []OutfitRecommendation
	for _, item := range items {
		recommendations = append(recommendations, parseItem(item, now)...)
	}

	if len(recommendations) == 0 {
		return nil, fmt.Errorf("%w: no valid recommendations", ErrMalformedOutput)
	}
	return recommendations, nil
}

type outfitWire struct {
	Head     string `json:"head"`
	Top      string `json:"top"`
	Bottom   string `json:"bottom"`
	Footwear string `json:"footwear"`

	Description  string   `json:"description"`
	WeatherScore *float64 `json:"weather_appropriate_score"`
	StyleScore   *float64 `json:"style_score"`
}

// parseItem extracts the recommendation_N entries of one output object. The
// slot data sits either directly under the key or wrapped in a one-element
// array, with description and scores as siblings or inline.
func parseItem(item map[string]json.RawMessage, now time.Time) []OutfitRecommendation {
	sibling := outfitWire{}
	if raw, ok := item["description"]; ok {
		_ = json.Unmarshal(raw, &sibling.Description)
	}
	if raw, ok := item["weather_appropriate_score"]; ok {
		_ = json.Unmarshal(raw, &sibling.WeatherScore)
	}
	if raw, ok := item["style_score"]; ok {
		_ = json.Unmarshal(raw, &sibling.StyleScore)
	}

	var out []OutfitRecommendation
	for key, raw := range item {
		if !strings.HasPrefix(key, "recommendation") {
			continue
		}

		wire, ok := decodeOutfit(raw)
		if !ok {
			continue
		}

		if wire.Description == "" {
			wire.Description = sibling.Description
		}
		if wire.WeatherScore == nil {
			wire.WeatherScore = sibling.WeatherScore
		}
		if wire.StyleScore == nil {
			wire.StyleScore = sibling.StyleScore
		}

		rec := OutfitRecommendation{
			Head:         orMissing(wire.Head),
			Top:          orMissing(wire.Top),
			Bottom:       orMissing(wire.Bottom),
			Footwear:     orMissing(wire.Footwear),
			Description:  wire.Description,
			WeatherScore: clampScore(wire.WeatherScore),
			StyleScore:   clampScore(wire.StyleScore),
			CreatedAt:    now,
		}
		if rec.Description == "" {
			rec.Description = "Stylish outfit for the weather"
		}

		if rec.Valid() {
			out = append(out, rec)
		}
	}
	return out
}

// decodeOutfit accepts the slot payload as an object or a one-element array.
func decodeOutfit(raw json.RawMessage) (outfitWire, bool) {
	var wire outfitWire
	if err := json.Unmarshal(raw, &wire); err == nil {
		return wire, true
	}

	var list []outfitWire
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], true
	}

	return outfitWire{}, false
}

// parseCategorized decodes sanitized LLM output into a categorized response.
func parseCategorized(raw string) (*CategorizedResponse, error) {
	sanitized := Sanitize(raw)

	var resp CategorizedResponse
	if err := json.Unmarshal([]byte(sanitized), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if len(resp.Recommendations.Bottom) == 0 || len(resp.Recommendations.Footwear) == 0 {
		return nil, fmt.Errorf("%w: missing essential outfit slots", ErrMalformedOutput)
	}
	return &resp, nil
}

func orMissing(v string) string {
	if v == "" {
		return MissingPiece
	}
	return v
}

func clampScore(v *float64) float64 {
	if v == nil {
		return 0
	}
	switch {
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	}
	return *v
}
