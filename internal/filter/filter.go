// Package filter narrows the asset catalog to items suitable for the current
// weather and the user's preferences.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stylecast/stylecast/internal/catalog"
)

// Conditions is the weather input to the filter chain.
type Conditions struct {
	Temperature float64
	Group       string
	WindSpeed   float64
	Rain        float64
	Snow        float64
}

// Preferences narrows assets by the user's taste. The zero value matches
// everything.
type Preferences struct {
	Gender catalog.Gender `json:"gender,omitempty"`
	Styles []string       `json:"styles,omitempty"`
	Colors []string       `json:"colors,omitempty"`
	Fit    string         `json:"fit,omitempty"`
}

// ParsePreferences decodes a preferences document, rejecting unknown fields.
func ParsePreferences(data []byte) (*Preferences, error) {
	var prefs Preferences
	if err := strictUnmarshal(data, &prefs); err != nil {
		return nil, err
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// Validate checks the closed-set preference fields.
func (p *Preferences) Validate() error {
	if p.Gender != "" && !p.Gender.Valid() {
		return fmt.Errorf("unknown gender %q", p.Gender)
	}
	return nil
}

// Empty reports whether no preference narrows the result.
func (p *Preferences) Empty() bool {
	return p == nil ||
		(p.Gender == "" && len(p.Styles) == 0 && len(p.Colors) == 0 && p.Fit == "")
}

// Config controls which weather checks apply.
type Config struct {
	// MatchCondition enables the weather-group membership check. Off by
	// default: upstream groups and asset condition tags use different
	// vocabularies, so the check rejects nearly everything.
	MatchCondition bool

	// TemperatureOnly skips every weather check after the temperature
	// range. The simple recommendation path runs in this mode.
	TemperatureOnly bool
}

// Matches runs the full predicate chain for one asset. Checks run in a fixed
// order and stop at the first failure.
func Matches(asset *catalog.AssetItem, cond Conditions, prefs *Preferences, cfg Config) bool {
	if !matchesWeather(asset, cond, cfg) {
		return false
	}
	if prefs != nil && !matchesPreferences(asset, prefs) {
		return false
	}
	return true
}

func matchesWeather(asset *catalog.AssetItem, cond Conditions, cfg Config) bool {
	if !asset.TempRange.Contains(cond.Temperature) {
		return false
	}
	if cfg.TemperatureOnly {
		return true
	}

	if cfg.MatchCondition && !containsString(asset.Condition, cond.Group) {
		return false
	}

	if cond.WindSpeed > 0 && !asset.Wind {
		return false
	}
	if cond.Rain > 0 && !asset.Rain {
		return false
	}
	if cond.Snow > 0 && !asset.Snow {
		return false
	}
	return true
}

func matchesPreferences(asset *catalog.AssetItem, prefs *Preferences) bool {
	if prefs.Gender != "" && prefs.Gender != catalog.GenderUnisex {
		if asset.Gender != prefs.Gender && asset.Gender != catalog.GenderUnisex {
			return false
		}
	}

	if len(prefs.Styles) > 0 {
		if !anyOverlap(asset.Style, prefs.Styles) {
			return false
		}
	}

	if len(prefs.Colors) > 0 {
		if !containsString(prefs.Colors, asset.Color) {
			return false
		}
	}

	if prefs.Fit != "" {
		if !asset.Fit.Contains(prefs.Fit) {
			return false
		}
	}

	return true
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func anyOverlap(a, b []string) bool {
	for _, v := range a {
		if containsString(b, v) {
			return true
		}
	}
	return false
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
