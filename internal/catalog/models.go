// Package catalog loads and serves the clothing asset catalog.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Predefined errors for catalog operations.
var (
	// ErrAssetNotFound is returned when no asset matches the given name.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAsset is returned when an asset record fails validation.
	ErrInvalidAsset = errors.New("invalid asset record")

	// ErrCatalogUnavailable is returned when the asset source cannot be read.
	ErrCatalogUnavailable = errors.New("asset catalog unavailable")
)

// OutfitPart is the outfit slot an asset occupies.
type OutfitPart string

// Outfit parts.
const (
	PartHead     OutfitPart = "head"
	PartTop      OutfitPart = "top"
	PartBottom   OutfitPart = "bottom"
	PartFootwear OutfitPart = "footwear"
)

// Valid reports whether the outfit part is one of the known slots.
func (p OutfitPart) Valid() bool {
	switch p {
	case PartHead, PartTop, PartBottom, PartFootwear:
		return true
	}
	return false
}

// Gender is the gender tag of an asset or preference.
type Gender string

// Genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderUnisex Gender = "unisex"
	GenderOther  Gender = "other"
)

// Valid reports whether the gender tag is one of the known values.
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnisex, GenderOther:
		return true
	}
	return false
}

// YesNo is a boolean encoded as "yes"/"no" in the asset source.
type YesNo bool

// UnmarshalJSON accepts "yes" and "no" in any case.
func (y *YesNo) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "yes":
		*y = true
	case "no":
		*y = false
	default:
		return fmt.Errorf("invalid yes/no value %q", s)
	}
	return nil
}

// MarshalJSON encodes the value back to "yes"/"no".
func (y YesNo) MarshalJSON() ([]byte, error) {
	if y {
		return json.Marshal("yes")
	}
	return json.Marshal("no")
}

// TempRange is the comfortable temperature band of an asset in degrees
// Celsius. A missing bound is open-ended.
type TempRange struct {
	Min float64 `json:"Min"`
	Max float64 `json:"Max"`
}

type tempRangeWire struct {
	Min *float64 `json:"Min"`
	Max *float64 `json:"Max"`
}

// UnmarshalJSON requires at least one bound; a missing minimum becomes -Inf
// and a missing maximum becomes +Inf.
func (r *TempRange) UnmarshalJSON(data []byte) error {
	var wire tempRangeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	if wire.Min == nil && wire.Max == nil {
		return errors.New("temp range needs at least one of Min or Max")
	}

	r.Min = math.Inf(-1)
	r.Max = math.Inf(1)
	if wire.Min != nil {
		r.Min = *wire.Min
	}
	if wire.Max != nil {
		r.Max = *wire.Max
	}

	if r.Min > r.Max {
		return fmt.Errorf("temp range min %.1f exceeds max %.1f", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether a temperature falls inside the band. Both bounds
// are inclusive.
func (r TempRange) Contains(temperature float64) bool {
	return r.Min <= temperature && temperature <= r.Max
}

// FitList is a list of fit tags. The asset source encodes it either as a
// single string or as an array of strings.
type FitList []string

// UnmarshalJSON normalizes string-or-array fit values to a list.
func (f *FitList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = FitList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("fit must be a string or a list of strings: %w", err)
	}
	*f = FitList(list)
	return nil
}

// Contains reports whether the list holds the given fit tag.
func (f FitList) Contains(fit string) bool {
	for _, v := range f {
		if v == fit {
			return true
		}
	}
	return false
}

// AssetItem is one clothing asset with its weather and style tags. Field
// aliases follow the asset source files.
type AssetItem struct {
	AssetName  string     `json:"AssetName"`
	OutfitPart OutfitPart `json:"OutfitPart"`
	Color      string     `json:"Color"`
	Style      []string   `json:"Style"`
	Gender     Gender     `json:"Gender"`
	Fit        FitList    `json:"Fit"`
	Season     []string   `json:"Season"`
	Condition  []string   `json:"Condition"`
	TempRange  TempRange  `json:"TempRange"`
	Wind       YesNo      `json:"Wind"`
	Rain       YesNo      `json:"Rain"`
	Snow       YesNo      `json:"Snow"`
}

// Validate checks the closed-set fields of an asset record.
func (a *AssetItem) Validate() error {
	if a.AssetName == "" {
		return fmt.Errorf("%w: missing AssetName", ErrInvalidAsset)
	}
	if !a.OutfitPart.Valid() {
		return fmt.Errorf("%w: %s: unknown outfit part %q", ErrInvalidAsset, a.AssetName, a.OutfitPart)
	}
	if !a.Gender.Valid() {
		return fmt.Errorf("%w: %s: unknown gender %q", ErrInvalidAsset, a.AssetName, a.Gender)
	}
	return nil
}
