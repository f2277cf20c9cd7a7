package filter

import (
	"time"

	"github.com/stylecast/stylecast/internal/catalog"
)

// StyleMatchScore is the share of preferred styles an asset carries, in
// [0, 1]. With no preferred styles the score is zero.
func StyleMatchScore(asset *catalog.AssetItem, styles []string) float64 {
	if len(styles) == 0 {
		return 0
	}

	matched := 0
	for _, s := range styles {
		if containsString(asset.Style, s) {
			matched++
		}
	}
	return float64(matched) / float64(len(styles))
}

// ByStyleScore keeps assets whose style match score reaches the threshold.
func ByStyleScore(assets []catalog.AssetItem, styles []string, minScore float64) []catalog.AssetItem {
	var kept []catalog.AssetItem
	for i := range assets {
		if StyleMatchScore(&assets[i], styles) >= minScore {
			kept = append(kept, assets[i])
		}
	}
	return kept
}

// SeasonFor maps a date to its meteorological season tag.
func SeasonFor(date time.Time) string {
	switch date.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

// BySeason keeps assets tagged for the season of the given date.
func BySeason(assets []catalog.AssetItem, date time.Time) []catalog.AssetItem {
	season := SeasonFor(date)

	var kept []catalog.AssetItem
	for i := range assets {
		if containsString(assets[i].Season, season) {
			kept = append(kept, assets[i])
		}
	}
	return kept
}

// CompatibleWith keeps assets that share at least one style with the outfit
// assembled so far. An empty outfit is compatible with everything.
func CompatibleWith(assets []catalog.AssetItem, outfit map[catalog.OutfitPart]catalog.AssetItem) []catalog.AssetItem {
	if len(outfit) == 0 {
		return assets
	}

	outfitStyles := make(map[string]struct{})
	for _, piece := range outfit {
		for _, s := range piece.Style {
			outfitStyles[s] = struct{}{}
		}
	}

	var kept []catalog.AssetItem
	for i := range assets {
		for _, s := range assets[i].Style {
			if _, ok := outfitStyles[s]; ok {
				kept = append(kept, assets[i])
				break
			}
		}
	}
	return kept
}
