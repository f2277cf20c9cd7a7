package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseNow = time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

func TestParseOutfits_FullOutput(t *testing.T) {
	raw := `[
		{
			"recommendation_1": [{
				"head": "cap_001.png",
				"top": "jacket_001.png",
				"bottom": "jeans_001.png",
				"footwear": "boots_001.png"
			}],
			"description": "A rugged look for a drizzly afternoon.",
			"weather_appropriate_score": 0.9,
			"style_score": 0.8
		},
		{
			"recommendation_2": [{
				"top": "hoodie_002.png",
				"bottom": "chinos_001.png",
				"footwear": "sneakers_003.png"
			}],
			"description": "Relaxed layers for a casual day out.",
			"weather_appropriate_score": 0.7,
			"style_score": 0.9
		}
	]`

	recs, err := parseOutfits(raw, parseNow)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.Equal(t, "cap_001.png", first.Head)
	assert.Equal(t, "jacket_001.png", first.Top)
	assert.Equal(t, 0.9, first.WeatherScore)
	assert.Equal(t, parseNow, first.CreatedAt)

	second := recs[1]
	assert.Equal(t, MissingPiece, second.Head, "missing slot becomes N/A")
	assert.Equal(t, "hoodie_002.png", second.Top)
}

func TestParseOutfits_FencedOutput(t *testing.T) {
	raw := "```json\n" + `[{
		"recommendation_1": [{"bottom": "jeans_001.png", "footwear": "boots_001.png"}],
		"description": "Essentials only.",
		"weather_appropriate_score": 0.8,
		"style_score": 0.5,
	}]` + "\n```"

	recs, err := parseOutfits(raw, parseNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, MissingPiece, recs[0].Head)
	assert.Equal(t, MissingPiece, recs[0].Top)
}

func TestParseOutfits_ScoresClamped(t *testing.T) {
	raw := `[{
		"recommendation_1": [{"bottom": "b.png", "footwear": "f.png"}],
		"description": "d",
		"weather_appropriate_score": 1.7,
		"style_score": -0.2
	}]`

	recs, err := parseOutfits(raw, parseNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 1.0, recs[0].WeatherScore)
	assert.Equal(t, 0.0, recs[0].StyleScore)
}

func TestParseOutfits_DropsEntriesWithoutEssentials(t *testing.T) {
	raw := `[
		{"recommendation_1": [{"top": "t.png", "footwear": "f.png"}], "description": "no bottom"},
		{"recommendation_2": [{"bottom": "b.png", "footwear": "f.png"}], "description": "complete"}
	]`

	recs, err := parseOutfits(raw, parseNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "complete", recs[0].Description)
}

func TestParseOutfits_SlotObjectWithoutArray(t *testing.T) {
	raw := `[{
		"recommendation_1": {"bottom": "b.png", "footwear": "f.png"},
		"description": "unwrapped slot object"
	}]`

	recs, err := parseOutfits(raw, parseNow)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestParseOutfits_Garbage(t *testing.T) {
	_, err := parseOutfits("I'm sorry, I can't help with that.", parseNow)
	assert.ErrorIs(t, err, ErrMalformedOutput)

	_, err = parseOutfits(`[{"unrelated": true}]`, parseNow)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestParseCategorized(t *testing.T) {
	raw := "```json\n" + `{
		"recommendations": {
			"head": ["cap_001.png"],
			"top": ["jacket_001.png", "hoodie_002.png"],
			"bottom": ["jeans_001.png"],
			"footwear": ["boots_001.png"],
			"description": "Layered looks for a wet day.",
			"additional_notes": "Pick darker colors."
		},
		"weather_summary": "Light rain, 12C.",
		"style_notes": "Bring an umbrella."
	}` + "\n```"

	resp, err := parseCategorized(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"jacket_001.png", "hoodie_002.png"}, resp.Recommendations.Top)
	assert.Equal(t, "Bring an umbrella.", resp.StyleNotes)
}

func TestParseCategorized_MissingEssentialSlots(t *testing.T) {
	raw := `{"recommendations": {"top": ["t.png"]}, "weather_summary": "s", "style_notes": "n"}`

	_, err := parseCategorized(raw)
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
