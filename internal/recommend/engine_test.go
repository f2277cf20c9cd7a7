package recommend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/filter"
	"github.com/stylecast/stylecast/internal/kv"
	"github.com/stylecast/stylecast/internal/llm"
	"github.com/stylecast/stylecast/internal/weather"
)

type stubWeather struct {
	snap *weather.Snapshot
	err  error
}

func (s *stubWeather) Current(_ context.Context, _, _ string) (*weather.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.snap, nil
}

type stubCatalog struct {
	assets []catalog.AssetItem
	err    error
}

func (s *stubCatalog) All(_ context.Context) ([]catalog.AssetItem, error) {
	return s.assets, s.err
}

func (s *stubCatalog) ByName(_ context.Context, name string) (*catalog.AssetItem, error) {
	for i := range s.assets {
		if s.assets[i].AssetName == name {
			return &s.assets[i], nil
		}
	}
	return nil, catalog.ErrAssetNotFound
}

func (s *stubCatalog) Reload(_ context.Context) error { return nil }

type stubLLM struct {
	mu     sync.Mutex
	calls  int
	output string
	errs   []error
}

func (s *stubLLM) Name() string { return "stub" }

func (s *stubLLM) Complete(_ context.Context, _, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return s.output, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const validLLMOutput = `[{
	"recommendation_1": [{
		"head": "cap_001.png",
		"top": "jacket_001.png",
		"bottom": "jeans_001.png",
		"footwear": "boots_001.png"
	}],
	"description": "A sharp layered look for a cool, breezy day.",
	"weather_appropriate_score": 0.9,
	"style_score": 0.8
}]`

func testSnapshot() *weather.Snapshot {
	return &weather.Snapshot{
		Temperature: 15.0,
		Description: "scattered clouds",
		Group:       weather.GroupClouds,
		WindSpeed:   3.0,
		Location:    "Warsaw",
		Country:     "PL",
	}
}

func testAssets() []catalog.AssetItem {
	var assets []catalog.AssetItem
	for i, part := range []catalog.OutfitPart{
		catalog.PartHead, catalog.PartTop, catalog.PartBottom, catalog.PartFootwear,
	} {
		assets = append(assets, catalog.AssetItem{
			AssetName:  fmt.Sprintf("asset_%d.png", i),
			OutfitPart: part,
			Color:      "blue",
			Style:      []string{"casual"},
			Gender:     catalog.GenderUnisex,
			Fit:        catalog.FitList{"normal"},
			Season:     []string{"autumn"},
			Condition:  []string{"clouds"},
			TempRange:  catalog.TempRange{Min: 5, Max: 25},
			Wind:       true,
			Rain:       true,
			Snow:       true,
		})
	}
	return assets
}

func newTestEngine(w WeatherSource, c catalog.Repository, l llm.Provider, store kv.Store) *Engine {
	return NewEngine(EngineConfig{
		Weather: w,
		Catalog: c,
		LLM:     l,
		Store:   store,
		Logger:  zerolog.Nop(),
	})
}

func TestEngine_Recommend(t *testing.T) {
	llmStub := &stubLLM{output: validLLMOutput}
	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: testAssets()},
		llmStub,
		nil,
	)

	resp, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	require.NoError(t, err)

	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "jeans_001.png", resp.Recommendations[0].Bottom)
	assert.Equal(t, "Warsaw", resp.Location)
	assert.Equal(t, "Current weather in Warsaw: 15°C, scattered clouds. Wind speed: 3 m/s", resp.WeatherSummary)
	assert.Equal(t, "These outfits are perfectly suited for today's weather conditions.", resp.StyleNotes)
	assert.Equal(t, 1, llmStub.callCount())
}

func TestEngine_Recommend_StyleNotes(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*weather.Snapshot)
		want   string
	}{
		{
			name:   "rain",
			mutate: func(s *weather.Snapshot) { s.Rain = 1.0 },
			want:   "Don't forget to grab an umbrella! These outfits are selected to keep you dry and stylish.",
		},
		{
			name:   "snow",
			mutate: func(s *weather.Snapshot) { s.Snow = 0.8; s.Rain = 0 },
			want:   "These warm outfits are perfect for snowy conditions. Consider adding a scarf and gloves!",
		},
		{
			name:   "wind",
			mutate: func(s *weather.Snapshot) { s.WindSpeed = 7.0 },
			want:   "It's quite windy! These outfits are selected to keep you comfortable in breezy conditions.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := testSnapshot()
			tc.mutate(snap)

			engine := newTestEngine(
				&stubWeather{snap: snap},
				&stubCatalog{assets: testAssets()},
				&stubLLM{output: validLLMOutput},
				nil,
			)

			resp, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StyleNotes)
		})
	}
}

func TestEngine_Recommend_NoSuitableAssets(t *testing.T) {
	snap := testSnapshot()
	snap.Temperature = -30.0

	engine := newTestEngine(
		&stubWeather{snap: snap},
		&stubCatalog{assets: testAssets()},
		&stubLLM{output: validLLMOutput},
		nil,
	)

	_, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	assert.ErrorIs(t, err, ErrNoSuitableAssets)
}

func TestEngine_Recommend_LocationNotFound(t *testing.T) {
	engine := newTestEngine(
		&stubWeather{err: weather.ErrNotFound},
		&stubCatalog{assets: testAssets()},
		&stubLLM{output: validLLMOutput},
		nil,
	)

	_, err := engine.Recommend(context.Background(), Request{Location: "Nowhereville"})
	assert.ErrorIs(t, err, ErrLocationNotFound)
}

func TestEngine_Recommend_WeatherUnavailable(t *testing.T) {
	engine := newTestEngine(
		&stubWeather{err: weather.ErrUpstreamUnavailable},
		&stubCatalog{assets: testAssets()},
		&stubLLM{output: validLLMOutput},
		nil,
	)

	_, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	assert.ErrorIs(t, err, ErrWeatherUnavailable)
}

func TestEngine_Recommend_RetriesRateLimit(t *testing.T) {
	llmStub := &stubLLM{
		output: validLLMOutput,
		errs:   []error{llm.ErrRateLimited, llm.ErrTimeout},
	}
	engine := NewEngine(EngineConfig{
		Weather:          &stubWeather{snap: testSnapshot()},
		Catalog:          &stubCatalog{assets: testAssets()},
		LLM:              llmStub,
		Logger:           zerolog.Nop(),
		LLMRetryInterval: time.Millisecond,
	})

	resp, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, 3, llmStub.callCount(), "two transient failures then success")
}

func TestEngine_Recommend_MalformedOutputNotRetried(t *testing.T) {
	llmStub := &stubLLM{output: "not json at all"}
	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: testAssets()},
		llmStub,
		nil,
	)

	_, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.Equal(t, 1, llmStub.callCount())
}

func TestEngine_Recommend_CachesResponse(t *testing.T) {
	store := kv.NewMemoryStore()
	llmStub := &stubLLM{output: validLLMOutput}
	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: testAssets()},
		llmStub,
		store,
	)

	first, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	require.NoError(t, err)

	second, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	require.NoError(t, err)

	assert.Equal(t, 1, llmStub.callCount(), "second request is served from cache")
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestEngine_Recommend_CacheKeyVariesByPreferences(t *testing.T) {
	store := kv.NewMemoryStore()
	llmStub := &stubLLM{output: validLLMOutput}
	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: testAssets()},
		llmStub,
		store,
	)

	_, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	require.NoError(t, err)

	_, err = engine.Recommend(context.Background(), Request{
		Location:    "Warsaw",
		Preferences: &filter.Preferences{Styles: []string{"casual"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, llmStub.callCount(), "different preferences bypass the cached entry")
}

func TestEngine_Recommend_PreferenceFiltering(t *testing.T) {
	assets := testAssets()
	assets[1].Gender = catalog.GenderMale

	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: assets},
		&stubLLM{output: validLLMOutput},
		nil,
	)

	resp, err := engine.Recommend(context.Background(), Request{
		Location:    "Warsaw",
		Preferences: &filter.Preferences{Gender: catalog.GenderFemale},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
}

func TestEngine_RecommendCategorized(t *testing.T) {
	categorized := `{
		"recommendations": {
			"head": ["cap_001.png"],
			"top": ["jacket_001.png"],
			"bottom": ["jeans_001.png"],
			"footwear": ["boots_001.png"],
			"description": "Casual layers for a cloudy day."
		},
		"weather_summary": "Cloudy, 15C.",
		"style_notes": "Layer up."
	}`

	// The weather source errors to prove the supplied snapshot is used as-is
	// and no lookup happens.
	engine := newTestEngine(
		&stubWeather{err: weather.ErrUpstreamUnavailable},
		&stubCatalog{assets: testAssets()},
		&stubLLM{output: categorized},
		nil,
	)

	resp, err := engine.RecommendCategorized(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"jeans_001.png"}, resp.Recommendations.Bottom)
	assert.Equal(t, "Layer up.", resp.StyleNotes)
}

func TestEngine_RecommendCategorized_WithPreferences(t *testing.T) {
	categorized := `{
		"recommendations": {
			"head": [],
			"top": ["jacket_001.png"],
			"bottom": ["jeans_001.png"],
			"footwear": ["boots_001.png"]
		},
		"weather_summary": "Cloudy, 15C.",
		"style_notes": "Layer up."
	}`

	engine := newTestEngine(
		&stubWeather{err: weather.ErrUpstreamUnavailable},
		&stubCatalog{assets: testAssets()},
		&stubLLM{output: categorized},
		nil,
	)

	resp, err := engine.RecommendCategorized(context.Background(), testSnapshot(),
		&filter.Preferences{Styles: []string{"casual"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"boots_001.png"}, resp.Recommendations.Footwear)
}

func TestEngine_RecommendSimple(t *testing.T) {
	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: testAssets()},
		&stubLLM{output: validLLMOutput},
		nil,
	)

	resp, err := engine.RecommendSimple(context.Background(), "Warsaw", "")
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 1)
}

func TestEngine_RecommendSimple_TemperatureOnly(t *testing.T) {
	// Assets that reject snow still pass the simple path, which checks
	// nothing beyond the temperature range.
	assets := testAssets()
	for i := range assets {
		assets[i].Snow = false
	}
	snap := testSnapshot()
	snap.Snow = 1.2

	weatherStub := &stubWeather{snap: snap}
	catalogStub := &stubCatalog{assets: assets}
	llmStub := &stubLLM{output: validLLMOutput}
	engine := newTestEngine(weatherStub, catalogStub, llmStub, nil)

	_, err := engine.Recommend(context.Background(), Request{Location: "Warsaw"})
	assert.ErrorIs(t, err, ErrNoSuitableAssets, "full chain rejects snow-unsuitable assets")

	resp, err := engine.RecommendSimple(context.Background(), "Warsaw", "")
	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 1)
}

func TestEngine_RecommendSimple_NotCached(t *testing.T) {
	store := kv.NewMemoryStore()
	llmStub := &stubLLM{output: validLLMOutput}
	engine := newTestEngine(
		&stubWeather{snap: testSnapshot()},
		&stubCatalog{assets: testAssets()},
		llmStub,
		store,
	)

	_, err := engine.RecommendSimple(context.Background(), "Warsaw", "")
	require.NoError(t, err)

	_, err = engine.RecommendSimple(context.Background(), "Warsaw", "")
	require.NoError(t, err)

	assert.Equal(t, 2, llmStub.callCount(), "simple responses are generated fresh each time")
}
