package recommend

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/catalog"
	"github.com/stylecast/stylecast/internal/filter"
	"github.com/stylecast/stylecast/internal/kv"
	"github.com/stylecast/stylecast/internal/llm"
	"github.com/stylecast/stylecast/internal/weather"
)

// WeatherSource serves current weather for a location.
type WeatherSource interface {
	Current(ctx context.Context, city, country string) (*weather.Snapshot, error)
}

// Request describes one recommendation query.
type Request struct {
	Location    string
	Country     string
	Preferences *filter.Preferences
}

// EngineConfig holds configuration for the recommendation engine.
type EngineConfig struct {
	// Weather serves current conditions (required).
	Weather WeatherSource

	// Catalog serves the asset inventory (required).
	Catalog catalog.Repository

	// LLM ranks the filtered assets into outfits (required).
	LLM llm.Provider

	// Store caches full responses (optional).
	Store kv.Store

	// Logger for engine operations.
	Logger zerolog.Logger

	// MaxRecommendations caps the ranked outfits per response (default: 5).
	MaxRecommendations int

	// CacheTTL is the response cache lifetime (default: 1 hour).
	CacheTTL time.Duration

	// MaxWorkers bounds the parallel filter workers (default: GOMAXPROCS).
	MaxWorkers int

	// Filter controls the weather predicate chain.
	Filter filter.Config

	// LLMRetries is the retry budget for rate-limited or timed-out
	// completions (default: 3).
	LLMRetries uint64

	// LLMRetryInterval is the first retry backoff interval; subsequent
	// intervals double up to ten times the base (default: 1s).
	LLMRetryInterval time.Duration
}

// Engine orchestrates the recommendation flow: weather lookup, asset
// filtering, LLM ranking, and response caching.
type Engine struct {
	weather  WeatherSource
	catalog  catalog.Repository
	llm      llm.Provider
	store    kv.Store
	logger   zerolog.Logger
	pipeline *filter.Pipeline

	// simplePipeline filters on temperature alone for the simple path.
	simplePipeline *filter.Pipeline

	maxRecommendations int
	cacheTTL           time.Duration
	llmRetries         uint64
	llmRetryInterval   time.Duration
}

// NewEngine creates a new recommendation engine.
func NewEngine(cfg EngineConfig) *Engine {
	maxRecommendations := cfg.MaxRecommendations
	if maxRecommendations == 0 {
		maxRecommendations = 5
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	llmRetries := cfg.LLMRetries
	if llmRetries == 0 {
		llmRetries = 3
	}

	llmRetryInterval := cfg.LLMRetryInterval
	if llmRetryInterval == 0 {
		llmRetryInterval = time.Second
	}

	simpleFilter := cfg.Filter
	simpleFilter.TemperatureOnly = true

	return &Engine{
		weather:            cfg.Weather,
		catalog:            cfg.Catalog,
		llm:                cfg.LLM,
		store:              cfg.Store,
		logger:             cfg.Logger,
		pipeline:           filter.NewPipeline(filter.PipelineConfig{MaxWorkers: cfg.MaxWorkers, Filter: cfg.Filter}),
		simplePipeline:     filter.NewPipeline(filter.PipelineConfig{MaxWorkers: cfg.MaxWorkers, Filter: simpleFilter}),
		maxRecommendations: maxRecommendations,
		cacheTTL:           cacheTTL,
		llmRetries:         llmRetries,
		llmRetryInterval:   llmRetryInterval,
	}
}

// Recommend generates ranked outfits for the location, narrowed by the user's
// preferences.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	return e.recommend(ctx, req, e.pipeline, true)
}

// RecommendSimple generates ranked outfits from the temperature alone. No
// preference narrowing, no condition or precipitation checks, no response
// caching.
func (e *Engine) RecommendSimple(ctx context.Context, location, country string) (*Response, error) {
	return e.recommend(ctx, Request{Location: location, Country: country}, e.simplePipeline, false)
}

func (e *Engine) recommend(ctx context.Context, req Request, pipe *filter.Pipeline, cacheable bool) (*Response, error) {
	snap, err := e.currentWeather(ctx, req)
	if err != nil {
		return nil, err
	}

	var cacheKey string
	if cacheable {
		cacheKey = cacheKeyFor(snap, req.Preferences)
		if cached := e.readCached(ctx, cacheKey); cached != nil {
			return cached, nil
		}
	}

	filtered, err := e.filterAssets(ctx, pipe, snap, req.Preferences)
	if err != nil {
		return nil, err
	}

	var styles []string
	if req.Preferences != nil {
		styles = req.Preferences.Styles
	}

	raw, err := e.complete(ctx, stylistSystemPrompt, snap, filtered, styles)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recommendations, err := parseOutfits(raw, now)
	if err != nil {
		return nil, err
	}
	if len(recommendations) > e.maxRecommendations {
		recommendations = recommendations[:e.maxRecommendations]
	}

	resp := &Response{
		Location:        snap.Location,
		Recommendations: recommendations,
		WeatherSummary:  weatherSummary(snap),
		StyleNotes:      styleNotes(snap),
		GeneratedAt:     now,
	}

	if cacheable {
		e.writeCached(ctx, cacheKey, resp)
	}
	return resp, nil
}

// RecommendCategorized generates per-slot ranked asset lists for an
// externally supplied weather snapshot. No weather lookup happens here; the
// caller provides the conditions.
func (e *Engine) RecommendCategorized(ctx context.Context, snap *weather.Snapshot, prefs *filter.Preferences) (*CategorizedResponse, error) {
	filtered, err := e.filterAssets(ctx, e.pipeline, snap, prefs)
	if err != nil {
		return nil, err
	}

	var styles []string
	if prefs != nil {
		styles = prefs.Styles
	}

	raw, err := e.complete(ctx, categorizedSystemPrompt, snap, filtered, styles)
	if err != nil {
		return nil, err
	}

	return parseCategorized(raw)
}

func (e *Engine) currentWeather(ctx context.Context, req Request) (*weather.Snapshot, error) {
	snap, err := e.weather.Current(ctx, req.Location, req.Country)
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) || errors.Is(err, ErrLocationNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, req.Location)
		}
		return nil, fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
	}
	return snap, nil
}

func (e *Engine) filterAssets(ctx context.Context, pipe *filter.Pipeline, snap *weather.Snapshot, prefs *filter.Preferences) ([]catalog.AssetItem, error) {
	assets, err := e.catalog.All(ctx)
	if err != nil {
		return nil, err
	}

	cond := filter.Conditions{
		Temperature: snap.Temperature,
		Group:       string(snap.Group),
		WindSpeed:   snap.WindSpeed,
		Rain:        snap.Rain,
		Snow:        snap.Snow,
	}

	filtered, err := pipe.Apply(ctx, assets, cond, prefs)
	if err != nil {
		return nil, err
	}
	if len(filtered) == 0 {
		return nil, ErrNoSuitableAssets
	}

	e.logger.Debug().Int("assets", len(assets)).Int("filtered", len(filtered)).
		Str("location", snap.Location).Msg("assets filtered")
	return filtered, nil
}

// complete runs the LLM call, retrying rate limits and timeouts with
// exponential backoff.
func (e *Engine) complete(ctx context.Context, system string, snap *weather.Snapshot,
	assets []catalog.AssetItem, styles []string) (string, error) {
	user, err := buildUserPrompt(snap, assets, styles)
	if err != nil {
		return "", err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.llmRetryInterval
	bo.MaxInterval = 10 * e.llmRetryInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, e.llmRetries), ctx)

	var out string
	operation := func() error {
		var err error
		out, err = e.llm.Complete(ctx, system, user)
		if err != nil {
			if errors.Is(err, llm.ErrRateLimited) || errors.Is(err, llm.ErrTimeout) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return out, nil
}

// cacheKeyFor fingerprints the request inputs. Preferences marshal with a
// fixed field order, so equal preferences always hash identically.
func cacheKeyFor(snap *weather.Snapshot, prefs *filter.Preferences) string {
	canonical := ""
	if !prefs.Empty() {
		if data, err := json.Marshal(prefs); err == nil {
			canonical = string(data)
		}
	}

	sum := md5.Sum([]byte(fmt.Sprintf("%s_%g_%s", snap.Location, snap.Temperature, canonical)))
	return fmt.Sprintf("rec:%x", sum)
}

// readCached returns the cached response for the key, or nil. Store failures
// degrade to a miss.
func (e *Engine) readCached(ctx context.Context, key string) *Response {
	if e.store == nil {
		return nil
	}

	data, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			e.logger.Warn().Err(err).Str("key", key).Msg("response cache read failed")
		}
		return nil
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil
	}
	return &resp
}

// writeCached stores the response. Failures only log.
func (e *Engine) writeCached(ctx context.Context, key string, resp *Response) {
	if e.store == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := e.store.Set(ctx, key, data, e.cacheTTL); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("response cache write failed")
	}
}

// weatherSummary builds the human-readable conditions line.
func weatherSummary(snap *weather.Snapshot) string {
	return fmt.Sprintf("Current weather in %s: %g°C, %s. Wind speed: %g m/s",
		snap.Location, snap.Temperature, snap.Description, snap.WindSpeed)
}

// styleNotes picks the styling advice for the dominant weather factor.
func styleNotes(snap *weather.Snapshot) string {
	switch {
	case snap.Rain > 0:
		return "Don't forget to grab an umbrella! These outfits are selected to keep you dry and stylish."
	case snap.Snow > 0:
		return "These warm outfits are perfect for snowy conditions. Consider adding a scarf and gloves!"
	case snap.WindSpeed > 5.0:
		return "It's quite windy! These outfits are selected to keep you comfortable in breezy conditions."
	default:
		return "These outfits are perfectly suited for today's weather conditions."
	}
}
