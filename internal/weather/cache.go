package weather

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/stylecast/stylecast/internal/kv"
)

// CacheConfig holds configuration for the weather cache service.
type CacheConfig struct {
	// Store is the shared KV store (required).
	Store kv.Store

	// Provider is the upstream weather source (required).
	Provider Provider

	// Logger for cache operations.
	Logger zerolog.Logger

	// CacheDuration is the TTL of cached entries (default: 4 hours).
	CacheDuration time.Duration

	// RefreshThreshold is the entry age beyond which a served hit also
	// schedules a background refresh (default: 3 hours 40 minutes).
	RefreshThreshold time.Duration

	// ProximityPrecision is the coordinate grid size in degrees for
	// proximity clustering (default: 5.0).
	ProximityPrecision float64

	// RefreshTimeout bounds a single background refresh (default: 30s).
	RefreshTimeout time.Duration
}

// Cache serves weather data with stale-while-revalidate semantics: hits are
// returned immediately, entries past RefreshThreshold are refreshed in the
// background, and misses fetch synchronously through a single-flight group.
type Cache struct {
	store              kv.Store
	provider           Provider
	logger             zerolog.Logger
	cacheDuration      time.Duration
	refreshThreshold   time.Duration
	proximityPrecision float64
	refreshTimeout     time.Duration

	fetchGroup singleflight.Group

	refreshMu  sync.Mutex
	refreshing map[string]struct{}
	refreshWG  sync.WaitGroup
}

// NewCache creates a new weather cache service.
func NewCache(cfg CacheConfig) *Cache {
	cacheDuration := cfg.CacheDuration
	if cacheDuration == 0 {
		cacheDuration = 4 * time.Hour
	}

	refreshThreshold := cfg.RefreshThreshold
	if refreshThreshold == 0 {
		refreshThreshold = 3*time.Hour + 40*time.Minute
	}

	proximityPrecision := cfg.ProximityPrecision
	if proximityPrecision == 0 {
		proximityPrecision = 5.0
	}

	refreshTimeout := cfg.RefreshTimeout
	if refreshTimeout == 0 {
		refreshTimeout = 30 * time.Second
	}

	return &Cache{
		store:              cfg.Store,
		provider:           cfg.Provider,
		logger:             cfg.Logger,
		cacheDuration:      cacheDuration,
		refreshThreshold:   refreshThreshold,
		proximityPrecision: proximityPrecision,
		refreshTimeout:     refreshTimeout,
		refreshing:         make(map[string]struct{}),
	}
}

// ByCity returns the current weather for a city, optionally narrowed by an
// ISO country code.
func (c *Cache) ByCity(ctx context.Context, city, country string) (*Snapshot, error) {
	key := CityKey(city, country)
	return c.snapshot(ctx, key, CityQuery(city, country))
}

// ByProximity returns the current weather for coordinates. Coordinates in the
// same proximity cluster share one cache entry.
func (c *Cache) ByProximity(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	key := ProximityKey(lat, lon, c.proximityPrecision)
	return c.snapshot(ctx, key, CoordQuery(lat, lon))
}

// ForecastByCity returns the forecast for a city.
func (c *Cache) ForecastByCity(ctx context.Context, city, country string) (*Forecast, error) {
	key := ForecastKey(city, country)
	query := CityQuery(city, country)

	if data, ok := c.readHit(ctx, key, query); ok {
		var forecast Forecast
		if err := json.Unmarshal(data, &forecast); err == nil {
			return &forecast, nil
		}
		c.logger.Warn().Str("key", key).Msg("corrupt cached forecast, refetching")
	}

	data, err := c.fetchAndStore(ctx, key, query, c.fetchForecast)
	if err != nil {
		return nil, err
	}

	var forecast Forecast
	if err := json.Unmarshal(data, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}

// snapshot runs the stale-while-revalidate protocol for a snapshot key.
func (c *Cache) snapshot(ctx context.Context, key string, query Query) (*Snapshot, error) {
	if data, ok := c.readHit(ctx, key, query); ok {
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err == nil {
			return &snap, nil
		}
		c.logger.Warn().Str("key", key).Msg("corrupt cached snapshot, refetching")
	}

	data, err := c.fetchAndStore(ctx, key, query, c.fetchSnapshot)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// readHit reads the value key and its metadata sibling. On a hit it bumps the
// request counter and, when the entry has aged past the refresh threshold,
// schedules a background refresh for the key. Transient store failures are
// treated as misses.
func (c *Cache) readHit(ctx context.Context, key string, query Query) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, treating as miss")
		}
		return nil, false
	}

	metaKey := MetadataKey(key)
	metaData, err := c.store.Get(ctx, metaKey)
	if err == nil {
		var meta LocationMeta
		if err := json.Unmarshal(metaData, &meta); err == nil {
			meta.RequestCount++
			if encoded, err := json.Marshal(meta); err == nil {
				if err := c.store.Set(ctx, metaKey, encoded, c.cacheDuration); err != nil {
					c.logger.Warn().Err(err).Str("key", metaKey).Msg("metadata update failed")
				}
			}

			age := time.Since(time.Unix(meta.LastUpdated, 0))
			if age > c.refreshThreshold {
				c.scheduleRefresh(key, query)
			}
		}
	}

	return data, true
}

// scheduleRefresh starts a background refresh for key unless one is already
// in flight.
func (c *Cache) scheduleRefresh(key string, query Query) {
	c.refreshMu.Lock()
	if _, inFlight := c.refreshing[key]; inFlight {
		c.refreshMu.Unlock()
		return
	}
	c.refreshing[key] = struct{}{}
	c.refreshMu.Unlock()

	c.refreshWG.Add(1)
	go func() {
		defer c.refreshWG.Done()
		defer func() {
			c.refreshMu.Lock()
			delete(c.refreshing, key)
			c.refreshMu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		if err := c.Refresh(ctx, key, query); err != nil {
			// The stale value stays until its TTL; the refresher retries later.
			c.logger.Warn().Err(err).Str("key", key).Msg("background refresh failed")
			return
		}
		c.logger.Debug().Str("key", key).Msg("background refresh completed")
	}()
}

// Refresh re-fetches a snapshot key from the upstream and replaces the cached
// value and metadata. A failed fetch leaves the existing entry untouched.
func (c *Cache) Refresh(ctx context.Context, key string, query Query) error {
	_, err := c.fetchAndStore(ctx, key, query, c.fetchSnapshot)
	return err
}

// fetchAndStore fetches the value from upstream and writes the value key and
// its metadata sibling. Concurrent misses for one key are coalesced. The
// metadata is only written once the value write has succeeded, so a cancelled
// request cannot leave a metadata record without a value.
func (c *Cache) fetchAndStore(ctx context.Context, key string, query Query,
	fetch func(context.Context, Query) ([]byte, error)) ([]byte, error) {
	data, err, _ := c.fetchGroup.Do(key, func() (interface{}, error) {
		data, err := fetch(ctx, query)
		if err != nil {
			return nil, err
		}

		if err := c.store.Set(ctx, key, data, c.cacheDuration); err != nil {
			// Write failures are swallowed; the caller still gets fresh data.
			c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
			return data, nil
		}

		meta := LocationMeta{
			LocationKey:  key,
			LastUpdated:  time.Now().Unix(),
			Active:       true,
			RequestCount: 1,
		}
		encoded, err := json.Marshal(meta)
		if err == nil {
			if err := c.store.Set(ctx, MetadataKey(key), encoded, c.cacheDuration); err != nil {
				c.logger.Warn().Err(err).Str("key", key).Msg("metadata write failed")
			}
		}

		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return data.([]byte), nil
}

func (c *Cache) fetchSnapshot(ctx context.Context, query Query) ([]byte, error) {
	snap, err := c.provider.Current(ctx, query)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}

func (c *Cache) fetchForecast(ctx context.Context, query Query) ([]byte, error) {
	forecast, err := c.provider.FiveDayForecast(ctx, query)
	if err != nil {
		return nil, err
	}
	return json.Marshal(forecast)
}

// WaitRefreshes blocks until all scheduled background refreshes have
// finished. Used during shutdown and in tests.
func (c *Cache) WaitRefreshes() {
	c.refreshWG.Wait()
}
