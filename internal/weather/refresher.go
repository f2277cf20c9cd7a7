package weather

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stylecast/stylecast/internal/kv"
)

// RefresherConfig holds configuration for the background refresher.
type RefresherConfig struct {
	// Store is the shared KV store (required).
	Store kv.Store

	// Cache performs the actual re-fetches (required).
	Cache *Cache

	// Logger for refresher operations.
	Logger zerolog.Logger

	// Interval between scan passes (default: 5 minutes).
	Interval time.Duration

	// Pacing is the sleep between consecutive upstream fetches within a
	// pass, to stay under the provider's rate limit (default: 500ms).
	Pacing time.Duration

	// RefreshThreshold is the entry age that triggers a re-fetch
	// (default: 3 hours 40 minutes).
	RefreshThreshold time.Duration
}

// Refresher periodically scans the weather metadata keys and re-fetches
// entries that have aged past the refresh threshold. Failures leave the
// cached value in place and are retried on the next pass.
type Refresher struct {
	store            kv.Store
	cache            *Cache
	logger           zerolog.Logger
	interval         time.Duration
	pacing           time.Duration
	refreshThreshold time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewRefresher creates a new background refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	interval := cfg.Interval
	if interval == 0 {
		interval = 5 * time.Minute
	}

	pacing := cfg.Pacing
	if pacing == 0 {
		pacing = 500 * time.Millisecond
	}

	refreshThreshold := cfg.RefreshThreshold
	if refreshThreshold == 0 {
		refreshThreshold = 3*time.Hour + 40*time.Minute
	}

	return &Refresher{
		store:            cfg.Store,
		cache:            cfg.Cache,
		logger:           cfg.Logger,
		interval:         interval,
		pacing:           pacing,
		refreshThreshold: refreshThreshold,
	}
}

// Start launches the refresh loop. Calling Start on a running refresher is a
// no-op.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.loop(ctx)
	r.logger.Info().Dur("interval", r.interval).Msg("background refresher started")
}

// Stop cancels the refresh loop and waits for it to exit. An in-flight
// upstream call completes before the loop returns.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.running = false
	r.mu.Unlock()

	cancel()
	<-done
	r.logger.Info().Msg("background refresher stopped")
}

func (r *Refresher) loop(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runPass(ctx)
		}
	}
}

// runPass scans all weather metadata keys and refreshes the stale ones, one
// at a time with pacing between upstream fetches.
func (r *Refresher) runPass(ctx context.Context) {
	keys, err := r.store.Scan(ctx, MetadataScanPrefix)
	if err != nil {
		r.logger.Warn().Err(err).Msg("metadata scan failed, skipping pass")
		return
	}

	refreshed := 0
	for _, metaKey := range keys {
		if ctx.Err() != nil {
			return
		}

		data, err := r.store.Get(ctx, metaKey)
		if err != nil {
			continue
		}

		var meta LocationMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			r.logger.Warn().Str("key", metaKey).Msg("corrupt metadata entry, skipping")
			continue
		}

		age := time.Since(time.Unix(meta.LastUpdated, 0))
		if age <= r.refreshThreshold {
			continue
		}

		valueKey := strings.TrimPrefix(metaKey, metadataKeyPrefix)
		query, ok := QueryFromKey(valueKey)
		if !ok {
			r.logger.Warn().Str("key", valueKey).Msg("unrecognized value key, skipping")
			continue
		}

		if err := r.cache.Refresh(ctx, valueKey, query); err != nil {
			// Retried on the next pass; the cached value stays valid.
			r.logger.Warn().Err(err).Str("key", valueKey).Msg("refresh failed")
		} else {
			refreshed++
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.pacing):
		}
	}

	if refreshed > 0 {
		r.logger.Info().Int("refreshed", refreshed).Int("scanned", len(keys)).Msg("refresh pass completed")
	}
}
