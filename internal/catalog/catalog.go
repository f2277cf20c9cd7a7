package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Repository serves the asset catalog.
type Repository interface {
	// All returns every asset in the catalog.
	All(ctx context.Context) ([]AssetItem, error)

	// ByName returns the asset with the given name, or ErrAssetNotFound.
	ByName(ctx context.Context, name string) (*AssetItem, error)

	// Reload re-reads the catalog from its source.
	Reload(ctx context.Context) error
}

// JSONRepository loads assets from a JSON file. The file is read lazily on
// first use and can be re-read with Reload.
type JSONRepository struct {
	path   string
	logger zerolog.Logger

	mu     sync.Mutex
	loaded bool
	assets []AssetItem
	index  map[string]*AssetItem
}

// NewJSONRepository creates a repository backed by a JSON asset file.
func NewJSONRepository(path string, logger zerolog.Logger) *JSONRepository {
	return &JSONRepository{path: path, logger: logger}
}

// All returns every asset, loading the file on first call.
func (r *JSONRepository) All(ctx context.Context) ([]AssetItem, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AssetItem, len(r.assets))
	copy(out, r.assets)
	return out, nil
}

// ByName returns the asset with the given name.
func (r *JSONRepository) ByName(ctx context.Context, name string) (*AssetItem, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}
	found := *asset
	return &found, nil
}

// Reload re-reads the asset file. On failure the previously loaded catalog
// stays in place.
func (r *JSONRepository) Reload(_ context.Context) error {
	assets, index, err := r.load()
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.assets = assets
	r.index = index
	r.loaded = true
	r.mu.Unlock()

	r.logger.Info().Int("assets", len(assets)).Str("path", r.path).Msg("asset catalog loaded")
	return nil
}

// ensureLoaded loads the file exactly once until a Reload. The mutex is held
// across the check and the read, so callers racing the first load observe a
// single file read: the loser of the race re-checks loaded and returns.
func (r *JSONRepository) ensureLoaded(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return nil
	}

	assets, index, err := r.load()
	if err != nil {
		return err
	}
	r.assets = assets
	r.index = index
	r.loaded = true

	r.logger.Info().Int("assets", len(assets)).Str("path", r.path).Msg("asset catalog loaded")
	return nil
}

func (r *JSONRepository) load() ([]AssetItem, map[string]*AssetItem, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	var assets []AssetItem
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}

	index := make(map[string]*AssetItem, len(assets))
	for i := range assets {
		if err := assets[i].Validate(); err != nil {
			return nil, nil, err
		}
		if _, dup := index[assets[i].AssetName]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate asset name %q", ErrInvalidAsset, assets[i].AssetName)
		}
		index[assets[i].AssetName] = &assets[i]
	}

	return assets, index, nil
}
