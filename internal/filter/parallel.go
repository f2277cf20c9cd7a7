package filter

import (
	"context"
	"runtime"
	"sync"

	"github.com/stylecast/stylecast/internal/catalog"
)

// Pipeline evaluates the predicate chain over an asset slice, splitting the
// work into chunks processed by a bounded worker set. Output preserves input
// order.
type Pipeline struct {
	maxWorkers int
	config     Config
}

// PipelineConfig holds configuration for the parallel filter pipeline.
type PipelineConfig struct {
	// MaxWorkers bounds concurrent chunk workers (default: GOMAXPROCS).
	MaxWorkers int

	// Filter controls which weather checks apply.
	Filter Config
}

// NewPipeline creates a parallel filter pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{maxWorkers: maxWorkers, config: cfg.Filter}
}

// Apply filters assets against the weather conditions and preferences.
// The result order matches the input order regardless of worker scheduling.
func (p *Pipeline) Apply(ctx context.Context, assets []catalog.AssetItem,
	cond Conditions, prefs *Preferences) ([]catalog.AssetItem, error) {
	if len(assets) == 0 {
		return nil, nil
	}

	chunkSize := (len(assets) + p.maxWorkers - 1) / p.maxWorkers
	if chunkSize < 1 {
		chunkSize = 1
	}

	type chunk struct {
		index int
		items []catalog.AssetItem
	}

	var chunks []chunk
	for start := 0; start < len(assets); start += chunkSize {
		end := start + chunkSize
		if end > len(assets) {
			end = len(assets)
		}
		chunks = append(chunks, chunk{index: len(chunks), items: assets[start:end]})
	}

	results := make([][]catalog.AssetItem, len(chunks))

	var wg sync.WaitGroup
	for _, c := range chunks {
		wg.Add(1)
		go func(c chunk) {
			defer wg.Done()

			var kept []catalog.AssetItem
			for i := range c.items {
				if ctx.Err() != nil {
					return
				}
				if Matches(&c.items[i], cond, prefs, p.config) {
					kept = append(kept, c.items[i])
				}
			}
			results[c.index] = kept
		}(c)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var filtered []catalog.AssetItem
	for _, r := range results {
		filtered = append(filtered, r...)
	}
	return filtered, nil
}
