package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository serves the asset catalog from a PostgreSQL table. Tag
// lists and the temperature range are stored as JSONB columns.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a PostgreSQL-backed catalog repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// All returns every asset in the catalog.
func (r *PostgresRepository) All(ctx context.Context) ([]AssetItem, error) {
	query := `
		SELECT asset_name, outfit_part, color, style, gender, fit,
		       season, condition, temp_min, temp_max, wind, rain, snow
		FROM assets
		ORDER BY asset_name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var assets []AssetItem
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	return assets, nil
}

// ByName returns the asset with the given name.
func (r *PostgresRepository) ByName(ctx context.Context, name string) (*AssetItem, error) {
	query := `
		SELECT asset_name, outfit_part, color, style, gender, fit,
		       season, condition, temp_min, temp_max, wind, rain, snow
		FROM assets
		WHERE asset_name = $1
	`

	row := r.pool.QueryRow(ctx, query, name)
	asset, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
		}
		return nil, err
	}
	return asset, nil
}

// Reload is a no-op; queries always see the current table contents.
func (r *PostgresRepository) Reload(_ context.Context) error {
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*AssetItem, error) {
	var (
		asset            AssetItem
		part, gender     string
		fit              []string
		wind, rain, snow bool
	)

	err := row.Scan(
		&asset.AssetName,
		&part,
		&asset.Color,
		&asset.Style,
		&gender,
		&fit,
		&asset.Season,
		&asset.Condition,
		&asset.TempRange.Min,
		&asset.TempRange.Max,
		&wind,
		&rain,
		&snow,
	)
	if err != nil {
		return nil, err
	}

	asset.OutfitPart = OutfitPart(part)
	asset.Gender = Gender(gender)
	asset.Fit = FitList(fit)
	asset.Wind = YesNo(wind)
	asset.Rain = YesNo(rain)
	asset.Snow = YesNo(snow)

	if err := asset.Validate(); err != nil {
		return nil, err
	}
	return &asset, nil
}
