package catalog

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAssets = `[
	{
		"AssetName": "blue_jacket",
		"OutfitPart": "top",
		"Color": "blue",
		"Style": ["casual", "sporty"],
		"Gender": "unisex",
		"Fit": "normal",
		"Season": ["autumn", "winter"],
		"Condition": ["clouds", "rain"],
		"TempRange": {"Min": -5, "Max": 15},
		"Wind": "yes",
		"Rain": "yes",
		"Snow": "no"
	},
	{
		"AssetName": "summer_shorts",
		"OutfitPart": "bottom",
		"Color": "beige",
		"Style": ["casual"],
		"Gender": "male",
		"Fit": ["normal", "loose"],
		"Season": ["summer"],
		"Condition": ["clear"],
		"TempRange": {"Min": 20},
		"Wind": "no",
		"Rain": "no",
		"Snow": "no"
	}
]`

func writeAssetFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestJSONRepository_All(t *testing.T) {
	repo := NewJSONRepository(writeAssetFile(t, sampleAssets), zerolog.Nop())

	assets, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, assets, 2)

	jacket := assets[0]
	assert.Equal(t, "blue_jacket", jacket.AssetName)
	assert.Equal(t, PartTop, jacket.OutfitPart)
	assert.Equal(t, GenderUnisex, jacket.Gender)
	assert.Equal(t, FitList{"normal"}, jacket.Fit, "single-string fit normalizes to a list")
	assert.True(t, bool(jacket.Rain))
	assert.False(t, bool(jacket.Snow))
	assert.Equal(t, -5.0, jacket.TempRange.Min)
	assert.Equal(t, 15.0, jacket.TempRange.Max)

	shorts := assets[1]
	assert.Equal(t, FitList{"normal", "loose"}, shorts.Fit)
	assert.Equal(t, 20.0, shorts.TempRange.Min)
	assert.True(t, math.IsInf(shorts.TempRange.Max, 1), "missing Max is open-ended")
}

func TestJSONRepository_ByName(t *testing.T) {
	repo := NewJSONRepository(writeAssetFile(t, sampleAssets), zerolog.Nop())

	asset, err := repo.ByName(context.Background(), "summer_shorts")
	require.NoError(t, err)
	assert.Equal(t, PartBottom, asset.OutfitPart)

	_, err = repo.ByName(context.Background(), "missing_hat")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestJSONRepository_MissingFile(t *testing.T) {
	repo := NewJSONRepository(filepath.Join(t.TempDir(), "nope.json"), zerolog.Nop())

	_, err := repo.All(context.Background())
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}

func TestJSONRepository_DuplicateNames(t *testing.T) {
	dup := `[
		{"AssetName": "x", "OutfitPart": "top", "Color": "red", "Style": ["casual"], "Gender": "unisex",
		 "Fit": "normal", "Season": ["summer"], "Condition": ["clear"], "TempRange": {"Min": 0, "Max": 30},
		 "Wind": "no", "Rain": "no", "Snow": "no"},
		{"AssetName": "x", "OutfitPart": "bottom", "Color": "red", "Style": ["casual"], "Gender": "unisex",
		 "Fit": "normal", "Season": ["summer"], "Condition": ["clear"], "TempRange": {"Min": 0, "Max": 30},
		 "Wind": "no", "Rain": "no", "Snow": "no"}
	]`
	repo := NewJSONRepository(writeAssetFile(t, dup), zerolog.Nop())

	_, err := repo.All(context.Background())
	assert.ErrorIs(t, err, ErrInvalidAsset)
}

func TestJSONRepository_ConcurrentFirstLoad_SingleRead(t *testing.T) {
	// A FIFO makes every file read observable: each read blocks until the
	// writer side opens, so the writer's open count is the read count.
	path := filepath.Join(t.TempDir(), "assets.json")
	require.NoError(t, syscall.Mkfifo(path, 0o600))

	var reads atomic.Int32
	go func() {
		for {
			f, err := os.OpenFile(path, os.O_WRONLY, 0)
			if err != nil {
				return
			}
			reads.Add(1)
			_, _ = f.Write([]byte(sampleAssets))
			_ = f.Close()
		}
	}()

	repo := NewJSONRepository(path, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assets, err := repo.All(context.Background())
			assert.NoError(t, err)
			assert.Len(t, assets, 2)
		}()
	}
	wg.Wait()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), reads.Load(), "racing first callers share one file read")
}

func TestJSONRepository_ReloadFailureKeepsCatalog(t *testing.T) {
	path := writeAssetFile(t, sampleAssets)
	repo := NewJSONRepository(path, zerolog.Nop())

	_, err := repo.All(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	assert.Error(t, repo.Reload(context.Background()))

	assets, err := repo.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, assets, 2, "failed reload keeps the previous catalog")
}

func TestTempRange_Unmarshal(t *testing.T) {
	var r TempRange
	require.NoError(t, json.Unmarshal([]byte(`{"Min": 5, "Max": 20}`), &r))
	assert.True(t, r.Contains(5))
	assert.True(t, r.Contains(20))
	assert.False(t, r.Contains(20.1))

	require.NoError(t, json.Unmarshal([]byte(`{"Max": 10}`), &r))
	assert.True(t, r.Contains(-100))
	assert.False(t, r.Contains(11))

	assert.Error(t, json.Unmarshal([]byte(`{}`), &r), "both bounds missing")
	assert.Error(t, json.Unmarshal([]byte(`{"Min": 30, "Max": 10}`), &r), "inverted bounds")
}

func TestAssetItem_Validate(t *testing.T) {
	asset := AssetItem{AssetName: "a", OutfitPart: "hat", Gender: GenderUnisex}
	assert.ErrorIs(t, asset.Validate(), ErrInvalidAsset)

	asset = AssetItem{AssetName: "a", OutfitPart: PartHead, Gender: "robot"}
	assert.ErrorIs(t, asset.Validate(), ErrInvalidAsset)

	asset = AssetItem{AssetName: "a", OutfitPart: PartHead, Gender: GenderOther}
	assert.NoError(t, asset.Validate())
}

func TestYesNo_Unmarshal(t *testing.T) {
	var y YesNo
	require.NoError(t, json.Unmarshal([]byte(`"Yes"`), &y))
	assert.True(t, bool(y))

	require.NoError(t, json.Unmarshal([]byte(`"no"`), &y))
	assert.False(t, bool(y))

	assert.Error(t, json.Unmarshal([]byte(`"maybe"`), &y))
}
