package tiles

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int64
	fail  bool
}

func (p *countingProvider) GetTile(tile Tile) (image.Image, error) {
	p.calls.Add(1)
	if p.fail {
		return nil, errors.New("boom")
	}
	return image.NewRGBA(image.Rect(0, 0, TileSize, TileSize)), nil
}

func TestGetTileKey(t *testing.T) {
	assert.Equal(t, "14/8718/5684", GetTileKey(Tile{X: 8718, Y: 5684, Z: 14}))
}

func TestTileManagerCachesTiles(t *testing.T) {
	provider := &countingProvider{}
	tm := NewTileManager(provider, CacheImage, nil)

	tile := Tile{X: 1, Y: 2, Z: 3}
	_, err := tm.GetTile(tile)
	require.NoError(t, err)
	_, err = tm.GetTile(tile)
	require.NoError(t, err)

	assert.Equal(t, int64(1), provider.calls.Load())

	_, ok := tm.GetCache().Get(GetTileKey(tile))
	assert.True(t, ok)
}

func TestTileManagerFailedLoadNotCached(t *testing.T) {
	provider := &countingProvider{fail: true}
	tm := NewTileManager(provider, CacheImage, nil)

	tile := Tile{X: 1, Y: 2, Z: 3}
	_, err := tm.GetTile(tile)
	require.Error(t, err)

	// No cache entry and no load notification for failures; the next
	// lookup asks the provider again.
	_, ok := tm.GetCache().Get(GetTileKey(tile))
	assert.False(t, ok)
	_, err = tm.GetTile(tile)
	require.Error(t, err)
	assert.Equal(t, int64(2), provider.calls.Load())
}

func TestTileManagerOnLoadCallback(t *testing.T) {
	provider := &countingProvider{}
	tm := NewTileManager(provider, CacheImage, nil)

	loads := 0
	tm.SetOnLoadCallback(func() { loads++ })

	tile := Tile{X: 0, Y: 0, Z: 0}
	_, err := tm.GetTile(tile)
	require.NoError(t, err)
	_, err = tm.GetTile(tile)
	require.NoError(t, err)

	// Only the provider load fires the callback, not cache hits.
	assert.Equal(t, 1, loads)
}

func TestPlaceholderProviderDeterministic(t *testing.T) {
	provider := NewPlaceholderTileProvider()
	tile := Tile{X: 5, Y: 6, Z: 7}

	first, err := provider.GetTile(tile)
	require.NoError(t, err)
	second, err := provider.GetTile(tile)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, TileSize, TileSize), first.Bounds())
	assert.Equal(t, encodePNG(t, first), encodePNG(t, second))
}

func TestCombinedProviderFallsBack(t *testing.T) {
	failing := &countingProvider{fail: true}
	provider := NewCombinedTileProvider(failing, NewPlaceholderTileProvider())

	img, err := provider.GetTile(Tile{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	assert.Equal(t, TileSize, img.Bounds().Dx())
}

func TestCombinedProviderPrefersPrimary(t *testing.T) {
	primary := &countingProvider{}
	provider := NewCombinedTileProvider(primary, NewPlaceholderTileProvider())

	tile := Tile{X: 2, Y: 2, Z: 2}
	_, err := provider.GetTile(tile)
	require.NoError(t, err)
	_, err = provider.GetTile(tile)
	require.NoError(t, err)

	// Second call is served from the combined provider's own cache.
	assert.Equal(t, int64(1), primary.calls.Load())
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
