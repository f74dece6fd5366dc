package tiles

import (
	"fmt"
	"image"
	_ "image/png"
	"log/slog"

	"gioui.org/op/paint"
)

// TileProvider produces the raster for a single tile address.
type TileProvider interface {
	GetTile(tile Tile) (image.Image, error)
}

// TileManager caches tiles from a provider. A failed load is returned as an
// error and nothing is cached for that address; the renderer leaves a gap
// and there is no retry beyond the next natural lookup.
type TileManager struct {
	cache    Cache
	provider TileProvider
	log      *slog.Logger
	onLoad   func()
}

func NewTileManager(provider TileProvider, cacheType CacheType, log *slog.Logger) *TileManager {
	var cache Cache
	switch cacheType {
	case CacheImageOp:
		cache = NewImageOpCache()
	default:
		cache = NewImageCache()
	}
	if log == nil {
		log = slog.Default()
	}
	return &TileManager{
		cache:    cache,
		provider: provider,
		log:      log,
	}
}

func (tm *TileManager) GetCache() Cache { return tm.cache }

// SetOnLoadCallback registers a hook invoked after a tile arrives from the
// provider, typically to invalidate the window.
func (tm *TileManager) SetOnLoadCallback(callback func()) {
	tm.onLoad = callback
}

// GetTileKey returns the unique z/x/y cache key for a tile.
func GetTileKey(tile Tile) string {
	return fmt.Sprintf("%d/%d/%d", tile.Z, tile.X, tile.Y)
}

func (tm *TileManager) GetTile(tile Tile) (image.Image, error) {
	key := GetTileKey(tile)

	if cached, exists := tm.cache.Get(key); exists {
		switch tm.cache.GetType() {
		case CacheImage:
			if img, ok := cached.(image.Image); ok {
				return img, nil
			}
		case CacheImageOp:
			// The original image cannot be extracted from an ImageOp;
			// ask the provider again (it is usually cheap or cached).
			if _, ok := cached.(paint.ImageOp); ok {
				return tm.provider.GetTile(tile)
			}
		}
	}

	img, err := tm.provider.GetTile(tile)
	if err != nil {
		tm.log.Warn("tile load failed", "tile", key, "error", err)
		return nil, err
	}

	switch tm.cache.GetType() {
	case CacheImage:
		tm.cache.Set(key, img)
	case CacheImageOp:
		tm.cache.Set(key, paint.NewImageOp(img))
	}

	if tm.onLoad != nil {
		tm.onLoad()
	}
	return img, nil
}
