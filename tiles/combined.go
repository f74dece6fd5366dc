package tiles

import (
	"fmt"
	"image"
	"sync"
)

// CombinedTileProvider serves fallback tiles while the primary provider
// loads in the background. This is an opt-in development mode; the default
// pipeline intentionally leaves a gap on failed loads instead.
type CombinedTileProvider struct {
	primary  TileProvider
	fallback TileProvider

	loadingMu sync.RWMutex
	loading   map[string]bool

	cacheMu sync.RWMutex
	cache   map[string]image.Image

	onLoadFunc func()
}

func NewCombinedTileProvider(primary, fallback TileProvider) *CombinedTileProvider {
	return &CombinedTileProvider{
		primary:  primary,
		fallback: fallback,
		loading:  make(map[string]bool),
		cache:    make(map[string]image.Image),
	}
}

// SetOnLoadCallback registers a hook invoked when a background primary load
// completes and a repaint is needed.
func (p *CombinedTileProvider) SetOnLoadCallback(callback func()) {
	p.onLoadFunc = callback
}

func (p *CombinedTileProvider) GetTile(tile Tile) (image.Image, error) {
	key := GetTileKey(tile)

	p.cacheMu.RLock()
	if cached, exists := p.cache[key]; exists {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	primaryImg, err := p.primary.GetTile(tile)
	if err == nil {
		p.cacheMu.Lock()
		p.cache[key] = primaryImg
		p.cacheMu.Unlock()
		return primaryImg, nil
	}

	fallbackImg, err := p.fallback.GetTile(tile)
	if err != nil {
		return nil, fmt.Errorf("both primary and fallback providers failed: %w", err)
	}

	p.loadingMu.RLock()
	isLoading := p.loading[key]
	p.loadingMu.RUnlock()

	if !isLoading {
		p.loadingMu.Lock()
		p.loading[key] = true
		p.loadingMu.Unlock()

		go func() {
			if img, err := p.primary.GetTile(tile); err == nil {
				p.cacheMu.Lock()
				p.cache[key] = img
				p.cacheMu.Unlock()

				if p.onLoadFunc != nil {
					p.onLoadFunc()
				}
			}

			p.loadingMu.Lock()
			delete(p.loading, key)
			p.loadingMu.Unlock()
		}()
	}

	return fallbackImg, nil
}
