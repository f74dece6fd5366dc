package tiles

import (
	"image"
	"sync"

	"gioui.org/op/paint"
)

type CacheType int

const (
	CacheImage CacheType = iota
	CacheImageOp
)

// Cache stores decoded tiles keyed by their z/x/y address string.
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Clear()
	GetType() CacheType
}

// ImageCache keeps decoded image.Image tiles.
type ImageCache struct {
	mu    sync.RWMutex
	cache map[string]image.Image
}

func NewImageCache() *ImageCache {
	return &ImageCache{cache: make(map[string]image.Image)}
}

func (c *ImageCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.cache[key]
	return val, ok
}

func (c *ImageCache) Set(key string, value interface{}) {
	if img, ok := value.(image.Image); ok {
		c.mu.Lock()
		c.cache[key] = img
		c.mu.Unlock()
	}
}

func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.cache = make(map[string]image.Image)
	c.mu.Unlock()
}

func (c *ImageCache) GetType() CacheType { return CacheImage }

// ImageOpCache keeps tiles pre-uploaded as paint.ImageOp, avoiding a
// per-frame conversion in the render loop.
type ImageOpCache struct {
	mu    sync.RWMutex
	cache map[string]paint.ImageOp
}

func NewImageOpCache() *ImageOpCache {
	return &ImageOpCache{cache: make(map[string]paint.ImageOp)}
}

func (c *ImageOpCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.cache[key]
	return val, ok
}

func (c *ImageOpCache) Set(key string, value interface{}) {
	if op, ok := value.(paint.ImageOp); ok {
		c.mu.Lock()
		c.cache[key] = op
		c.mu.Unlock()
	}
}

func (c *ImageOpCache) Clear() {
	c.mu.Lock()
	c.cache = make(map[string]paint.ImageOp)
	c.mu.Unlock()
}

func (c *ImageOpCache) GetType() CacheType { return CacheImageOp }
