package media

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultAspectCacheSize bounds the number of remembered aspect ratios
const DefaultAspectCacheSize = 512

// Dimensions is the natural size of an image
type Dimensions struct {
	Width  int
	Height int
}

// Aspect returns width/height, or 0 when either side is unknown
func (d Dimensions) Aspect() float64 {
	if d.Width <= 0 || d.Height <= 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// AspectCache remembers aspect ratios per media ref with LRU eviction
type AspectCache struct {
	cache *lru.Cache[string, float64]
}

// NewAspectCache creates a cache holding at most size entries. A
// non-positive size uses DefaultAspectCacheSize.
func NewAspectCache(size int) (*AspectCache, error) {
	if size <= 0 {
		size = DefaultAspectCacheSize
	}
	c, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("error creating aspect cache: %w", err)
	}
	return &AspectCache{cache: c}, nil
}

// Put stores aspect for ref. Unknown aspects are ignored. It reports
// whether the stored value changed.
func (a *AspectCache) Put(ref string, aspect float64) bool {
	if ref == "" || !(aspect > 0) || math.IsInf(aspect, 0) {
		return false
	}
	if old, ok := a.cache.Peek(ref); ok && old == aspect {
		return false
	}
	a.cache.Add(ref, aspect)
	return true
}

// Get returns the aspect for ref, or 0 when unknown
func (a *AspectCache) Get(ref string) float64 {
	v, _ := a.cache.Get(ref)
	return v
}

// Contains reports whether ref has a known aspect without touching recency
func (a *AspectCache) Contains(ref string) bool {
	return a.cache.Contains(ref)
}

// Len returns the number of cached entries
func (a *AspectCache) Len() int {
	return a.cache.Len()
}
