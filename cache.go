package tesseract

import (
	"encoding/binary"
	"slices"

	"github.com/hupe1980/tesseract/internal/cache"
)

// predictionCache maps canonical syndromes to predictions. Entries are
// cloned on the way in and out so callers may mutate their results.
type predictionCache struct {
	lru *cache.Sharded[string, *Prediction]
}

func newPredictionCache(capacity int) *predictionCache {
	if capacity <= 0 {
		return nil
	}
	return &predictionCache{lru: cache.NewSharded[string, *Prediction](capacity)}
}

// syndromeKey encodes the sorted syndrome as varints.
func syndromeKey(syndrome []int) string {
	sorted := slices.Clone(syndrome)
	slices.Sort(sorted)
	buf := make([]byte, 0, len(sorted)*2)
	for _, d := range sorted {
		buf = binary.AppendUvarint(buf, uint64(d))
	}
	return string(buf)
}

func (c *predictionCache) get(key string) (*Prediction, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (c *predictionCache) put(key string, p *Prediction) {
	if c == nil {
		return
	}
	c.lru.Set(key, p.Clone())
}
