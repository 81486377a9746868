package app

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Deduper remembers recently relayed keys for a bounded window.
// A nil *Deduper never reports a repeat.
type Deduper struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

func NewDeduper(size int, window time.Duration) *Deduper {
	return &Deduper{cache: expirable.NewLRU[string, struct{}](size, nil, window)}
}

// Seen records key and reports whether it was already present.
func (d *Deduper) Seen(key string) bool {
	if d == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cache.Get(key); ok {
		return true
	}
	d.cache.Add(key, struct{}{})
	return false
}
