package imagepkg

import (
	"image"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memo remembers decoded logos across renders: at most size entries, each
// for ttl. A render session copies what it needs into its own LogoCache, so
// nothing is evicted mid-render. A nil *Memo is valid and remembers nothing.
type Memo struct {
	lru *expirable.LRU[string, image.Image]
}

// NewMemo returns nil when size or ttl is not positive.
func NewMemo(size int, ttl time.Duration) *Memo {
	if size <= 0 || ttl <= 0 {
		return nil
	}
	return &Memo{lru: expirable.NewLRU[string, image.Image](size, nil, ttl)}
}

func (m *Memo) Get(url string) (image.Image, bool) {
	if m == nil {
		return nil, false
	}
	return m.lru.Get(url)
}

func (m *Memo) Put(url string, img image.Image) {
	if m == nil {
		return
	}
	m.lru.Add(url, img)
}

func (m *Memo) Len() int {
	if m == nil {
		return 0
	}
	return m.lru.Len()
}
