package model

import (
	"sync"
	"time"
)

// IDGenerator hands out millisecond-based ids that never repeat, even when
// called several times within the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Seed makes later ids larger than every id already in use.
func (g *IDGenerator) Seed(ids ...int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if id > g.last {
			g.last = id
		}
	}
}

func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
