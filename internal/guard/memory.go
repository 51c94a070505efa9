package guard

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is the default single-process lock map. It does not
// coordinate across instances; the storage-backed dedupe window in the
// clone service is the second line of defense.
type MemoryGuard struct {
	mu      sync.Mutex
	ttl     time.Duration
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{
		ttl:     ttl,
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (g *MemoryGuard) TryAcquire(ctx context.Context, key string) (bool, error) {
	_ = ctx
	now := g.now()
	g.mu.Lock()
	defer g.mu.Unlock()
	if expiry, held := g.expires[key]; held && now.Before(expiry) {
		return false, nil
	}
	g.expires[key] = now.Add(g.ttl)
	return true, nil
}

func (g *MemoryGuard) Release(ctx context.Context, key string) error {
	_ = ctx
	g.mu.Lock()
	delete(g.expires, key)
	g.mu.Unlock()
	return nil
}

// Sweep drops expired entries so keys from crashed operations do not
// accumulate. Normal completions release explicitly and never reach here.
func (g *MemoryGuard) Sweep() {
	now := g.now()
	g.mu.Lock()
	for key, expiry := range g.expires {
		if !now.Before(expiry) {
			delete(g.expires, key)
		}
	}
	g.mu.Unlock()
}
