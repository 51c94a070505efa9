package guard

import (
	"context"
	"strings"
)

// Guard serializes copy operations for a (user, source list) pair. A held
// key rejects further acquisitions until it is released or its TTL lapses.
// The TTL is a safety net for crashed operations, not the release path.
type Guard interface {
	TryAcquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

func Key(userID, listID string) string {
	return strings.Join([]string{userID, listID}, "|")
}
