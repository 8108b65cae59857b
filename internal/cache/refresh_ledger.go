package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshLedger remembers refresh token ids that were already rotated out so
// a replayed refresh token can be detected.
type RefreshLedger struct {
	client *redis.Client
	prefix string
}

// NewRefreshLedger builds a ledger whose keys all start with prefix.
func NewRefreshLedger(client *redis.Client, prefix string) *RefreshLedger {
	return &RefreshLedger{client: client, prefix: prefix}
}

// MarkRotated records jti as spent for ttl. It returns true the first time a
// given jti is marked and false on every later call.
func (l *RefreshLedger) MarkRotated(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return l.client.SetNX(ctx, l.prefix+"refresh:rotated:"+jti, 1, ttl).Result()
}
