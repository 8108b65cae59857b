package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/events"
)

// MembershipCache is the fast-path mirror of course membership. The store is
// authoritative; implementations are written to only after a store commit.
type MembershipCache interface {
	AddIfCached(ctx context.Context, courseCode, email string) (bool, error)
	Remove(ctx context.Context, courseCode, email string) error
	RemoveEverywhere(ctx context.Context, email string) error
	Members(ctx context.Context, courseCode string) ([]string, bool, error)
	IsMember(ctx context.Context, courseCode, email string) (bool, error)
	Replace(ctx context.Context, courseCode string, emails []string) error
}

// RefreshLedger records rotated-out refresh token ids.
type RefreshLedger interface {
	MarkRotated(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func publish(ctx context.Context, d events.Dispatcher, logger *zap.Logger, event events.Event) {
	if d == nil {
		return
	}
	if err := d.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}
