package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/domain"
	"github.com/jdevops/portal-login/internal/events"
	"github.com/jdevops/portal-login/internal/observability"
	"github.com/jdevops/portal-login/internal/repository"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

// UserService serves account queries for the authenticated caller.
type UserService struct {
	store      repository.Store
	cache      MembershipCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewUserService builds the service. cache may be nil.
func NewUserService(store repository.Store, cache MembershipCache, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	return &UserService{
		store:      store,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     observability.Component(logger, "users"),
	}
}

// Info returns the identity registered under email.
func (s *UserService) Info(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// List returns every registered identity ordered by email.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// DeleteUser removes the identity; credential and memberships cascade in the
// store. Outstanding tokens stay valid until they expire.
func (s *UserService) DeleteUser(ctx context.Context, email string) error {
	user, err := s.Info(ctx, email)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		return tx.Users().Delete(ctx, user.ID)
	})
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if s.cache != nil {
		if err := s.cache.RemoveEverywhere(ctx, user.Email); err != nil {
			s.logger.Warn("membership cache eviction failed", zap.String("email", user.Email), zap.Error(err))
			publish(ctx, s.dispatcher, s.logger, events.New(events.EventCacheSyncFailed, user.Email,
				events.CacheSyncFailedPayload{Operation: "remove_everywhere", Error: err.Error()}))
		}
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserDeleted, user.Email, nil))
	return nil
}
