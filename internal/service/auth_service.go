package service

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/auth"
	"github.com/jdevops/portal-login/internal/config"
	"github.com/jdevops/portal-login/internal/domain"
	"github.com/jdevops/portal-login/internal/events"
	"github.com/jdevops/portal-login/internal/observability"
	"github.com/jdevops/portal-login/internal/repository"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

const invalidCredentials = "invalid credentials"

// AuthService coordinates registration, login and token renewal. It keeps no
// per-session state; every call is validated from the presented token alone.
type AuthService struct {
	store          repository.Store
	tokens         *auth.TokenManager
	hasher         auth.PasswordHasher
	ledger         RefreshLedger
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	refreshCookie  string
	accessCookie   string
	minPassword    int
	reuseDetection bool
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Store      repository.Store
	Tokens     *auth.TokenManager
	Hasher     auth.PasswordHasher
	Ledger     RefreshLedger
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// SignupInput is the registration payload.
type SignupInput struct {
	Email      string
	Password   string
	Role       string
	StudentNum *string
}

// Session is the outcome of a login or refresh. The access token goes in the
// response body and the refresh token only ever travels as RefreshCookie.
type Session struct {
	User          *domain.User
	Access        auth.IssuedToken
	Refresh       auth.IssuedToken
	RefreshCookie auth.Cookie
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	}
	return &AuthService{
		store:          deps.Store,
		tokens:         deps.Tokens,
		hasher:         hasher,
		ledger:         deps.Ledger,
		dispatcher:     deps.Dispatcher,
		logger:         observability.Component(deps.Logger, "auth"),
		refreshCookie:  cfg.Cookie.RefreshName,
		accessCookie:   cfg.Cookie.AccessName,
		minPassword:    cfg.Auth.MinPasswordLength,
		reuseDetection: cfg.Auth.RefreshReuseDetection,
	}
}

// Signup creates an identity and its credential in one transaction.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	if len(in.Password) < s.minPassword {
		return nil, apperrors.NewValidationError("password too short", map[string]any{
			"min_length": s.minPassword,
		})
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": in.Role})
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{Email: email, Role: role, StudentNum: in.StudentNum}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return tx.Credentials().Create(ctx, &domain.Credential{UserID: user.ID, PasswordHash: hash})
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, emailTaken()
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.Email,
		events.UserRegisteredPayload{UserID: user.ID, Role: user.Role}))
	return user, nil
}

// BasicLogin checks email and secret and issues an access/refresh pair. An
// unknown email and a wrong secret fail identically.
func (s *AuthService) BasicLogin(ctx context.Context, email, secret string) (*Session, error) {
	email = normalizeEmail(email)

	user, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.loginFailed(ctx, email, "unknown email")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	cred, err := s.store.Credentials().GetByUserID(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.loginFailed(ctx, email, "no credential")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.hasher.Compare(cred.PasswordHash, secret); err != nil {
		return nil, s.loginFailed(ctx, email, "password mismatch")
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventLoginSucceeded, user.Email, nil))
	return session, nil
}

// AccessToken returns the valid access token presented in the bearer header
// or, failing that, in the access cookie. It never refreshes.
func (s *AuthService) AccessToken(authorization, cookieValue string) (string, error) {
	raw, ok := auth.ParseBearer(authorization)
	if !ok {
		raw = cookieValue
	}
	if raw == "" {
		return "", apperrors.NewUnauthorized("missing access token")
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil || claims.Kind != domain.TokenKindAccess {
		return "", apperrors.NewUnauthorized("invalid access token")
	}
	return raw, nil
}

// Refresh validates the refresh cookie and issues a new access token plus a
// rotated refresh token that overwrites the presented one.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperrors.NewUnauthorized("refresh token required")
	}

	claims, err := s.tokens.Verify(refreshToken)
	if errors.Is(err, auth.ErrExpired) {
		return nil, apperrors.NewUnauthorized("refresh token expired")
	}
	if err != nil || claims.Kind != domain.TokenKindRefresh {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.store.Users().GetByEmail(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	// A deleted and re-registered email gets a new id; old tokens die with it.
	if claims.UserID != "" && claims.UserID != user.ID {
		return nil, apperrors.NewUnauthorized("invalid refresh token")
	}

	if s.reuseDetection && s.ledger != nil {
		first, err := s.ledger.MarkRotated(ctx, claims.ID, s.tokens.Remaining(claims))
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if !first {
			s.logger.Warn("refresh token replayed",
				zap.String("subject", claims.Subject),
				zap.String("token_id", claims.ID))
			publish(ctx, s.dispatcher, s.logger, events.New(events.EventRefreshReuseDetected, claims.Subject,
				events.RefreshReuseDetectedPayload{TokenID: claims.ID}))
			return nil, apperrors.NewUnauthorized("refresh token reuse detected")
		}
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventTokenRefreshed, user.Email,
		events.TokenRefreshedPayload{PreviousTokenID: claims.ID, NewTokenID: session.Refresh.ID}))
	return session, nil
}

// LogoutCookies returns cookies that clear both auth cookies.
func (s *AuthService) LogoutCookies() []auth.Cookie {
	return []auth.Cookie{
		s.tokens.ClearCookie(s.refreshCookie),
		s.tokens.ClearCookie(s.accessCookie),
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) issueSession(user *domain.User) (*Session, error) {
	access, err := s.tokens.Issue(user.Email, user.ID, user.Role, domain.TokenKindAccess)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	refresh, err := s.tokens.Issue(user.Email, user.ID, user.Role, domain.TokenKindRefresh)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{
		User:          user,
		Access:        access,
		Refresh:       refresh,
		RefreshCookie: s.tokens.Cookie(s.refreshCookie, refresh.Value, refresh.ExpiresAt),
	}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email, reason string) error {
	s.logger.Info("login rejected", zap.String("email", email), zap.String("reason", reason))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventLoginFailed, email,
		events.LoginFailedPayload{Reason: reason}))
	return apperrors.NewUnauthorized(invalidCredentials)
}

func emailTaken() error {
	return apperrors.NewDomainError("EMAIL_TAKEN", "email already registered", http.StatusBadRequest, nil)
}
