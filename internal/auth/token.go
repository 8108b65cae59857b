package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jdevops/portal-login/internal/domain"
)

// Verification outcomes. Callers at the HTTP boundary collapse all of them
// into a single 401.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
)

// TokenConfig is the immutable codec configuration, loaded once at startup.
type TokenConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Cookies    CookiePolicy
}

// TokenManager signs and verifies HS256 tokens. It holds no mutable state
// and is safe for concurrent use.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	cookies    CookiePolicy
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		cookies:    cfg.Cookies,
		now:        time.Now,
	}
}

// WithClock returns a copy of the manager reading time from now.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *tm
	clone.now = now
	return &clone
}

// Claims describes JWT payload. Subject carries the user's email.
type Claims struct {
	UserID string           `json:"uid"`
	Role   domain.Role      `json:"role"`
	Kind   domain.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token and the metadata needed to render it.
type IssuedToken struct {
	Value     string
	ID        string
	Kind      domain.TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TTL returns the lifetime for the given token kind.
func (tm *TokenManager) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenKindRefresh {
		return tm.refreshTTL
	}
	return tm.accessTTL
}

// Issue builds and signs a token for the subject.
func (tm *TokenManager) Issue(subject, userID string, role domain.Role, kind domain.TokenKind) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("token subject required")
	}
	if kind != domain.TokenKindAccess && kind != domain.TokenKindRefresh {
		return IssuedToken{}, fmt.Errorf("unknown token kind %q", kind)
	}

	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.TTL(kind))
	id := uuid.NewString()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   subject,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{
		Value:     tokenString,
		ID:        id,
		Kind:      kind,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates signature and expiry and returns the claims. The returned
// error always wraps one of ErrMalformed, ErrSignatureInvalid or ErrExpired.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if claims.Kind != domain.TokenKindAccess && claims.Kind != domain.TokenKindRefresh {
		return nil, fmt.Errorf("%w: unknown token type", ErrMalformed)
	}
	return claims, nil
}

// Remaining reports how long the claims stay valid.
func (tm *TokenManager) Remaining(claims *Claims) time.Duration {
	if claims == nil || claims.ExpiresAt == nil {
		return 0
	}
	remaining := claims.ExpiresAt.Time.Sub(tm.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
