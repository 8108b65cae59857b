package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/jdevops/portal-login/internal/auth"
	"github.com/jdevops/portal-login/internal/config"
	"github.com/jdevops/portal-login/internal/domain"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

// RedirectService hands an authenticated caller over to the downstream
// execution service by forwarding its bearer token in a cookie.
type RedirectService struct {
	tokens       *auth.TokenManager
	baseURL      string
	cookieName   string
	cookieDomain string
}

// RedirectResult is what the HTTP layer applies to the response.
type RedirectResult struct {
	Location string
	Cookie   auth.Cookie
}

// NewRedirectService builds the service.
func NewRedirectService(cfg config.RedirectConfig, tokens *auth.TokenManager) *RedirectService {
	return &RedirectService{
		tokens:       tokens,
		baseURL:      cfg.NodeURL,
		cookieName:   cfg.ForwardCookieName,
		cookieDomain: cfg.ForwardCookieDomain,
	}
}

// Redirect validates the bearer header and builds the downstream URL and
// forwarding cookie. Cookie-borne tokens are not accepted here.
func (s *RedirectService) Redirect(authorization, courseCode string, clss int, studentID string) (*RedirectResult, error) {
	raw, ok := auth.ParseBearer(authorization)
	if !ok {
		return nil, apperrors.NewUnauthorized("authorization header required")
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil || claims.Kind != domain.TokenKindAccess {
		return nil, apperrors.NewUnauthorized("invalid access token")
	}

	return &RedirectResult{
		Location: buildRedirectURL(s.baseURL, courseCode, clss, studentID),
		Cookie:   s.tokens.ForwardCookie(s.cookieName, raw, s.cookieDomain, claims.ExpiresAt.Time),
	}, nil
}

func buildRedirectURL(base, courseCode string, clss int, studentID string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep +
		"courseCode=" + escapeQueryValue(courseCode) +
		"&clss=" + strconv.Itoa(clss) +
		"&st=" + escapeQueryValue(studentID)
}

// escapeQueryValue percent-encodes v so the result never holds a literal
// '+': a plus becomes %2B and a space becomes %20.
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
