package auth

import (
	"math"
	"strings"
	"time"
)

// expiredCookieDate matches the date browsers treat as "delete now".
var expiredCookieDate = time.Date(2009, time.November, 10, 23, 0, 0, 0, time.UTC)

// CookiePolicy holds the security attributes applied to every auth cookie.
type CookiePolicy struct {
	Secure   bool
	SameSite string
	Path     string
	Domain   string
}

// Cookie is a transport-neutral Set-Cookie description. The HTTP layer
// applies it to the response.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	MaxAge   int
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Cookie renders a token cookie whose Max-Age is the token's remaining life.
func (tm *TokenManager) Cookie(name, value string, expiresAt time.Time) Cookie {
	return tm.cookies.render(name, value, expiresAt, tm.now())
}

// ClearCookie renders a cookie that overwrites and expires name.
func (tm *TokenManager) ClearCookie(name string) Cookie {
	c := tm.cookies.render(name, "", time.Time{}, tm.now())
	c.MaxAge = -1
	c.Expires = expiredCookieDate
	return c
}

// ForwardCookie renders a cookie for a cooperating origin under a different
// path and domain than the API cookies.
func (tm *TokenManager) ForwardCookie(name, value, domain string, expiresAt time.Time) Cookie {
	policy := tm.cookies
	policy.Path = "/"
	policy.Domain = domain
	return policy.render(name, value, expiresAt, tm.now())
}

func (p CookiePolicy) render(name, value string, expiresAt, now time.Time) Cookie {
	path := p.Path
	if path == "" {
		path = "/"
	}
	maxAge := 0
	if !expiresAt.IsZero() {
		maxAge = int(math.Ceil(expiresAt.Sub(now).Seconds()))
		if maxAge < 0 {
			maxAge = 0
		}
	}
	return Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   p.Domain,
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   p.Secure,
		SameSite: normalizeSameSite(p.SameSite),
	}
}

func normalizeSameSite(value string) string {
	switch strings.ToLower(value) {
	case "lax":
		return "Lax"
	case "none":
		return "None"
	default:
		return "Strict"
	}
}
