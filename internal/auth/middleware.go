package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/domain"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as stated by its access token.
type Principal struct {
	Email   string
	UserID  string
	Role    domain.Role
	TokenID string
}

// AuthMiddleware validates access tokens from the bearer header or the
// access cookie. The store is not consulted; a token stays valid until expiry.
type AuthMiddleware struct {
	tokens       *TokenManager
	accessCookie string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, accessCookie string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accessCookie: accessCookie}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw, ok := ParseBearer(c.Get(fiber.HeaderAuthorization))
	if !ok && m.accessCookie != "" {
		raw = c.Cookies(m.accessCookie)
	}
	if raw == "" {
		return apperrors.NewUnauthorized("missing access token")
	}

	claims, err := m.tokens.Verify(raw)
	if err != nil || claims.Kind != domain.TokenKindAccess {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		Email:   claims.Subject,
		UserID:  claims.UserID,
		Role:    claims.Role,
		TokenID: claims.ID,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
