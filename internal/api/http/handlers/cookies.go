package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/auth"
)

func setCookie(c *fiber.Ctx, ck auth.Cookie) {
	c.Cookie(&fiber.Cookie{
		Name:     ck.Name,
		Value:    ck.Value,
		Path:     ck.Path,
		Domain:   ck.Domain,
		MaxAge:   ck.MaxAge,
		Expires:  ck.Expires,
		Secure:   ck.Secure,
		HTTPOnly: ck.HTTPOnly,
		SameSite: ck.SameSite,
	})
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthenticated")
	}
	return p, nil
}
