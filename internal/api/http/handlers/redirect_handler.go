package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/service"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

// RedirectHandler forwards callers to the downstream execution service.
type RedirectHandler struct {
	redirects *service.RedirectService
}

// NewRedirectHandler constructs handler.
func NewRedirectHandler(redirects *service.RedirectService) *RedirectHandler {
	return &RedirectHandler{redirects: redirects}
}

// Redirect handles GET /api/redirect?courseCode=&clss=&st=.
func (h *RedirectHandler) Redirect(c *fiber.Ctx) error {
	clss, err := strconv.Atoi(c.Query("clss"))
	if err != nil {
		return apperrors.NewValidationError("clss must be an integer", map[string]any{"clss": c.Query("clss")})
	}

	result, err := h.redirects.Redirect(c.Get(fiber.HeaderAuthorization), c.Query("courseCode"), clss, c.Query("st"))
	if err != nil {
		return err
	}
	setCookie(c, result.Cookie)
	return c.Redirect(result.Location, fiber.StatusFound)
}
