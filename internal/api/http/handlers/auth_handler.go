package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/api/dto"
	"github.com/jdevops/portal-login/internal/service"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

// AuthHandler exposes signup, login and token renewal endpoints.
type AuthHandler struct {
	auth          *service.AuthService
	refreshCookie string
	accessCookie  string
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, refreshCookie, accessCookie string) *AuthHandler {
	return &AuthHandler{auth: authService, refreshCookie: refreshCookie, accessCookie: accessCookie}
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	_, err := h.auth.Signup(c.UserContext(), service.SignupInput{
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		StudentNum: req.StudentNum,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).SendString("Signup successful")
}

// Login handles POST /api/auth/login/basic.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	session, err := h.auth.BasicLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	setCookie(c, session.RefreshCookie)
	return c.JSON(dto.LoginResponse{Token: session.Access.Value})
}

// Token handles GET /api/auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	token, err := h.auth.AccessToken(c.Get(fiber.HeaderAuthorization), c.Cookies(h.accessCookie))
	if err != nil {
		return err
	}
	return c.JSON(dto.AccessTokenResponse{AccessToken: token})
}

// Refresh handles POST /api/auth/refresh. Failures use a flat
// {"error": "..."} body that clients match on.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	session, err := h.auth.Refresh(c.UserContext(), c.Cookies(h.refreshCookie))
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus >= http.StatusInternalServerError {
			return err
		}
		return c.Status(domainErr.HTTPStatus).JSON(dto.ErrorMessage{Error: domainErr.Message})
	}
	setCookie(c, session.RefreshCookie)
	return c.JSON(dto.AccessTokenResponse{AccessToken: session.Access.Value})
}

// Logout handles POST /api/auth/logout by expiring both auth cookies.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	for _, ck := range h.auth.LogoutCookies() {
		setCookie(c, ck)
	}
	return c.SendStatus(http.StatusNoContent)
}
