package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/api/dto"
	"github.com/jdevops/portal-login/internal/service"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints for the authenticated caller.
type UsersHandler struct {
	users      *service.UserService
	enrollment *service.EnrollmentService
	auth       *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, enrollment *service.EnrollmentService, authService *service.AuthService) *UsersHandler {
	return &UsersHandler{users: users, enrollment: enrollment, auth: authService}
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.users.Info(c.UserContext(), p.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserInfoResponse(user)})
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserInfoResponses(users)})
}

// Get handles GET /api/users/:email.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperrors.NewValidationError("invalid email", nil)
	}
	user, err := h.users.Info(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserInfoResponse(user)})
}

// Courses handles GET /api/users/me/courses.
func (h *UsersHandler) Courses(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	courses, err := h.enrollment.UserCourses(c.UserContext(), p.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserCourseResponses(courses)})
}

// Delete handles DELETE /api/users/me and clears the auth cookies.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.UserContext(), p.Email); err != nil {
		return err
	}
	for _, ck := range h.auth.LogoutCookies() {
		setCookie(c, ck)
	}
	return c.SendStatus(http.StatusNoContent)
}
