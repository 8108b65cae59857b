package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jdevops/portal-login/internal/api/dto"
	"github.com/jdevops/portal-login/internal/service"
)

// CoursesHandler exposes enrollment endpoints for the authenticated caller.
type CoursesHandler struct {
	enrollment *service.EnrollmentService
}

// NewCoursesHandler constructs handler.
func NewCoursesHandler(enrollment *service.EnrollmentService) *CoursesHandler {
	return &CoursesHandler{enrollment: enrollment}
}

// Join handles POST /api/courses/:courseId/join.
func (h *CoursesHandler) Join(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	membership, err := h.enrollment.JoinCourse(c.UserContext(), p.Email, c.Params("courseId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMembershipResponse(membership)})
}

// Leave handles DELETE /api/courses/:courseId/leave.
func (h *CoursesHandler) Leave(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.enrollment.LeaveCourse(c.UserContext(), c.Params("courseId"), p.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "left"})
}

// Members handles GET /api/courses/code/:courseCode/members.
func (h *CoursesHandler) Members(c *fiber.Ctx) error {
	code := c.Params("courseCode")
	members, err := h.enrollment.CourseMembers(c.UserContext(), code)
	if err != nil {
		return err
	}
	return c.JSON(dto.CourseMembersResponse{CourseCode: code, Members: members})
}
