package dto

import (
	"time"

	"github.com/jdevops/portal-login/internal/domain"
)

// MembershipResponse describes a created enrollment.
type MembershipResponse struct {
	ID         string    `json:"id"`
	CourseID   string    `json:"courseId"`
	CourseCode string    `json:"courseCode"`
	Jcode      bool      `json:"jcode"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CourseMembersResponse lists member emails of a course code.
type CourseMembersResponse struct {
	CourseCode string   `json:"courseCode"`
	Members    []string `json:"members"`
}

// UserCourseResponse is one entry of the caller's course list.
type UserCourseResponse struct {
	CourseID  string  `json:"courseId"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Professor string  `json:"professor"`
	Year      int     `json:"year"`
	Term      int     `json:"term"`
	Clss      int     `json:"clss"`
	Jcode     bool    `json:"jcode"`
	JcodeURL  *string `json:"jcodeUrl,omitempty"`
}

// NewMembershipResponse maps a domain membership.
func NewMembershipResponse(m *domain.CourseMembership) MembershipResponse {
	return MembershipResponse{
		ID:         m.ID,
		CourseID:   m.CourseID,
		CourseCode: m.CourseCode,
		Jcode:      m.JcodeEnabled,
		CreatedAt:  m.CreatedAt,
	}
}

// NewUserCourseResponses maps the caller's courses.
func NewUserCourseResponses(courses []domain.UserCourse) []UserCourseResponse {
	out := make([]UserCourseResponse, 0, len(courses))
	for _, uc := range courses {
		out = append(out, UserCourseResponse{
			CourseID:  uc.Course.ID,
			Name:      uc.Course.Name,
			Code:      uc.Course.Code,
			Professor: uc.Course.Professor,
			Year:      uc.Course.Year,
			Term:      uc.Course.Term,
			Clss:      uc.Course.Clss,
			Jcode:     uc.JcodeEnabled,
			JcodeURL:  uc.WorkspaceURL,
		})
	}
	return out
}
