package domain

import "time"

// Course is a class offering; Code plus Clss identifies a section.
type Course struct {
	ID        string
	Name      string
	Code      string
	Professor string
	Year      int
	Term      int
	Clss      int
	CreatedAt time.Time
}

// CourseMembership is the authoritative enrollment row for a user in a course.
type CourseMembership struct {
	ID           string
	UserID       string
	CourseID     string
	CourseCode   string
	JcodeEnabled bool
	CreatedAt    time.Time
}

// Workspace is a provisioned JCode environment bound to one membership.
type Workspace struct {
	ID           string
	MembershipID string
	UserID       string
	CourseID     string
	URL          string
	CreatedAt    time.Time
}

// UserCourse is a course as seen from one member.
type UserCourse struct {
	Course       Course
	JcodeEnabled bool
	WorkspaceURL *string
}
