package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdevops/portal-login/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered       EventType = "user_registered"
	EventUserDeleted          EventType = "user_deleted"
	EventLoginSucceeded       EventType = "login_succeeded"
	EventLoginFailed          EventType = "login_failed"
	EventTokenRefreshed       EventType = "token_refreshed"
	EventRefreshReuseDetected EventType = "refresh_reuse_detected"
	EventCourseJoined         EventType = "course_joined"
	EventCourseLeft           EventType = "course_left"
	EventCacheSyncFailed      EventType = "cache_sync_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subject string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// TokenRefreshedPayload payload.
type TokenRefreshedPayload struct {
	PreviousTokenID string `json:"previous_token_id"`
	NewTokenID      string `json:"new_token_id"`
}

// RefreshReuseDetectedPayload payload.
type RefreshReuseDetectedPayload struct {
	TokenID string `json:"token_id"`
}

// CourseMembershipPayload is shared by join and leave events.
type CourseMembershipPayload struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
}

// CacheSyncFailedPayload payload.
type CacheSyncFailedPayload struct {
	Operation  string `json:"operation"`
	CourseCode string `json:"course_code,omitempty"`
	Error      string `json:"error"`
}
