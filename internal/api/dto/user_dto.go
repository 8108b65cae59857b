package dto

import (
	"time"

	"github.com/jdevops/portal-login/internal/domain"
)

// UserInfoResponse describes the authenticated account.
type UserInfoResponse struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"role"`
	StudentNum *string     `json:"studentNum,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// NewUserInfoResponse maps a domain user.
func NewUserInfoResponse(u *domain.User) UserInfoResponse {
	return UserInfoResponse{
		ID:         u.ID,
		Email:      u.Email,
		Role:       u.Role,
		StudentNum: u.StudentNum,
		CreatedAt:  u.CreatedAt,
	}
}

// NewUserInfoResponses maps a list of users.
func NewUserInfoResponses(users []domain.User) []UserInfoResponse {
	out := make([]UserInfoResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserInfoResponse(&users[i]))
	}
	return out
}
