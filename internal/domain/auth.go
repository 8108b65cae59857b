package domain

import "strings"

// Role is the portal role carried in token claims.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleAssistant Role = "ASSISTANT"
	RoleProfessor Role = "PROFESSOR"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole normalizes a role name. An empty value means STUDENT.
func ParseRole(value string) (Role, bool) {
	switch role := Role(strings.ToUpper(strings.TrimSpace(value))); role {
	case "":
		return RoleStudent, true
	case RoleStudent, RoleAssistant, RoleProfessor, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}

// TokenKind differentiates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)
