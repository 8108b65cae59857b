package dto

// SignupRequest payload for new accounts.
type SignupRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	StudentNum *string `json:"studentNum,omitempty"`
}

// LoginRequest payload for basic login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the access token; the refresh token is a cookie.
type LoginResponse struct {
	Token string `json:"token"`
}

// AccessTokenResponse is returned by the token and refresh endpoints.
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// ErrorMessage is the flat error body of the refresh endpoint.
type ErrorMessage struct {
	Error string `json:"error"`
}
