package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdevops/portal-login/internal/domain"
	"github.com/jdevops/portal-login/internal/events"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

func TestSignupLoginRefreshKeepsSubject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.signup(t, "a@x.com", "longpassword1")
	assert.Equal(t, domain.RoleStudent, user.Role)

	session, err := env.auth.BasicLogin(ctx, "a@x.com", "longpassword1")
	require.NoError(t, err)

	claims, err := env.tokens.Verify(session.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.Equal(t, domain.TokenKindAccess, claims.Kind)

	assert.Equal(t, "jwt_auth", session.RefreshCookie.Name)
	assert.Equal(t, session.Refresh.Value, session.RefreshCookie.Value)
	assert.True(t, session.RefreshCookie.HTTPOnly)
	assert.Equal(t, int((24 * time.Hour).Seconds()), session.RefreshCookie.MaxAge)

	env.now = env.now.Add(time.Minute)
	refreshed, err := env.auth.Refresh(ctx, session.RefreshCookie.Value)
	require.NoError(t, err)
	assert.NotEqual(t, session.Refresh.ID, refreshed.Refresh.ID)

	claims, err = env.tokens.Verify(refreshed.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)

	claims, err = env.tokens.Verify(refreshed.RefreshCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Subject)
	assert.Equal(t, domain.TokenKindRefresh, claims.Kind)

	assert.Len(t, env.eventsOf(events.EventTokenRefreshed), 1)
}

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "taken@x.com", "longpassword1")

	tests := []struct {
		name string
		in   SignupInput
		code string
	}{
		{"short password", SignupInput{Email: "b@x.com", Password: "short"}, "VALIDATION_FAILED"},
		{"missing email", SignupInput{Email: "  ", Password: "longpassword1"}, "VALIDATION_FAILED"},
		{"unknown role", SignupInput{Email: "c@x.com", Password: "longpassword1", Role: "DEAN"}, "VALIDATION_FAILED"},
		{"duplicate email", SignupInput{Email: "Taken@X.com", Password: "longpassword1"}, "EMAIL_TAKEN"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tc.code), "got %v", err)
			assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
		})
	}
}

func TestSignupRole(t *testing.T) {
	env := newTestEnv(t)
	num := "2024001"
	user, err := env.auth.Signup(context.Background(), SignupInput{
		Email: "prof@x.com", Password: "longpassword1", Role: "professor", StudentNum: &num,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProfessor, user.Role)
	require.NotNil(t, user.StudentNum)
	assert.Equal(t, num, *user.StudentNum)
	assert.Len(t, env.eventsOf(events.EventUserRegistered), 1)
}

func TestBasicLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")

	_, unknownErr := env.auth.BasicLogin(context.Background(), "nobody@x.com", "longpassword1")
	_, wrongErr := env.auth.BasicLogin(context.Background(), "a@x.com", "wrongpassword")

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.True(t, apperrors.IsCode(unknownErr, "UNAUTHORIZED"))
	assert.True(t, apperrors.IsCode(wrongErr, "UNAUTHORIZED"))
	assert.Len(t, env.eventsOf(events.EventLoginFailed), 2)
}

func TestAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	token, err := env.auth.AccessToken("Bearer "+session.Access.Value, "")
	require.NoError(t, err)
	assert.Equal(t, session.Access.Value, token)

	token, err = env.auth.AccessToken("", session.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, session.Access.Value, token)

	_, err = env.auth.AccessToken("", "")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	_, err = env.auth.AccessToken("Bearer "+session.Refresh.Value, "")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	env.now = env.now.Add(16 * time.Minute)
	_, err = env.auth.AccessToken("Bearer "+session.Access.Value, "")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestRefreshRejects(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"garbage", "not-a-token"},
		{"tampered", tamper(session.Refresh.Value)},
		{"access token", session.Access.Value},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := env.auth.Refresh(context.Background(), tc.token)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
		})
	}
	assert.Empty(t, env.eventsOf(events.EventTokenRefreshed))
}

func TestRefreshExpired(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	env.now = env.now.Add(25 * time.Hour)
	_, err = env.auth.Refresh(context.Background(), session.Refresh.Value)
	require.Error(t, err)
	assert.Equal(t, "refresh token expired", apperrors.ToDomainError(err).Message)
}

func TestRefreshReuseDetected(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	rotated, err := env.auth.Refresh(context.Background(), session.Refresh.Value)
	require.NoError(t, err)

	_, err = env.auth.Refresh(context.Background(), session.Refresh.Value)
	require.Error(t, err)
	assert.Equal(t, "refresh token reuse detected", apperrors.ToDomainError(err).Message)
	assert.Len(t, env.eventsOf(events.EventRefreshReuseDetected), 1)

	_, err = env.auth.Refresh(context.Background(), rotated.Refresh.Value)
	assert.NoError(t, err)
}

func TestRefreshLedgerUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	env.redis.Close()
	_, err = env.auth.Refresh(context.Background(), session.Refresh.Value)
	require.Error(t, err)
	assert.Equal(t, 500, apperrors.ToDomainError(err).HTTPStatus)
}

func TestRefreshRejectsRecreatedAccount(t *testing.T) {
	env := newTestEnv(t)
	user := env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	// Deleting and re-registering assigns a new id, which old tokens no longer match.
	require.NoError(t, env.store.Users().Delete(context.Background(), user.ID))
	_, err = env.auth.Signup(context.Background(), SignupInput{Email: "a@x.com", Password: "longpassword1", Role: "ADMIN"})
	require.NoError(t, err)

	_, err = env.auth.Refresh(context.Background(), session.Refresh.Value)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	fresh, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)
	refreshed, err := env.auth.Refresh(context.Background(), fresh.Refresh.Value)
	require.NoError(t, err)
	claims, err := env.tokens.Verify(refreshed.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestLogoutCookiesExpire(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.auth.LogoutCookies()
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		assert.Equal(t, -1, c.MaxAge)
		assert.Empty(t, c.Value)
	}
}
