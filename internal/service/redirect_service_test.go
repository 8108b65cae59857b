package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

func TestRedirectEncodesPlus(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)

	svc := NewRedirectService(env.cfg.Redirect, env.tokens)
	result, err := svc.Redirect("Bearer "+session.Access.Value, "CS101+A", 3, "2024+001")
	require.NoError(t, err)

	assert.Equal(t, "http://node.local/jcode?courseCode=CS101%2BA&clss=3&st=2024%2B001", result.Location)
	assert.NotContains(t, result.Location, "+")

	assert.Equal(t, "jwt", result.Cookie.Name)
	assert.Equal(t, session.Access.Value, result.Cookie.Value)
	assert.Equal(t, "/", result.Cookie.Path)
	assert.Equal(t, "node.local", result.Cookie.Domain)
	assert.True(t, result.Cookie.HTTPOnly)
	assert.True(t, result.Cookie.Secure)
	assert.Equal(t, int((15 * time.Minute).Seconds()), result.Cookie.MaxAge)
}

func TestRedirectRejects(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "a@x.com", "longpassword1")
	session, err := env.auth.BasicLogin(context.Background(), "a@x.com", "longpassword1")
	require.NoError(t, err)
	svc := NewRedirectService(env.cfg.Redirect, env.tokens)

	for name, header := range map[string]string{
		"missing":   "",
		"no bearer": session.Access.Value,
		"refresh":   "Bearer " + session.Refresh.Value,
		"tampered":  "Bearer " + tamper(session.Access.Value),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Redirect(header, "CS101", 1, "1")
			assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
		})
	}
}

func TestBuildRedirectURL(t *testing.T) {
	tests := []struct {
		base, code, st string
		clss           int
		want           string
	}{
		{"http://n/jcode", "CS 101", "a b", 2, "http://n/jcode?courseCode=CS%20101&clss=2&st=a%20b"},
		{"http://n/jcode?x=1", "MATH&1", "7", 1, "http://n/jcode?x=1&courseCode=MATH%261&clss=1&st=7"},
	}
	for _, tc := range tests {
		got := buildRedirectURL(tc.base, tc.code, tc.clss, tc.st)
		assert.Equal(t, tc.want, got)
		assert.False(t, strings.Contains(got, "+"))
	}
}
