package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jdevops/portal-login/internal/auth"
	"github.com/jdevops/portal-login/internal/cache"
	"github.com/jdevops/portal-login/internal/config"
	"github.com/jdevops/portal-login/internal/domain"
	"github.com/jdevops/portal-login/internal/events"
	"github.com/jdevops/portal-login/internal/repository"
)

type testEnv struct {
	cfg        config.Config
	store      *repository.MemoryStore
	redis      *miniredis.Miniredis
	cache      *cache.MembershipCache
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	now        time.Time
	auth       *AuthService
	enrollment *EnrollmentService
	users      *UserService
	published  []events.Event
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "service-test-secret",
			AccessTokenTTLMinutes: 15,
			RefreshTokenTTLHours:  24,
			BcryptCost:            bcrypt.MinCost,
			MinPasswordLength:     8,
			RefreshReuseDetection: true,
		},
		Cookie: config.CookieConfig{
			Secure:      true,
			SameSite:    "Strict",
			Path:        "/api",
			RefreshName: "jwt_auth",
			AccessName:  "jwt",
		},
		Redirect: config.RedirectConfig{
			NodeURL:             "http://node.local/jcode",
			ForwardCookieName:   "jwt",
			ForwardCookieDomain: "node.local",
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		cfg:        testConfig(),
		store:      repository.NewMemoryStore(),
		redis:      miniredis.RunT(t),
		dispatcher: events.NewInMemoryDispatcher(),
		now:        time.Now(),
	}
	client := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env.cache = cache.NewMembershipCache(client, "test:")
	env.tokens = auth.NewTokenManager(auth.TokenConfig{
		Secret:     env.cfg.Auth.JWTSecret,
		AccessTTL:  env.cfg.Auth.AccessTTL(),
		RefreshTTL: env.cfg.Auth.RefreshTTL(),
		Cookies:    auth.CookiePolicy{Secure: true, SameSite: "Strict", Path: "/api"},
	}).WithClock(func() time.Time { return env.now })

	for _, et := range []events.EventType{
		events.EventUserRegistered, events.EventLoginFailed, events.EventLoginSucceeded,
		events.EventTokenRefreshed, events.EventRefreshReuseDetected, events.EventCourseJoined,
		events.EventCourseLeft, events.EventCacheSyncFailed, events.EventUserDeleted,
	} {
		env.dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			env.published = append(env.published, e)
			return nil
		})
	}

	env.auth = NewAuthService(env.cfg, AuthDependencies{
		Store:      env.store,
		Tokens:     env.tokens,
		Ledger:     cache.NewRefreshLedger(client, "test:"),
		Dispatcher: env.dispatcher,
	})
	env.enrollment = NewEnrollmentService(EnrollmentDependencies{
		Store:      env.store,
		Cache:      env.cache,
		Dispatcher: env.dispatcher,
	})
	env.users = NewUserService(env.store, env.cache, env.dispatcher, nil)
	return env
}

func (e *testEnv) signup(t *testing.T, email, password string) *domain.User {
	t.Helper()
	user, err := e.auth.Signup(context.Background(), SignupInput{Email: email, Password: password})
	require.NoError(t, err)
	return user
}

func (e *testEnv) course(t *testing.T, code string) *domain.Course {
	t.Helper()
	c := &domain.Course{Name: code + " course", Code: code, Professor: "prof", Year: 2024, Term: 1, Clss: 1}
	require.NoError(t, e.store.Courses().Create(context.Background(), c))
	return c
}

func (e *testEnv) eventsOf(t events.EventType) []events.Event {
	var out []events.Event
	for _, ev := range e.published {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func tamper(token string) string {
	dot := strings.LastIndex(token, ".")
	sig := []byte(token[dot+1:])
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	return token[:dot+1] + string(sig)
}
