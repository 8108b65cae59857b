package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdevops/portal-login/internal/cache"
	"github.com/jdevops/portal-login/internal/domain"
	"github.com/jdevops/portal-login/internal/repository"
)

func setup(t *testing.T) (*repository.MemoryStore, *cache.MembershipCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewMemoryStore(), cache.NewMembershipCache(client, "test:"), mr
}

func enroll(t *testing.T, store repository.Store, email, code string) {
	t.Helper()
	ctx := context.Background()

	user, err := store.Users().GetByEmail(ctx, email)
	if err != nil {
		user = &domain.User{Email: email, Role: domain.RoleStudent}
		require.NoError(t, store.Users().Create(ctx, user))
	}
	course := findCourse(t, store, code)
	if course == nil {
		course = &domain.Course{Name: code, Code: code, Year: 2024, Term: 1, Clss: 1}
		require.NoError(t, store.Courses().Create(ctx, course))
	}
	require.NoError(t, store.Memberships().Create(ctx, &domain.CourseMembership{UserID: user.ID, CourseID: course.ID}))
}

// findCourse returns a course some user is already enrolled in.
func findCourse(t *testing.T, store repository.Store, code string) *domain.Course {
	t.Helper()
	ctx := context.Background()

	users, err := store.Users().List(ctx)
	require.NoError(t, err)
	for _, u := range users {
		courses, err := store.Memberships().ListCoursesByUser(ctx, u.ID)
		require.NoError(t, err)
		for _, uc := range courses {
			if uc.Course.Code == code {
				course := uc.Course
				return &course
			}
		}
	}
	return nil
}

func TestRunOnceRepairsDrift(t *testing.T) {
	store, c, _ := setup(t)
	ctx := context.Background()

	enroll(t, store, "a@x.com", "CS101")
	enroll(t, store, "b@x.com", "CS101")
	enroll(t, store, "a@x.com", "CS202")

	// Drift: a stale member, a missing member and an orphan course set.
	require.NoError(t, c.Add(ctx, "CS101", "stale@x.com"))
	require.NoError(t, c.Add(ctx, "GONE", "ghost@x.com"))

	w := NewReconcileWorker(store, c, time.Minute, nil)
	stats, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileStats{Courses: 2, Members: 3, Removed: 1}, stats)

	members, ok, err := c.Members(ctx, "CS101")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, members)

	members, _, err = c.Members(ctx, "CS202")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, members)

	_, ok, err = c.Members(ctx, "GONE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRunOnceCacheDown(t *testing.T) {
	store, c, mr := setup(t)
	enroll(t, store, "a@x.com", "CS101")
	mr.Close()

	w := NewReconcileWorker(store, c, time.Minute, nil)
	stats, err := w.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, stats.Failed)
}

func TestStartStop(t *testing.T) {
	store, c, _ := setup(t)
	enroll(t, store, "a@x.com", "CS101")

	w := NewReconcileWorker(store, c, 10*time.Millisecond, nil)
	w.Start(context.Background())
	w.Start(context.Background())

	require.Eventually(t, func() bool {
		ok, err := c.IsMember(context.Background(), "CS101", "a@x.com")
		return err == nil && ok
	}, time.Second, 5*time.Millisecond)

	w.Stop()
	w.Stop()
}
