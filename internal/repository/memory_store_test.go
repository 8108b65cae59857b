package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jdevops/portal-login/internal/domain"
)

func seedUserAndCourse(t *testing.T, s *MemoryStore) (*domain.User, *domain.Course) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{Email: "a@x.com", Role: domain.RoleStudent}
	require.NoError(t, s.Users().Create(ctx, user))
	course := &domain.Course{Name: "Intro", Code: "CS101", Clss: 1, Year: 2024, Term: 1}
	require.NoError(t, s.Courses().Create(ctx, course))
	return user, course
}

func TestMemoryStoreUniqueEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Users().Create(ctx, &domain.User{Email: "a@x.com", Role: domain.RoleStudent}))
	err := s.Users().Create(ctx, &domain.User{Email: "a@x.com", Role: domain.RoleAdmin})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStoreWithTxRollsBack(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx Store) error {
		user := &domain.User{Email: "a@x.com", Role: domain.RoleStudent}
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreNestedTxJoinsOuter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx Store) error {
		return tx.WithTx(ctx, func(inner Store) error {
			return inner.Users().Create(ctx, &domain.User{Email: "a@x.com", Role: domain.RoleStudent})
		})
	})
	require.NoError(t, err)

	_, err = s.Users().GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
}

func TestMemoryStoreMembershipUniqueness(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user, course := seedUserAndCourse(t, s)

	m := &domain.CourseMembership{UserID: user.ID, CourseID: course.ID}
	require.NoError(t, s.Memberships().Create(ctx, m))
	require.Equal(t, "CS101", m.CourseCode)

	err := s.Memberships().Create(ctx, &domain.CourseMembership{UserID: user.ID, CourseID: course.ID})
	require.ErrorIs(t, err, ErrDuplicate)

	exists, err := s.Memberships().Exists(ctx, user.ID, course.ID)
	require.NoError(t, err)
	require.True(t, exists)

	emails, err := s.Memberships().ListMemberEmails(ctx, "CS101")
	require.NoError(t, err)
	require.Equal(t, []string{"a@x.com"}, emails)
}

func TestMemoryStoreUserDeleteCascades(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user, course := seedUserAndCourse(t, s)

	require.NoError(t, s.Credentials().Create(ctx, &domain.Credential{UserID: user.ID, PasswordHash: "h"}))
	m := &domain.CourseMembership{UserID: user.ID, CourseID: course.ID}
	require.NoError(t, s.Memberships().Create(ctx, m))
	require.NoError(t, s.Workspaces().Create(ctx, &domain.Workspace{
		MembershipID: m.ID, UserID: user.ID, CourseID: course.ID, URL: "https://jcode/ws/1",
	}))

	courses, err := s.Memberships().ListCoursesByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.NotNil(t, courses[0].WorkspaceURL)

	require.NoError(t, s.Users().Delete(ctx, user.ID))

	_, err = s.Credentials().GetByUserID(ctx, user.ID)
	require.ErrorIs(t, err, ErrNotFound)
	all, err := s.Memberships().ListAllMemberEmails(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
	_, err = s.Workspaces().GetByMembership(ctx, m.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExistsByCode(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	user, section1 := seedUserAndCourse(t, s)
	section2 := &domain.Course{Name: "Intro", Code: "CS101", Clss: 2, Year: 2024, Term: 1}
	require.NoError(t, s.Courses().Create(ctx, section2))

	m1 := &domain.CourseMembership{UserID: user.ID, CourseID: section1.ID}
	require.NoError(t, s.Memberships().Create(ctx, m1))
	m2 := &domain.CourseMembership{UserID: user.ID, CourseID: section2.ID}
	require.NoError(t, s.Memberships().Create(ctx, m2))

	require.NoError(t, s.Memberships().Delete(ctx, m1.ID))
	exists, err := s.Memberships().ExistsByCode(ctx, user.ID, "CS101")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, s.Memberships().Delete(ctx, m2.ID))
	exists, err = s.Memberships().ExistsByCode(ctx, user.ID, "CS101")
	require.NoError(t, err)
	require.False(t, exists)
}
