package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/jdevops/portal-login/internal/domain"
	"github.com/jdevops/portal-login/internal/events"
	"github.com/jdevops/portal-login/internal/observability"
	"github.com/jdevops/portal-login/internal/repository"
	apperrors "github.com/jdevops/portal-login/pkg/util/errorutil"
)

// EnrollmentService writes course membership to the store and then mirrors
// it into the membership cache. A failed cache write never undoes the store
// write; the reconcile worker repairs the drift later.
type EnrollmentService struct {
	store      repository.Store
	cache      MembershipCache
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// EnrollmentDependencies bundles collaborators for the enrollment service.
type EnrollmentDependencies struct {
	Store      repository.Store
	Cache      MembershipCache
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewEnrollmentService builds the service.
func NewEnrollmentService(deps EnrollmentDependencies) *EnrollmentService {
	return &EnrollmentService{
		store:      deps.Store,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     observability.Component(deps.Logger, "enrollment"),
	}
}

// JoinCourse enrolls the user identified by email into courseID.
func (s *EnrollmentService) JoinCourse(ctx context.Context, email, courseID string) (*domain.CourseMembership, error) {
	user, course, err := s.resolve(ctx, email, courseID)
	if err != nil {
		return nil, err
	}

	membership := &domain.CourseMembership{
		UserID:     user.ID,
		CourseID:   course.ID,
		CourseCode: course.Code,
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		exists, err := tx.Memberships().Exists(ctx, user.ID, course.ID)
		if err != nil {
			return err
		}
		if exists {
			return repository.ErrDuplicate
		}
		return tx.Memberships().Create(ctx, membership)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, apperrors.NewConflict("already enrolled in course", map[string]any{"course_id": course.ID})
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	membership.CourseCode = course.Code

	s.mirrorJoin(ctx, course.Code, user.Email)

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCourseJoined, user.Email,
		events.CourseMembershipPayload{CourseID: course.ID, CourseCode: course.Code}))
	return membership, nil
}

// LeaveCourse removes the user's membership in courseID together with its
// provisioned workspace, then evicts the cache entry.
func (s *EnrollmentService) LeaveCourse(ctx context.Context, courseID, email string) error {
	user, course, err := s.resolve(ctx, email, courseID)
	if err != nil {
		return err
	}

	// Another section can share the course code and keep the user in the set.
	stillMember := false
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		membership, err := tx.Memberships().Get(ctx, user.ID, course.ID)
		if err != nil {
			return err
		}
		workspace, err := tx.Workspaces().GetByMembership(ctx, membership.ID)
		switch {
		case err == nil:
			if err := tx.Workspaces().Delete(ctx, workspace.ID); err != nil {
				return err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
		if err := tx.Memberships().Delete(ctx, membership.ID); err != nil {
			return err
		}
		stillMember, err = tx.Memberships().ExistsByCode(ctx, user.ID, course.Code)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("course membership", map[string]any{"course_id": course.ID})
	}
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if s.cache != nil && !stillMember {
		if err := s.cache.Remove(ctx, course.Code, user.Email); err != nil {
			s.cacheFailed(ctx, "remove", course.Code, user.Email, err)
		}
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCourseLeft, user.Email,
		events.CourseMembershipPayload{CourseID: course.ID, CourseCode: course.Code}))
	return nil
}

// CourseMembers lists member emails of courseCode, serving from the cache
// when it holds the set and repopulating it from the store otherwise.
func (s *EnrollmentService) CourseMembers(ctx context.Context, courseCode string) ([]string, error) {
	if s.cache != nil {
		members, ok, err := s.cache.Members(ctx, courseCode)
		if err == nil && ok {
			return members, nil
		}
		if err != nil {
			s.logger.Warn("membership cache read failed", zap.String("course_code", courseCode), zap.Error(err))
		}
	}

	members, err := s.store.Memberships().ListMemberEmails(ctx, courseCode)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if members == nil {
		members = []string{}
	}

	if s.cache != nil && len(members) > 0 {
		if err := s.cache.Replace(ctx, courseCode, members); err != nil {
			s.cacheFailed(ctx, "replace", courseCode, "", err)
		}
	}
	return members, nil
}

// IsMember reports whether email belongs to courseCode. A cache hit answers
// directly; anything else is confirmed against the store.
func (s *EnrollmentService) IsMember(ctx context.Context, courseCode, email string) (bool, error) {
	email = normalizeEmail(email)
	if s.cache != nil {
		ok, err := s.cache.IsMember(ctx, courseCode, email)
		if err == nil && ok {
			return true, nil
		}
		if err != nil {
			s.logger.Warn("membership cache read failed", zap.String("course_code", courseCode), zap.Error(err))
		}
	}

	members, err := s.store.Memberships().ListMemberEmails(ctx, courseCode)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	for _, m := range members {
		if m == email {
			return true, nil
		}
	}
	return false, nil
}

// UserCourses lists the courses the user is enrolled in.
func (s *EnrollmentService) UserCourses(ctx context.Context, email string) ([]domain.UserCourse, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	courses, err := s.store.Memberships().ListCoursesByUser(ctx, user.ID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if courses == nil {
		courses = []domain.UserCourse{}
	}
	return courses, nil
}

func (s *EnrollmentService) resolve(ctx context.Context, email, courseID string) (*domain.User, *domain.Course, error) {
	user, err := s.store.Users().GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	course, err := s.store.Courses().GetByID(ctx, courseID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperrors.NewNotFound("course", map[string]any{"course_id": courseID})
	}
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return user, course, nil
}

// mirrorJoin extends a cached course set with email. A missing set is rebuilt
// from the store so it never holds only the newest member.
func (s *EnrollmentService) mirrorJoin(ctx context.Context, courseCode, email string) {
	if s.cache == nil {
		return
	}
	added, err := s.cache.AddIfCached(ctx, courseCode, email)
	if err != nil {
		s.cacheFailed(ctx, "add", courseCode, email, err)
		return
	}
	if added {
		return
	}

	members, err := s.store.Memberships().ListMemberEmails(ctx, courseCode)
	if err != nil {
		s.logger.Warn("membership rebuild read failed", zap.String("course_code", courseCode), zap.Error(err))
		return
	}
	if err := s.cache.Replace(ctx, courseCode, members); err != nil {
		s.cacheFailed(ctx, "replace", courseCode, email, err)
	}
}

func (s *EnrollmentService) cacheFailed(ctx context.Context, op, courseCode, email string, err error) {
	s.logger.Warn("membership cache write failed",
		zap.String("operation", op),
		zap.String("course_code", courseCode),
		zap.String("email", email),
		zap.Error(err))
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventCacheSyncFailed, email,
		events.CacheSyncFailedPayload{Operation: op, CourseCode: courseCode, Error: err.Error()}))
}
