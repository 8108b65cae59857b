package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdevops/portal-login/internal/domain"
)

// MemoryStore is an in-process Store used when no Postgres DSN is set and in
// tests. It enforces the same uniqueness rules as the SQL schema. WithTx
// serializes transactions and restores a snapshot when fn fails.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data memoryData
	now  func() time.Time
}

type memoryData struct {
	users       map[string]domain.User
	credentials map[string]domain.Credential
	courses     map[string]domain.Course
	memberships map[string]domain.CourseMembership
	workspaces  map[string]domain.Workspace
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			users:       map[string]domain.User{},
			credentials: map[string]domain.Credential{},
			courses:     map[string]domain.Course{},
			memberships: map[string]domain.CourseMembership{},
			workspaces:  map[string]domain.Workspace{},
		},
		now: time.Now,
	}
}

func (d memoryData) clone() memoryData {
	out := memoryData{
		users:       make(map[string]domain.User, len(d.users)),
		credentials: make(map[string]domain.Credential, len(d.credentials)),
		courses:     make(map[string]domain.Course, len(d.courses)),
		memberships: make(map[string]domain.CourseMembership, len(d.memberships)),
		workspaces:  make(map[string]domain.Workspace, len(d.workspaces)),
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.credentials {
		out.credentials[k] = v
	}
	for k, v := range d.courses {
		out.courses[k] = v
	}
	for k, v := range d.memberships {
		out.memberships[k] = v
	}
	for k, v := range d.workspaces {
		out.workspaces[k] = v
	}
	return out
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }
func (s *MemoryStore) Credentials() CredentialRepository { return memoryCredentials{s} }
func (s *MemoryStore) Courses() CourseRepository { return memoryCourses{s} }
func (s *MemoryStore) Memberships() MembershipRepository { return memoryMemberships{s} }
func (s *MemoryStore) Workspaces() WorkspaceRepository { return memoryWorkspaces{s} }

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(memoryTx{s}); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// memoryTx joins the running transaction instead of taking txMu again.
type memoryTx struct {
	*MemoryStore
}

func (t memoryTx) WithTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.users {
		if existing.Email == user.Email {
			return ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.data.users[user.ID] = *user
	return nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, user := range r.s.data.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryUsers) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]domain.User, 0, len(r.s.data.users))
	for _, user := range r.s.data.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
	return users, nil
}

// Delete cascades to the credential, memberships and workspaces, mirroring
// the ON DELETE CASCADE foreign keys.
func (r memoryUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.data.users, id)
	delete(r.s.data.credentials, id)
	for mid, m := range r.s.data.memberships {
		if m.UserID == id {
			delete(r.s.data.memberships, mid)
		}
	}
	for wid, w := range r.s.data.workspaces {
		if w.UserID == id {
			delete(r.s.data.workspaces, wid)
		}
	}
	return nil
}

type memoryCredentials struct{ s *MemoryStore }

func (r memoryCredentials) Create(_ context.Context, cred *domain.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[cred.UserID]; !ok {
		return ErrNotFound
	}
	if _, ok := r.s.data.credentials[cred.UserID]; ok {
		return ErrDuplicate
	}
	cred.CreatedAt = r.s.now()
	cred.UpdatedAt = cred.CreatedAt
	r.s.data.credentials[cred.UserID] = *cred
	return nil
}

func (r memoryCredentials) GetByUserID(_ context.Context, userID string) (*domain.Credential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cred, ok := r.s.data.credentials[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &cred, nil
}

type memoryCourses struct{ s *MemoryStore }

func (r memoryCourses) Create(_ context.Context, course *domain.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.courses {
		if existing.Code == course.Code && existing.Clss == course.Clss &&
			existing.Year == course.Year && existing.Term == course.Term {
			return ErrDuplicate
		}
	}
	course.ID = uuid.NewString()
	course.CreatedAt = r.s.now()
	r.s.data.courses[course.ID] = *course
	return nil
}

func (r memoryCourses) GetByID(_ context.Context, id string) (*domain.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	course, ok := r.s.data.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &course, nil
}

type memoryMemberships struct{ s *MemoryStore }

func (r memoryMemberships) Create(_ context.Context, m *domain.CourseMembership) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[m.UserID]; !ok {
		return ErrNotFound
	}
	course, ok := r.s.data.courses[m.CourseID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range r.s.data.memberships {
		if existing.UserID == m.UserID && existing.CourseID == m.CourseID {
			return ErrDuplicate
		}
	}
	m.ID = uuid.NewString()
	m.CourseCode = course.Code
	m.CreatedAt = r.s.now()
	r.s.data.memberships[m.ID] = *m
	return nil
}

func (r memoryMemberships) Get(_ context.Context, userID, courseID string) (*domain.CourseMembership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.data.memberships {
		if m.UserID == userID && m.CourseID == courseID {
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryMemberships) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	_, err := r.Get(ctx, userID, courseID)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memoryMemberships) ExistsByCode(_ context.Context, userID, courseCode string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.data.memberships {
		if m.UserID == userID && r.s.data.courses[m.CourseID].Code == courseCode {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryMemberships) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.memberships[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.data.memberships, id)
	for wid, w := range r.s.data.workspaces {
		if w.MembershipID == id {
			delete(r.s.data.workspaces, wid)
		}
	}
	return nil
}

func (r memoryMemberships) ListCoursesByUser(_ context.Context, userID string) ([]domain.UserCourse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var courses []domain.UserCourse
	for _, m := range r.s.data.memberships {
		if m.UserID != userID {
			continue
		}
		uc := domain.UserCourse{Course: r.s.data.courses[m.CourseID], JcodeEnabled: m.JcodeEnabled}
		for _, w := range r.s.data.workspaces {
			if w.MembershipID == m.ID {
				url := w.URL
				uc.WorkspaceURL = &url
			}
		}
		courses = append(courses, uc)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Course.Code < courses[j].Course.Code })
	return courses, nil
}

func (r memoryMemberships) ListMemberEmails(ctx context.Context, courseCode string) ([]string, error) {
	all, err := r.ListAllMemberEmails(ctx)
	if err != nil {
		return nil, err
	}
	return all[courseCode], nil
}

func (r memoryMemberships) ListAllMemberEmails(_ context.Context) (map[string][]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]map[string]struct{})
	for _, m := range r.s.data.memberships {
		user, ok := r.s.data.users[m.UserID]
		if !ok {
			continue
		}
		code := r.s.data.courses[m.CourseID].Code
		if seen[code] == nil {
			seen[code] = make(map[string]struct{})
		}
		seen[code][user.Email] = struct{}{}
	}
	members := make(map[string][]string, len(seen))
	for code, emails := range seen {
		for email := range emails {
			members[code] = append(members[code], email)
		}
		sort.Strings(members[code])
	}
	return members, nil
}

type memoryWorkspaces struct{ s *MemoryStore }

func (r memoryWorkspaces) Create(_ context.Context, w *domain.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.memberships[w.MembershipID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.s.data.workspaces {
		if existing.MembershipID == w.MembershipID {
			return ErrDuplicate
		}
	}
	w.ID = uuid.NewString()
	w.CreatedAt = r.s.now()
	r.s.data.workspaces[w.ID] = *w
	return nil
}

func (r memoryWorkspaces) GetByMembership(_ context.Context, membershipID string) (*domain.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.data.workspaces {
		if w.MembershipID == membershipID {
			return &w, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryWorkspaces) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.data.workspaces, id)
	return nil
}
