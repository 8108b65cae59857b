package repository

import (
	"context"

	"github.com/jdevops/portal-login/internal/domain"
)

// MembershipRepository persists user-course enrollment rows. The (user,
// course) pair is unique; a second insert fails with ErrDuplicate.
type MembershipRepository interface {
	Create(ctx context.Context, m *domain.CourseMembership) error
	Get(ctx context.Context, userID, courseID string) (*domain.CourseMembership, error)
	Exists(ctx context.Context, userID, courseID string) (bool, error)
	// ExistsByCode reports whether the user is enrolled in any section of courseCode.
	ExistsByCode(ctx context.Context, userID, courseCode string) (bool, error)
	Delete(ctx context.Context, id string) error
	ListCoursesByUser(ctx context.Context, userID string) ([]domain.UserCourse, error)
	ListMemberEmails(ctx context.Context, courseCode string) ([]string, error)
	// ListAllMemberEmails groups every member email by course code.
	ListAllMemberEmails(ctx context.Context) (map[string][]string, error)
}

type membershipRepository struct {
	db DBTX
}

func (r *membershipRepository) Create(ctx context.Context, m *domain.CourseMembership) error {
	const query = `
        INSERT INTO user_courses (user_id, course_id, jcode)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, m.UserID, m.CourseID, m.JcodeEnabled).
		Scan(&m.ID, &m.CreatedAt)
	return mapError(err)
}

func (r *membershipRepository) Get(ctx context.Context, userID, courseID string) (*domain.CourseMembership, error) {
	const query = `
        SELECT uc.id, uc.user_id, uc.course_id, c.code, uc.jcode, uc.created_at
        FROM user_courses uc
        JOIN courses c ON c.id = uc.course_id
        WHERE uc.user_id=$1 AND uc.course_id=$2`

	var m domain.CourseMembership
	if err := r.db.QueryRow(ctx, query, userID, courseID).Scan(
		&m.ID,
		&m.UserID,
		&m.CourseID,
		&m.CourseCode,
		&m.JcodeEnabled,
		&m.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &m, nil
}

func (r *membershipRepository) Exists(ctx context.Context, userID, courseID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM user_courses WHERE user_id=$1 AND course_id=$2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, courseID).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *membershipRepository) ExistsByCode(ctx context.Context, userID, courseCode string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM user_courses uc
            JOIN courses c ON c.id = uc.course_id
            WHERE uc.user_id=$1 AND c.code=$2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, courseCode).Scan(&exists); err != nil {
		return false, mapError(err)
	}
	return exists, nil
}

func (r *membershipRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM user_courses WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *membershipRepository) ListCoursesByUser(ctx context.Context, userID string) ([]domain.UserCourse, error) {
	const query = `
        SELECT c.id, c.name, c.code, c.professor, c.year, c.term, c.clss, c.created_at,
               uc.jcode, j.jcode_url
        FROM user_courses uc
        JOIN courses c ON c.id = uc.course_id
        LEFT JOIN jcodes j ON j.user_course_id = uc.id
        WHERE uc.user_id=$1
        ORDER BY c.year DESC, c.term DESC, c.code`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var courses []domain.UserCourse
	for rows.Next() {
		var uc domain.UserCourse
		if err := rows.Scan(
			&uc.Course.ID,
			&uc.Course.Name,
			&uc.Course.Code,
			&uc.Course.Professor,
			&uc.Course.Year,
			&uc.Course.Term,
			&uc.Course.Clss,
			&uc.Course.CreatedAt,
			&uc.JcodeEnabled,
			&uc.WorkspaceURL,
		); err != nil {
			return nil, err
		}
		courses = append(courses, uc)
	}
	return courses, rows.Err()
}

func (r *membershipRepository) ListMemberEmails(ctx context.Context, courseCode string) ([]string, error) {
	const query = `
        SELECT DISTINCT u.email
        FROM user_courses uc
        JOIN courses c ON c.id = uc.course_id
        JOIN users u ON u.id = uc.user_id
        WHERE c.code=$1
        ORDER BY u.email`

	rows, err := r.db.Query(ctx, query, courseCode)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *membershipRepository) ListAllMemberEmails(ctx context.Context) (map[string][]string, error) {
	const query = `
        SELECT DISTINCT c.code, u.email
        FROM user_courses uc
        JOIN courses c ON c.id = uc.course_id
        JOIN users u ON u.id = uc.user_id
        ORDER BY c.code, u.email`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var code, email string
		if err := rows.Scan(&code, &email); err != nil {
			return nil, err
		}
		members[code] = append(members[code], email)
	}
	return members, rows.Err()
}
