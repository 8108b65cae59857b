package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jdevops/portal-login/internal/domain"
)

// CourseRepository handles course lookups.
type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id string) (*domain.Course, error)
}

type courseRepository struct {
	db DBTX
}

const courseColumns = `id, name, code, professor, year, term, clss, created_at`

func (r *courseRepository) Create(ctx context.Context, course *domain.Course) error {
	const query = `
        INSERT INTO courses (name, code, professor, year, term, clss)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		course.Name,
		course.Code,
		course.Professor,
		course.Year,
		course.Term,
		course.Clss,
	).Scan(&course.ID, &course.CreatedAt)
	return mapError(err)
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id=$1`
	return scanCourse(r.db.QueryRow(ctx, query, id))
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var course domain.Course
	if err := row.Scan(
		&course.ID,
		&course.Name,
		&course.Code,
		&course.Professor,
		&course.Year,
		&course.Term,
		&course.Clss,
		&course.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &course, nil
}
