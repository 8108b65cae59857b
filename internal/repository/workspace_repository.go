package repository

import (
	"context"

	"github.com/jdevops/portal-login/internal/domain"
)

// WorkspaceRepository tracks provisioned JCode workspaces per membership.
type WorkspaceRepository interface {
	Create(ctx context.Context, w *domain.Workspace) error
	GetByMembership(ctx context.Context, membershipID string) (*domain.Workspace, error)
	Delete(ctx context.Context, id string) error
}

type workspaceRepository struct {
	db DBTX
}

func (r *workspaceRepository) Create(ctx context.Context, w *domain.Workspace) error {
	const query = `
        INSERT INTO jcodes (user_course_id, user_id, course_id, jcode_url)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, w.MembershipID, w.UserID, w.CourseID, w.URL).
		Scan(&w.ID, &w.CreatedAt)
	return mapError(err)
}

func (r *workspaceRepository) GetByMembership(ctx context.Context, membershipID string) (*domain.Workspace, error) {
	const query = `
        SELECT id, user_course_id, user_id, course_id, jcode_url, created_at
        FROM jcodes WHERE user_course_id=$1`

	var w domain.Workspace
	if err := r.db.QueryRow(ctx, query, membershipID).Scan(
		&w.ID,
		&w.MembershipID,
		&w.UserID,
		&w.CourseID,
		&w.URL,
		&w.CreatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &w, nil
}

func (r *workspaceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM jcodes WHERE id=$1`, id)
	return mapError(err)
}
