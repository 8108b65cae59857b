package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/jdevops/portal-login/internal/domain"
)

// UserRepository defines persistence access for portal identities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

// CredentialRepository stores hashed login secrets.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	GetByUserID(ctx context.Context, userID string) (*domain.Credential, error)
}

type userRepository struct {
	db DBTX
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, role, student_num)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Role,
		user.StudentNum,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, role, student_num, created_at, updated_at
        FROM users WHERE email=$1`

	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, email, role, student_num, created_at, updated_at
        FROM users ORDER BY email`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.StudentNum,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

type credentialRepository struct {
	db DBTX
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	const query = `
        INSERT INTO logins (user_id, password_hash)
        VALUES ($1, $2)
        RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query, cred.UserID, cred.PasswordHash).
		Scan(&cred.CreatedAt, &cred.UpdatedAt)
	return mapError(err)
}

func (r *credentialRepository) GetByUserID(ctx context.Context, userID string) (*domain.Credential, error) {
	const query = `
        SELECT user_id, password_hash, created_at, updated_at
        FROM logins WHERE user_id=$1`

	var cred domain.Credential
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.PasswordHash,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	); err != nil {
		return nil, mapError(err)
	}
	return &cred, nil
}
