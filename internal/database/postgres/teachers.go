package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Teacher is an operator account that can sign in to the dashboard.
type Teacher struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// TeacherRepository handles operator accounts.
type TeacherRepository struct {
	pool *Pool
}

// NewTeacherRepository creates a new teacher repository.
func NewTeacherRepository(pool *Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// Create inserts a teacher account. The email unique constraint rejects
// duplicates.
func (r *TeacherRepository) Create(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO teachers (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, email, passwordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create teacher: %w", err)
	}
	return id, nil
}

// FindByEmail returns a teacher, or nil when not found.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*Teacher, error) {
	var t Teacher
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM teachers WHERE email = $1
	`, email).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Role, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find teacher by email: %w", err)
	}
	return &t, nil
}

// FindByID returns a teacher, or nil when not found.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*Teacher, error) {
	var t Teacher
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM teachers WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Role, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find teacher %d: %w", id, err)
	}
	return &t, nil
}
