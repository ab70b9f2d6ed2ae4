package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Student is one enrolled identity.
type Student struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// StudentRepository handles database operations for students.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// Create inserts a student and returns the assigned id. Existing names
// are reused so re-running enrollment is idempotent.
func (r *StudentRepository) Create(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO students (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create student: %w", err)
	}
	return id, nil
}

// FindByID returns a student, or nil when not found.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*Student, error) {
	var s Student
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at FROM students WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find student %d: %w", id, err)
	}
	return &s, nil
}

// FindAll returns all students ordered by id.
func (r *StudentRepository) FindAll(ctx context.Context) ([]Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at FROM students ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// DisplayName returns a student's name, or "" when unknown. The frame
// pipeline uses it to label annotated faces.
func (r *StudentRepository) DisplayName(ctx context.Context, id int64) (string, error) {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return s.Name, nil
}

// DisplayNames returns an id to name map for frame annotation.
func (r *StudentRepository) DisplayNames(ctx context.Context) (map[int64]string, error) {
	students, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}
	return names, nil
}
