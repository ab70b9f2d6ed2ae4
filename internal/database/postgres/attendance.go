package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Attendance is one persisted attendance record.
type Attendance struct {
	ID         int64
	StudentID  int64
	AttendDate string // ledger.DayLayout
	RecordedAt time.Time
}

// AttendanceRepository persists attendance records. It implements
// ledger.Store: the per-day uniqueness is enforced by the
// UNIQUE (student_id, attend_date) constraint, so the check-then-insert
// is a single atomic statement and stays correct across processes.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// InsertIfAbsent inserts a record for (studentID, day) unless one
// exists. Returns true when a row was inserted.
func (r *AttendanceRepository) InsertIfAbsent(ctx context.Context, studentID int64, ts time.Time, day string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		INSERT INTO attendances (student_id, attend_date, recorded_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id, attend_date) DO NOTHING
	`, studentID, day, ts)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return n > 0, nil
}

// FindByStudent returns a student's attendance history, oldest first.
func (r *AttendanceRepository) FindByStudent(ctx context.Context, studentID int64) ([]Attendance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, to_char(attend_date, 'YYYY-MM-DD'), recorded_at
		FROM attendances
		WHERE student_id = $1
		ORDER BY attend_date
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list attendance for student %d: %w", studentID, err)
	}
	return scanAttendances(rows)
}

// FindByDate returns all records for one calendar day.
func (r *AttendanceRepository) FindByDate(ctx context.Context, day string) ([]Attendance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, to_char(attend_date, 'YYYY-MM-DD'), recorded_at
		FROM attendances
		WHERE attend_date = $1
		ORDER BY recorded_at
	`, day)
	if err != nil {
		return nil, fmt.Errorf("list attendance for %s: %w", day, err)
	}
	return scanAttendances(rows)
}

// FindAll returns every attendance record, oldest first.
func (r *AttendanceRepository) FindAll(ctx context.Context) ([]Attendance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, to_char(attend_date, 'YYYY-MM-DD'), recorded_at
		FROM attendances
		ORDER BY attend_date, student_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return scanAttendances(rows)
}

func scanAttendances(rows *sql.Rows) ([]Attendance, error) {
	defer rows.Close()
	var records []Attendance
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.StudentID, &a.AttendDate, &a.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
