package mariadb

import (
	"context"
	"fmt"
	"time"
)

// LegacyStudent mirrors the old deployment's students table.
type LegacyStudent struct {
	ID   int64
	Name string
}

// LegacyAttendance mirrors the old deployment's attendances table,
// where the full timestamp doubled as the record key.
type LegacyAttendance struct {
	StudentID int64
	Timestamp time.Time
}

// Students reads all students from the legacy database.
func (p *Pool) Students(ctx context.Context) ([]LegacyStudent, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT id, name FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("read legacy students: %w", err)
	}
	defer rows.Close()

	var students []LegacyStudent
	for rows.Next() {
		var s LegacyStudent
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan legacy student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Attendances reads all attendance records from the legacy database.
func (p *Pool) Attendances(ctx context.Context) ([]LegacyAttendance, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT student_id, date FROM attendances ORDER BY date")
	if err != nil {
		return nil, fmt.Errorf("read legacy attendances: %w", err)
	}
	defer rows.Close()

	var records []LegacyAttendance
	for rows.Next() {
		var a LegacyAttendance
		if err := rows.Scan(&a.StudentID, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan legacy attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}
