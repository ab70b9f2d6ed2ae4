package postgres

import (
	"context"
	"fmt"

	"github.com/classtrack/rollcall/internal/schedule"
)

// settingsRow is the single active schedule row.
const settingsRowID = 1

// SettingsRepository stores the active schedule. It implements
// schedule.Provider for the ledger write path and reporting.
type SettingsRepository struct {
	pool *Pool
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(pool *Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// ActiveSchedule returns the current schedule.
func (r *SettingsRepository) ActiveSchedule(ctx context.Context) (schedule.Schedule, error) {
	var start, end string
	var grace int
	err := r.pool.QueryRow(ctx, `
		SELECT to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), late_grace_minutes
		FROM settings WHERE id = $1
	`, settingsRowID).Scan(&start, &end, &grace)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("read settings: %w", err)
	}
	return schedule.Parse(start, end, grace)
}

// UpdateSchedule replaces the active schedule. The caller validates the
// schedule first; invalid values never reach the row.
func (r *SettingsRepository) UpdateSchedule(ctx context.Context, sched schedule.Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE settings
		SET start_time = $1, end_time = $2, late_grace_minutes = $3, updated_at = NOW()
		WHERE id = $4
	`, sched.Start.String(), sched.End.String(), sched.LateGraceMinutes, settingsRowID)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
