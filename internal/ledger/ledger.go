// Package ledger records attendance events with an at-most-one-record
// per identity per calendar day guarantee.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPersistence marks storage-layer failures. The frame pipeline logs
// these and keeps processing; other callers surface them.
var ErrPersistence = errors.New("attendance persistence failed")

// DayLayout is the calendar-date key format used for the uniqueness
// constraint.
const DayLayout = "2006-01-02"

// Outcome reports what RecordIfAbsent did.
type Outcome int

const (
	// Recorded means a new attendance record was inserted.
	Recorded Outcome = iota
	// AlreadyRecorded means the identity already had a record that day.
	AlreadyRecorded
)

func (o Outcome) String() string {
	if o == Recorded {
		return "recorded"
	}
	return "already recorded"
}

// Record is one attendance event.
type Record struct {
	IdentityID int64
	Timestamp  time.Time
}

// Store is the atomic persistence primitive behind the ledger. The
// check-then-insert must be a single atomic operation in the store
// (unique constraint plus insert-or-ignore in PostgreSQL) so the
// per-day invariant holds across goroutines and across processes.
type Store interface {
	// InsertIfAbsent inserts a record for (identityID, day) unless one
	// exists, returning true when a row was inserted. day is the
	// calendar date key in DayLayout format.
	InsertIfAbsent(ctx context.Context, identityID int64, ts time.Time, day string) (bool, error)
}

// Ledger derives calendar dates in a fixed zone and delegates the
// atomic insert to its store.
type Ledger struct {
	store Store
	zone  *time.Location
}

// New creates a ledger. A nil zone means local time.
func New(store Store, zone *time.Location) *Ledger {
	if zone == nil {
		zone = time.Local
	}
	return &Ledger{store: store, zone: zone}
}

// RecordIfAbsent records attendance for the identity on the calendar
// day of ts unless a record for that day already exists. Concurrent
// calls for the same identity and day produce exactly one record.
func (l *Ledger) RecordIfAbsent(ctx context.Context, identityID int64, ts time.Time) (Outcome, error) {
	day := ts.In(l.zone).Format(DayLayout)

	inserted, err := l.store.InsertIfAbsent(ctx, identityID, ts, day)
	if err != nil {
		return AlreadyRecorded, fmt.Errorf("%w: identity %d on %s: %v", ErrPersistence, identityID, day, err)
	}
	if inserted {
		return Recorded, nil
	}
	return AlreadyRecorded, nil
}
