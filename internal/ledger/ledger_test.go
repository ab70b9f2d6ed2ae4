package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// memStore is an in-memory Store with the same atomicity contract as
// the PostgreSQL unique constraint.
type memStore struct {
	mu      sync.Mutex
	rows    map[string]time.Time // "<id>/<day>" -> timestamp
	failErr error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]time.Time)}
}

func (s *memStore) InsertIfAbsent(ctx context.Context, identityID int64, ts time.Time, day string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return false, s.failErr
	}
	k := fmt.Sprintf("%d/%s", identityID, day)
	if _, ok := s.rows[k]; ok {
		return false, nil
	}
	s.rows[k] = ts
	return true, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func TestRecordIfAbsent(t *testing.T) {
	store := newMemStore()
	l := New(store, time.UTC)
	ts := time.Date(2026, 5, 4, 9, 3, 0, 0, time.UTC)

	out, err := l.RecordIfAbsent(context.Background(), 7, ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != Recorded {
		t.Errorf("expected Recorded, got %v", out)
	}

	out, err = l.RecordIfAbsent(context.Background(), 7, ts.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != AlreadyRecorded {
		t.Errorf("expected AlreadyRecorded for same day, got %v", out)
	}
	if store.count() != 1 {
		t.Errorf("expected exactly one record, got %d", store.count())
	}
}

func TestRecordIfAbsentConcurrent(t *testing.T) {
	store := newMemStore()
	l := New(store, time.UTC)
	ts := time.Date(2026, 5, 4, 9, 3, 0, 0, time.UTC)

	const n = 64
	var wg sync.WaitGroup
	recorded := make(chan Outcome, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := l.RecordIfAbsent(context.Background(), 42, ts.Add(time.Duration(i)*time.Second))
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			recorded <- out
		}(i)
	}
	wg.Wait()
	close(recorded)

	var wins int
	for out := range recorded {
		if out == Recorded {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("expected exactly one Recorded outcome from %d concurrent calls, got %d", n, wins)
	}
	if store.count() != 1 {
		t.Errorf("expected exactly one persisted record, got %d", store.count())
	}
}

func TestRecordIfAbsentDistinctDays(t *testing.T) {
	store := newMemStore()
	l := New(store, time.UTC)

	day1 := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 5, 5, 9, 0, 0, 0, time.UTC)

	for _, ts := range []time.Time{day1, day2} {
		out, err := l.RecordIfAbsent(context.Background(), 7, ts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != Recorded {
			t.Errorf("expected Recorded for %s, got %v", ts, out)
		}
	}
	if store.count() != 2 {
		t.Errorf("expected two records for two distinct days, got %d", store.count())
	}
}

func TestRecordIfAbsentDayFollowsLedgerZone(t *testing.T) {
	store := newMemStore()
	// UTC+14: 2026-05-04 23:30 UTC is already 2026-05-05 there.
	zone := time.FixedZone("UTC+14", 14*3600)
	l := New(store, zone)

	late := time.Date(2026, 5, 4, 23, 30, 0, 0, time.UTC)
	early := time.Date(2026, 5, 4, 1, 0, 0, 0, time.UTC)

	if out, _ := l.RecordIfAbsent(context.Background(), 7, early); out != Recorded {
		t.Fatalf("expected first record, got %v", out)
	}
	// Same UTC day, different ledger-zone day: must record again.
	if out, _ := l.RecordIfAbsent(context.Background(), 7, late); out != Recorded {
		t.Errorf("expected record on the next ledger-zone day, got %v", out)
	}
}

func TestRecordIfAbsentPersistenceError(t *testing.T) {
	store := newMemStore()
	store.failErr = errors.New("connection refused")
	l := New(store, time.UTC)

	_, err := l.RecordIfAbsent(context.Background(), 7, time.Now())
	if !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}
