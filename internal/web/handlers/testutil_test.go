package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/schedule"
)

// fakeStudents is an in-memory StudentStore.
type fakeStudents []postgres.Student

func (f fakeStudents) FindByID(ctx context.Context, id int64) (*postgres.Student, error) {
	for _, s := range f {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (f fakeStudents) FindAll(ctx context.Context) ([]postgres.Student, error) {
	return f, nil
}

// fakeAttendances is an in-memory AttendanceStore keyed by day.
type fakeAttendances map[string][]postgres.Attendance

func (f fakeAttendances) FindByStudent(ctx context.Context, studentID int64) ([]postgres.Attendance, error) {
	var records []postgres.Attendance
	for _, day := range f {
		for _, rec := range day {
			if rec.StudentID == studentID {
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

func (f fakeAttendances) FindByDate(ctx context.Context, day string) ([]postgres.Attendance, error) {
	return f[day], nil
}

// fakeSettings is an in-memory SettingsStore.
type fakeSettings struct {
	sched   schedule.Schedule
	updates int
}

func (f *fakeSettings) ActiveSchedule(ctx context.Context) (schedule.Schedule, error) {
	return f.sched, nil
}

func (f *fakeSettings) UpdateSchedule(ctx context.Context, sched schedule.Schedule) error {
	if err := sched.Validate(); err != nil {
		return err
	}
	f.sched = sched
	f.updates++
	return nil
}

// testSchedule is 09:00 to 17:00 with a 15 minute grace period.
func testSchedule(t *testing.T) schedule.Schedule {
	t.Helper()
	sched, err := schedule.Parse("09:00:00", "17:00:00", 15)
	if err != nil {
		t.Fatalf("building test schedule: %v", err)
	}
	return sched
}

// attendanceAt builds a record with the given arrival time on a day.
func attendanceAt(id, studentID int64, day string, clock string) postgres.Attendance {
	ts, err := time.Parse("2006-01-02 15:04:05", day+" "+clock)
	if err != nil {
		panic(err)
	}
	return postgres.Attendance{
		ID:         id,
		StudentID:  studentID,
		AttendDate: day,
		RecordedAt: ts.UTC(),
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
