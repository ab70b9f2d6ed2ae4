package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classtrack/rollcall/internal/schedule"
)

func newTestTimeLogHandler(t *testing.T, students fakeStudents, attendances fakeAttendances) *TimeLogHandler {
	t.Helper()
	h := NewTimeLogHandler(students, attendances, schedule.Fixed(testSchedule(t)), time.UTC)
	h.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestTimeLogsClassifiesArrivals(t *testing.T) {
	students := fakeStudents{
		{ID: 1, Name: "Ada Lovelace"},
		{ID: 2, Name: "Alan Turing"},
		{ID: 3, Name: "Grace Hopper"},
	}
	attendances := fakeAttendances{
		"2026-05-04": {
			attendanceAt(1, 1, "2026-05-04", "09:14:59"), // within grace
			attendanceAt(2, 2, "2026-05-04", "09:15:01"), // past grace
		},
	}
	h := newTestTimeLogHandler(t, students, attendances)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/timelogs", nil))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Date string         `json:"date"`
		Logs []TimeLogEntry `json:"logs"`
	}
	parseJSONResponse(t, rec, &resp)

	if resp.Date != "2026-05-04" {
		t.Errorf("expected today's date, got %q", resp.Date)
	}
	if len(resp.Logs) != 3 {
		t.Fatalf("expected one row per student, got %d", len(resp.Logs))
	}

	expected := map[int64]TimeLogEntry{
		1: {StudentID: 1, Name: "Ada Lovelace", Time: "09:14:59", Status: schedule.StatusOnTime},
		2: {StudentID: 2, Name: "Alan Turing", Time: "09:15:01", Status: schedule.StatusLate},
		3: {StudentID: 3, Name: "Grace Hopper", Time: "", Status: schedule.StatusNone},
	}
	for _, log := range resp.Logs {
		if log != expected[log.StudentID] {
			t.Errorf("student %d: got %+v, want %+v", log.StudentID, log, expected[log.StudentID])
		}
	}
}

func TestTimeLogsArrivalAtThresholdIsOnTime(t *testing.T) {
	students := fakeStudents{{ID: 1, Name: "Ada Lovelace"}}
	attendances := fakeAttendances{
		"2026-05-04": {attendanceAt(1, 1, "2026-05-04", "09:15:00")},
	}
	h := newTestTimeLogHandler(t, students, attendances)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/timelogs", nil))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Logs []TimeLogEntry `json:"logs"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Logs[0].Status != schedule.StatusOnTime {
		t.Errorf("arrival exactly at the threshold must be on time, got %q", resp.Logs[0].Status)
	}
}

func TestTimeLogsExplicitDate(t *testing.T) {
	students := fakeStudents{{ID: 1, Name: "Ada Lovelace"}}
	attendances := fakeAttendances{
		"2026-05-01": {attendanceAt(1, 1, "2026-05-01", "08:45:00")},
	}
	h := newTestTimeLogHandler(t, students, attendances)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/timelogs?date=2026-05-01", nil))
	assertStatusCode(t, rec, http.StatusOK)

	var resp struct {
		Date string         `json:"date"`
		Logs []TimeLogEntry `json:"logs"`
	}
	parseJSONResponse(t, rec, &resp)
	if resp.Date != "2026-05-01" {
		t.Errorf("expected requested date, got %q", resp.Date)
	}
	if resp.Logs[0].Status != schedule.StatusOnTime {
		t.Errorf("expected on time, got %q", resp.Logs[0].Status)
	}
}

func TestTimeLogsRejectsMalformedDate(t *testing.T) {
	h := newTestTimeLogHandler(t, fakeStudents{}, fakeAttendances{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/timelogs?date=yesterday", nil))
	assertStatusCode(t, rec, http.StatusBadRequest)
	assertJSONError(t, rec, "invalid date, expected YYYY-MM-DD")
}

func TestDashboardCounts(t *testing.T) {
	students := fakeStudents{
		{ID: 1, Name: "Ada Lovelace"},
		{ID: 2, Name: "Alan Turing"},
		{ID: 3, Name: "Grace Hopper"},
		{ID: 4, Name: "Edsger Dijkstra"},
	}
	attendances := fakeAttendances{
		"2026-05-04": {
			attendanceAt(1, 1, "2026-05-04", "08:59:00"),
			attendanceAt(2, 2, "2026-05-04", "09:10:00"),
			attendanceAt(3, 3, "2026-05-04", "09:40:00"),
		},
	}
	h := newTestTimeLogHandler(t, students, attendances)

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	assertStatusCode(t, rec, http.StatusOK)

	var resp DashboardResponse
	parseJSONResponse(t, rec, &resp)

	if resp.Total != 4 || resp.Present != 3 || resp.Absent != 1 {
		t.Errorf("headcounts wrong: %+v", resp)
	}
	if resp.OnTime != 2 || resp.Late != 1 {
		t.Errorf("punctuality counts wrong: on_time=%d late=%d", resp.OnTime, resp.Late)
	}
}
