package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/classtrack/rollcall/internal/ledger"
	"github.com/classtrack/rollcall/internal/schedule"
)

// TimeLogHandler reports per-student arrival status for a calendar day.
type TimeLogHandler struct {
	students    StudentStore
	attendances AttendanceStore
	schedules   schedule.Provider
	zone        *time.Location
	now         func() time.Time
}

// NewTimeLogHandler creates a new time log handler. zone decides which
// calendar day "today" is; nil means the local zone.
func NewTimeLogHandler(students StudentStore, attendances AttendanceStore, schedules schedule.Provider, zone *time.Location) *TimeLogHandler {
	if zone == nil {
		zone = time.Local
	}
	return &TimeLogHandler{
		students:    students,
		attendances: attendances,
		schedules:   schedules,
		zone:        zone,
		now:         time.Now,
	}
}

// TimeLogEntry is one student's row in the day report.
type TimeLogEntry struct {
	StudentID int64  `json:"student_id"`
	Name      string `json:"name"`
	Time      string `json:"time"`
	Status    string `json:"status"`
}

// List returns every student's arrival time and punctuality status for a
// day. Students without a record get an empty time and the absent status.
// The day defaults to today and can be overridden with ?date=YYYY-MM-DD.
func (h *TimeLogHandler) List(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = h.now().In(h.zone).Format(ledger.DayLayout)
	} else if _, err := time.Parse(ledger.DayLayout, day); err != nil {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	sched, err := h.schedules.ActiveSchedule(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	threshold := sched.Threshold()

	students, err := h.students.FindAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	records, err := h.attendances.FindByDate(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}
	arrivals := make(map[int64]time.Time, len(records))
	for _, rec := range records {
		arrivals[rec.StudentID] = rec.RecordedAt.In(h.zone)
	}

	entries := make([]TimeLogEntry, 0, len(students))
	for _, s := range students {
		entry := TimeLogEntry{
			StudentID: s.ID,
			Name:      s.Name,
			Status:    schedule.StatusNone,
		}
		if arrived, ok := arrivals[s.ID]; ok {
			entry.Time = arrived.Format("15:04:05")
			entry.Status = schedule.Classify(schedule.ClockOf(arrived), threshold)
		}
		entries = append(entries, entry)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"date":     day,
		"schedule": scheduleResponse(sched),
		"logs":     entries,
	})
}

// DashboardResponse summarizes one day's attendance.
type DashboardResponse struct {
	Date     string         `json:"date"`
	Total    int            `json:"total_students"`
	Present  int            `json:"present"`
	OnTime   int            `json:"on_time"`
	Late     int            `json:"late"`
	Absent   int            `json:"absent"`
	Schedule map[string]any `json:"schedule"`
}

// Dashboard returns aggregate counts for today.
func (h *TimeLogHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	day := h.now().In(h.zone).Format(ledger.DayLayout)

	sched, err := h.schedules.ActiveSchedule(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load schedule")
		return
	}
	threshold := sched.Threshold()

	students, err := h.students.FindAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	records, err := h.attendances.FindByDate(r.Context(), day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	resp := DashboardResponse{
		Date:     day,
		Total:    len(students),
		Present:  len(records),
		Schedule: scheduleResponse(sched),
	}
	for _, rec := range records {
		switch schedule.Classify(schedule.ClockOf(rec.RecordedAt.In(h.zone)), threshold) {
		case schedule.StatusOnTime:
			resp.OnTime++
		case schedule.StatusLate:
			resp.Late++
		default:
			log.Printf("unexpected status for attendance record %d", rec.ID)
		}
	}
	resp.Absent = resp.Total - resp.Present

	respondJSON(w, http.StatusOK, resp)
}

func scheduleResponse(s schedule.Schedule) map[string]any {
	return map[string]any{
		"start_time":         s.Start.String(),
		"end_time":           s.End.String(),
		"late_grace_minutes": s.LateGraceMinutes,
		"late_threshold":     s.Threshold().String(),
	}
}
