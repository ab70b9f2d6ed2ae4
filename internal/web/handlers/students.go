package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/classtrack/rollcall/internal/database/postgres"
)

// StudentStore is the student lookup surface the handlers need.
type StudentStore interface {
	FindByID(ctx context.Context, id int64) (*postgres.Student, error)
	FindAll(ctx context.Context) ([]postgres.Student, error)
}

// AttendanceStore is the attendance read surface the handlers need.
type AttendanceStore interface {
	FindByStudent(ctx context.Context, studentID int64) ([]postgres.Attendance, error)
	FindByDate(ctx context.Context, day string) ([]postgres.Attendance, error)
}

// StudentHandler serves student profiles and attendance history.
type StudentHandler struct {
	students    StudentStore
	attendances AttendanceStore
}

// NewStudentHandler creates a new student handler.
func NewStudentHandler(students StudentStore, attendances AttendanceStore) *StudentHandler {
	return &StudentHandler{students: students, attendances: attendances}
}

// StudentResponse is one student profile.
type StudentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// List returns all enrolled students.
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.FindAll(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list students")
		return
	}

	resp := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		resp = append(resp, StudentResponse{ID: s.ID, Name: s.Name})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"students": resp,
		"count":    len(resp),
	})
}

// AttendanceEntry is one day in a student's attendance history.
type AttendanceEntry struct {
	Date       string `json:"date"`
	RecordedAt string `json:"recorded_at"`
}

// History returns one student's attendance records, oldest first.
func (h *StudentHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student, err := h.students.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load student")
		return
	}
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}

	records, err := h.attendances.FindByStudent(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load attendance history")
		return
	}

	entries := make([]AttendanceEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, AttendanceEntry{
			Date:       rec.AttendDate,
			RecordedAt: rec.RecordedAt.Format("15:04:05"),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"student":    StudentResponse{ID: student.ID, Name: student.Name},
		"attendance": entries,
	})
}
