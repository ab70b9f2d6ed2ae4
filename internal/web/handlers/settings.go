package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/classtrack/rollcall/internal/schedule"
)

// SettingsStore reads and writes the active schedule.
type SettingsStore interface {
	ActiveSchedule(ctx context.Context) (schedule.Schedule, error)
	UpdateSchedule(ctx context.Context, sched schedule.Schedule) error
}

// SettingsHandler serves the schedule settings endpoints.
type SettingsHandler struct {
	settings SettingsStore
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings SettingsStore) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get returns the active schedule.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sched, err := h.settings.ActiveSchedule(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondJSON(w, http.StatusOK, scheduleResponse(sched))
}

// updateSettingsRequest is a schedule update.
type updateSettingsRequest struct {
	startTime string
	endTime   string
	lateGrace int
}

func (u *updateSettingsRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		LateGrace int    `json:"late_grace_minutes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal settings request: %w", err)
	}
	u.startTime = raw.StartTime
	u.endTime = raw.EndTime
	u.lateGrace = raw.LateGrace
	return nil
}

// Update replaces the active schedule. Invalid schedules are rejected
// with 400 and leave the stored schedule untouched.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	sched, err := schedule.Parse(req.startTime, req.endTime, req.lateGrace)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.settings.UpdateSchedule(r.Context(), sched); err != nil {
		if errors.Is(err, schedule.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}

	respondJSON(w, http.StatusOK, scheduleResponse(sched))
}
