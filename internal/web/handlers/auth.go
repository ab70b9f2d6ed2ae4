package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/web/middleware"
)

// TeacherStore is the account lookup surface the auth handler needs.
type TeacherStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (int64, error)
	FindByEmail(ctx context.Context, email string) (*postgres.Teacher, error)
	FindByID(ctx context.Context, id int64) (*postgres.Teacher, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	teachers       TeacherStore
	sessionManager *middleware.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(teachers TeacherStore, sm *middleware.SessionManager) *AuthHandler {
	return &AuthHandler{
		teachers:       teachers,
		sessionManager: sm,
	}
}

// signupRequest represents an account creation request
type signupRequest struct {
	name     string
	email    string
	password string
}

func (s *signupRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal signup request: %w", err)
	}
	s.name = raw["name"]
	s.email = raw["email"]
	s.password = raw["password"]
	return nil
}

// loginRequest represents a login request
type loginRequest struct {
	email    string
	password string
}

func (l *loginRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal login request: %w", err)
	}
	l.email = raw["email"]
	l.password = raw["password"]
	return nil
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Signup creates a teacher account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.email = strings.TrimSpace(strings.ToLower(req.email))
	if req.name == "" || req.email == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	existing, err := h.teachers.FindByEmail(r.Context(), req.email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	id, err := h.teachers.Create(r.Context(), req.name, req.email, string(hash))
	if err != nil {
		log.Printf("creating teacher account for %s: %v", sanitizeForLog(req.email), err)
		respondError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      id,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.email = strings.TrimSpace(strings.ToLower(req.email))
	if req.email == "" || req.password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	teacher, err := h.teachers.FindByEmail(r.Context(), req.email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if teacher == nil || bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.password)) != nil {
		respondJSON(w, http.StatusUnauthorized, LoginResponse{
			Success: false,
			Error:   "invalid credentials",
		})
		return
	}

	session, err := h.sessionManager.CreateSession(r.Context(), teacher.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.sessionManager.SetSessionCookie(w, session)

	respondJSON(w, http.StatusOK, LoginResponse{
		Success:   true,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session != nil {
		h.sessionManager.DeleteSession(r.Context(), session.ID)
	}

	h.sessionManager.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StatusResponse represents the auth status response
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Name          string `json:"name,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// Status checks if the user is authenticated by validating the session.
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	session := h.sessionManager.GetSessionFromRequest(r)
	if session == nil {
		respondJSON(w, http.StatusOK, StatusResponse{Authenticated: false})
		return
	}

	resp := StatusResponse{
		Authenticated: true,
		ExpiresAt:     session.ExpiresAt.Format("2006-01-02T15:04:05Z"),
	}
	if teacher, err := h.teachers.FindByID(r.Context(), session.TeacherID); err == nil && teacher != nil {
		resp.Name = teacher.Name
	}
	respondJSON(w, http.StatusOK, resp)
}
