package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/classtrack/rollcall/internal/database/postgres"
	"github.com/classtrack/rollcall/internal/web/middleware"
)

// fakeTeachers is an in-memory TeacherStore.
type fakeTeachers struct {
	byEmail map[string]*postgres.Teacher
	nextID  int64
}

func newFakeTeachers() *fakeTeachers {
	return &fakeTeachers{byEmail: make(map[string]*postgres.Teacher), nextID: 1}
}

func (f *fakeTeachers) Create(ctx context.Context, name, email, passwordHash string) (int64, error) {
	t := &postgres.Teacher{ID: f.nextID, Name: name, Email: email, PasswordHash: passwordHash}
	f.byEmail[email] = t
	f.nextID++
	return t.ID, nil
}

func (f *fakeTeachers) FindByEmail(ctx context.Context, email string) (*postgres.Teacher, error) {
	return f.byEmail[email], nil
}

func (f *fakeTeachers) FindByID(ctx context.Context, id int64) (*postgres.Teacher, error) {
	for _, t := range f.byEmail {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *fakeTeachers) {
	t.Helper()
	sm := middleware.NewSessionManager("test-secret", nil)
	t.Cleanup(sm.Stop)
	teachers := newFakeTeachers()
	return NewAuthHandler(teachers, sm), teachers
}

func registerTeacher(t *testing.T, teachers *fakeTeachers, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	if _, err := teachers.Create(context.Background(), "Test Teacher", email, string(hash)); err != nil {
		t.Fatalf("creating teacher: %v", err)
	}
}

func TestSignupCreatesAccount(t *testing.T) {
	h, teachers := newTestAuthHandler(t)

	body := `{"name": "Test Teacher", "email": "T@Example.com", "password": "hunter22"}`
	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body)))
	assertStatusCode(t, rec, http.StatusCreated)

	// Emails are stored lowercased.
	teacher := teachers.byEmail["t@example.com"]
	if teacher == nil {
		t.Fatal("account not created")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte("hunter22")); err != nil {
		t.Error("stored hash does not match the password")
	}
	if teacher.PasswordHash == "hunter22" {
		t.Error("password stored in plaintext")
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	h, teachers := newTestAuthHandler(t)
	registerTeacher(t, teachers, "t@example.com", "hunter22")

	body := `{"name": "Other", "email": "t@example.com", "password": "other"}`
	rec := httptest.NewRecorder()
	h.Signup(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", strings.NewReader(body)))
	assertStatusCode(t, rec, http.StatusConflict)
}

func TestLoginSuccess(t *testing.T) {
	h, teachers := newTestAuthHandler(t)
	registerTeacher(t, teachers, "t@example.com", "hunter22")

	body := `{"email": "t@example.com", "password": "hunter22"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	assertStatusCode(t, rec, http.StatusOK)

	var resp LoginResponse
	parseJSONResponse(t, rec, &resp)
	if !resp.Success || resp.SessionID == "" {
		t.Errorf("unexpected login response: %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value == "" {
		t.Error("expected a session cookie")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, teachers := newTestAuthHandler(t)
	registerTeacher(t, teachers, "t@example.com", "hunter22")

	body := `{"email": "t@example.com", "password": "wrong"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	assertStatusCode(t, rec, http.StatusUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	body := `{"email": "nobody@example.com", "password": "hunter22"}`
	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	assertStatusCode(t, rec, http.StatusUnauthorized)
}

func TestStatusAfterLoginAndLogout(t *testing.T) {
	h, teachers := newTestAuthHandler(t)
	registerTeacher(t, teachers, "t@example.com", "hunter22")

	body := `{"email": "t@example.com", "password": "hunter22"}`
	loginRec := httptest.NewRecorder()
	h.Login(loginRec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	assertStatusCode(t, loginRec, http.StatusOK)
	cookie := loginRec.Result().Cookies()[0]

	statusReq := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	statusReq.AddCookie(cookie)
	statusRec := httptest.NewRecorder()
	h.Status(statusRec, statusReq)

	var status StatusResponse
	parseJSONResponse(t, statusRec, &status)
	if !status.Authenticated || status.Name != "Test Teacher" {
		t.Errorf("unexpected status after login: %+v", status)
	}

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	logoutReq.AddCookie(cookie)
	h.Logout(httptest.NewRecorder(), logoutReq)

	statusReq2 := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	statusReq2.AddCookie(cookie)
	statusRec2 := httptest.NewRecorder()
	h.Status(statusRec2, statusReq2)

	parseJSONResponse(t, statusRec2, &status)
	if status.Authenticated {
		t.Error("expected unauthenticated status after logout")
	}
}
