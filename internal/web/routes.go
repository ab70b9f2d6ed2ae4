package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/classtrack/rollcall/internal/web/handlers"
	"github.com/classtrack/rollcall/internal/web/middleware"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager) {
	// Create handlers
	authHandler := handlers.NewAuthHandler(s.deps.Teachers, sessionManager)
	studentHandler := handlers.NewStudentHandler(s.deps.Students, s.deps.Attendances)
	timeLogHandler := handlers.NewTimeLogHandler(s.deps.Students, s.deps.Attendances, s.deps.Settings, s.deps.Zone)
	settingsHandler := handlers.NewSettingsHandler(s.deps.Settings)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// All other routes require a signed-in teacher
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			// Students
			r.Get("/students", studentHandler.List)
			r.Get("/students/{id}/attendance", studentHandler.History)

			// Attendance reporting
			r.Get("/timelogs", timeLogHandler.List)
			r.Get("/dashboard", timeLogHandler.Dashboard)

			// Schedule settings
			r.Get("/settings", settingsHandler.Get)
			r.Put("/settings", settingsHandler.Update)

			// Camera and viewer websocket
			if s.deps.Stream != nil {
				r.Get("/stream", s.deps.Stream.Serve)
			}
		})
	})
}
