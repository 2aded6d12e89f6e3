package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Browser auth.
	mux.HandleFunc("POST /v1/auth/signup", s.handleAuthSignup)
	mux.HandleFunc("POST /v1/auth/login", s.handleAuthLogin)
	mux.HandleFunc("POST /v1/auth/logout", s.handleAuthLogout)
	mux.HandleFunc("GET /v1/auth/me", s.handleAuthMe)

	// Dashboard and cycle state; all behind a session.
	mux.Handle("GET /v1/dashboard", s.requireSession(s.handleDashboard))
	mux.Handle("POST /v1/days/{id}/completion", s.requireSession(s.handleToggleDay))
	mux.Handle("POST /v1/tasks/{id}/completion", s.requireSession(s.handleToggleTask))
	mux.Handle("POST /v1/cycles/{id}/advance", s.requireSession(s.handleAdvanceCycle))

	// Admin user provisioning; behind the admin bearer token.
	mux.Handle("GET /v1/admin/users", s.requireAdminToken(s.handleAdminUserList))
	mux.Handle("POST /v1/admin/users", s.requireAdminToken(s.handleAdminUserCreate))
	mux.Handle("PATCH /v1/admin/users/{username}", s.requireAdminToken(s.handleAdminUserUpdate))
	mux.Handle("DELETE /v1/admin/users/{username}", s.requireAdminToken(s.handleAdminUserDelete))

	return s.withRequestLogging(mux)
}
