package web

import (
	"github.com/findingthem/findingthem/internal/web/handlers"
	"github.com/findingthem/findingthem/internal/web/middleware"
	"github.com/go-chi/chi/v5"
)

func (s *Server) setupRoutes(sessionManager *middleware.SessionManager, deps Deps) {
	// Create handlers
	authHandler := handlers.NewAuthHandler(deps.Accounts, sessionManager, deps.Orchestrator.Results())
	reportsHandler := handlers.NewReportsHandler(deps.Orchestrator, deps.Reports, deps.Photos)
	imagesHandler := handlers.NewImagesHandler(deps.Photos)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Auth routes
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Report routes require an authenticated session
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))

			r.Post("/reports", reportsHandler.Submit)
			r.Get("/reports", reportsHandler.List)
			r.Get("/reports/results", reportsHandler.Results)
		})
	})

	// Stored report photos
	s.router.Get("/uploads/{filename}", imagesHandler.Get)
}
