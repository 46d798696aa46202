package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.requestLogger)
	r.Use(s.requestMetrics)

	r.Get("/metrics", promhttp.Handler().(http.HandlerFunc))
	r.Get("/api/health", s.handleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/scraping", func(r chi.Router) {
			r.Get("/health", s.handleScrapingHealth)
			r.With(s.requireAuth).Post("/start", s.handleStartScrape)
			r.Get("/tasks", s.handleListTasks)
			r.Get("/tasks/{id}", s.handleTaskStatus)
			r.Get("/tasks/{id}/results", s.handleTaskResults)
			r.With(s.requireAuth).Delete("/tasks/completed", s.handlePurgeCompleted)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/health", s.handleBooksHealth)
			r.Get("/search", s.handleSearchBooks)
			r.Get("/categories", s.handleCategories)
			r.Get("/top-rated", s.handleTopRated)
			r.Get("/price-range", s.handlePriceRange)
			r.Get("/stats", s.handleBookStats)
			r.Get("/{id}", s.handleGetBook)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
			r.With(s.requireAuth).Get("/me", s.handleCurrentUser)
			r.With(s.requireAuth, s.requireAdmin).Get("/", s.handleListUsers)
			r.With(s.requireAuth).Put("/{id}", s.handleUpdateUser)
			r.With(s.requireAuth, s.requireAdmin).Delete("/{id}", s.handleDeleteUser)
		})
	})

	return r
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthStatus := make(map[string]string)

	if s.users != nil {
		if err := s.users.Ping(ctx); err != nil {
			healthStatus["postgres"] = "unhealthy"
			s.logger.Error("health check failed for postgres", zap.Error(err))
		} else {
			healthStatus["postgres"] = "healthy"
		}
	}
	if s.marker != nil {
		if err := s.marker.Ping(ctx); err != nil {
			healthStatus["redis"] = "unhealthy"
			s.logger.Error("health check failed for redis", zap.Error(err))
		} else {
			healthStatus["redis"] = "healthy"
		}
	}

	for _, v := range healthStatus {
		if v != "healthy" {
			s.respondWithJSON(w, http.StatusServiceUnavailable, healthStatus)
			return
		}
	}
	healthStatus["status"] = "ok"
	s.respondWithJSON(w, http.StatusOK, healthStatus)
}
