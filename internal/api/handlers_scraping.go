package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/scrape"
	"github.com/user/bookscraper-service/internal/task"
)

type startScrapeResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type taskStatusResponse struct {
	TaskID        string     `json:"task_id"`
	Status        string     `json:"status"`
	Progress      int        `json:"progress"`
	Message       string     `json:"message"`
	TotalProducts int        `json:"total_products"`
	Error         string     `json:"error,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (s *Server) handleStartScrape(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ScrapeConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := url.ParseRequestURI(cfg.StartURL); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid start_url")
		return
	}
	if cfg.ContainerSelector == "" || cfg.ItemSelector == "" || cfg.NextPageSelector == "" {
		s.respondWithError(w, http.StatusBadRequest, "container_selector, item_selector and next_page_selector are required")
		return
	}

	if s.marker != nil {
		if cfg.ForceRescrape {
			if err := s.marker.ClearScraped(r.Context(), cfg.StartURL); err != nil {
				s.logger.Warn("failed to clear scraped marker", zap.String("url", cfg.StartURL), zap.Error(err))
			}
		} else {
			recent, err := s.marker.IsRecentlyScraped(r.Context(), cfg.StartURL)
			if err != nil {
				s.logger.Error("failed to check scraped marker", zap.String("url", cfg.StartURL), zap.Error(err))
			}
			if recent {
				s.respondWithError(w, http.StatusConflict, "URL was scraped recently; set force_rescrape to override")
				return
			}
		}
	}

	taskID := uuid.NewString()
	if err := s.registry.Create(taskID); err != nil {
		s.logger.Error("failed to create task", zap.String("task_id", taskID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not create task")
		return
	}

	if err := s.dispatcher.Dispatch(taskID, cfg); err != nil {
		if errors.Is(err, scrape.ErrQueueFull) {
			s.registry.Update(taskID, task.Update{
				Status:  taskStatusPtr(task.StatusFailed),
				Message: strPtr("rejected: scrape queue is full"),
				Error:   strPtr(err.Error()),
			})
			s.respondWithError(w, http.StatusServiceUnavailable, "Scrape queue is full, try again later")
			return
		}
		s.logger.Error("failed to dispatch task", zap.String("task_id", taskID), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "Could not dispatch task")
		return
	}

	if s.marker != nil {
		if err := s.marker.MarkScraped(r.Context(), cfg.StartURL); err != nil {
			s.logger.Warn("failed to set scraped marker", zap.String("url", cfg.StartURL), zap.Error(err))
		}
	}

	s.logger.Info("scrape task accepted", zap.String("task_id", taskID), zap.String("start_url", cfg.StartURL))
	s.respondWithJSON(w, http.StatusAccepted, startScrapeResponse{
		TaskID:  taskID,
		Status:  string(task.StatusWaiting),
		Message: "Scraping started in background. Poll the task id for progress.",
	})
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.registry.Get(id)
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, "Task not found")
		return
	}
	s.respondWithJSON(w, http.StatusOK, statusResponse(rec))
}

func (s *Server) handleTaskResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.registry.Get(id)
	if err != nil {
		s.respondWithError(w, http.StatusNotFound, "Task not found")
		return
	}
	if rec.Status != task.StatusCompleted {
		s.respondWithError(w, http.StatusBadRequest, "Task is "+string(rec.Status)+", wait for completion")
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"task_id":        rec.ID,
		"total_products": len(rec.Results),
		"products":       rec.Results,
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	all := s.registry.ListAll()

	summary := map[task.Status]int{
		task.StatusWaiting:   0,
		task.StatusRunning:   0,
		task.StatusCompleted: 0,
		task.StatusFailed:    0,
	}
	tasks := make(map[string]taskStatusResponse, len(all))
	for id, rec := range all {
		summary[rec.Status]++
		tasks[id] = statusResponse(rec)
	}

	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total_tasks": len(all),
		"summary":     summary,
		"tasks":       tasks,
	})
}

func (s *Server) handlePurgeCompleted(w http.ResponseWriter, r *http.Request) {
	n := s.registry.PurgeCompleted()
	s.logger.Info("purged completed tasks", zap.Int("count", n))
	s.respondWithJSON(w, http.StatusOK, map[string]int{"purged": n})
}

func (s *Server) handleScrapingHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "book scraper",
	})
}

func statusResponse(rec task.Record) taskStatusResponse {
	return taskStatusResponse{
		TaskID:        rec.ID,
		Status:        string(rec.Status),
		Progress:      rec.Progress,
		Message:       rec.Message,
		TotalProducts: len(rec.Results),
		Error:         rec.Error,
		CreatedAt:     rec.CreatedAt,
		CompletedAt:   rec.CompletedAt,
	}
}

func strPtr(s string) *string              { return &s }
func taskStatusPtr(st task.Status) *task.Status { return &st }
