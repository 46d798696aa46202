package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/books"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	if limit < 1 || limit > 1000 {
		s.respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
		return
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		s.respondWithError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}

	result, err := s.books.List(limit, offset)
	if err != nil {
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid book id")
		return
	}
	book, err := s.books.GetByID(id)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			s.respondWithError(w, http.StatusNotFound, "Book not found")
			return
		}
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, book)
}

func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	category := r.URL.Query().Get("category")

	result, err := s.books.Search(title, category)
	if err != nil {
		if errors.Is(err, books.ErrEmptySearch) {
			s.respondWithError(w, http.StatusBadRequest, "At least one of title or category is required")
			return
		}
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.books.Categories()
	if err != nil {
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"total":      len(categories),
		"categories": categories,
	})
}

func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit < 1 {
		s.respondWithError(w, http.StatusBadRequest, "limit must be positive")
		return
	}
	result, err := s.books.TopRated(limit)
	if err != nil {
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handlePriceRange(w http.ResponseWriter, r *http.Request) {
	min, err := queryFloat(r, "min", 0)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid min")
		return
	}
	max, err := queryFloat(r, "max", 1_000_000)
	if err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid max")
		return
	}

	result, err := s.books.PriceRange(min, max)
	if err != nil {
		if errors.Is(err, books.ErrInvalidBounds) {
			s.respondWithError(w, http.StatusBadRequest, "min must not exceed max")
			return
		}
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, result)
}

func (s *Server) handleBookStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.books.Statistics()
	if err != nil {
		s.respondDatasetError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBooksHealth(w http.ResponseWriter, r *http.Request) {
	if !s.books.Loaded() {
		s.respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":  "offline",
			"message": "Book dataset not loaded; run the scraper first",
		})
		return
	}
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondDatasetError(w http.ResponseWriter, err error) {
	if errors.Is(err, books.ErrNotLoaded) {
		s.respondWithError(w, http.StatusServiceUnavailable, "Book dataset not available; run the scraper first")
		return
	}
	s.logger.Error("dataset query failed", zap.Error(err))
	s.respondWithError(w, http.StatusInternalServerError, "Could not query book dataset")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return v
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}
