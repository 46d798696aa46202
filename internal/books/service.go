// Package books serves catalog queries over the exported dataset. The CSV
// written by the scraper is the source of truth; it is loaded into memory on
// first use and reloaded on demand.
package books

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
)

var (
	ErrNotLoaded     = errors.New("book dataset not loaded")
	ErrBookNotFound  = errors.New("book not found")
	ErrEmptySearch   = errors.New("at least one of title or category is required")
	ErrInvalidBounds = errors.New("min must not exceed max")
)

// Stats summarizes the loaded dataset.
type Stats struct {
	TotalBooks         int         `json:"total_books"`
	TotalCategories    int         `json:"total_categories"`
	AveragePrice       float64     `json:"average_price"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}

type Service struct {
	path   string
	logger *zap.Logger

	mu    sync.RWMutex
	books []domain.Book
}

func NewService(path string, logger *zap.Logger) *Service {
	return &Service{path: path, logger: logger}
}

// Reload reads the dataset from disk, replacing whatever was loaded before.
func (s *Service) Reload() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var rows []domain.Book
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}

	s.mu.Lock()
	s.books = rows
	s.mu.Unlock()

	s.logger.Info("book dataset loaded", zap.String("path", s.path), zap.Int("books", len(rows)))
	return nil
}

func (s *Service) snapshot() ([]domain.Book, error) {
	s.mu.RLock()
	loaded := s.books != nil
	s.mu.RUnlock()

	if !loaded {
		if err := s.Reload(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotLoaded, err)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books, nil
}

// Loaded reports whether a non-empty dataset is in memory.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books) > 0
}

// List returns a page of the catalog.
func (s *Service) List(limit, offset int) ([]domain.Book, error) {
	books, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if offset >= len(books) {
		return []domain.Book{}, nil
	}
	end := offset + limit
	if end > len(books) {
		end = len(books)
	}
	return books[offset:end], nil
}

// GetByID looks up one book by its dataset id.
func (s *Service) GetByID(id int) (domain.Book, error) {
	books, err := s.snapshot()
	if err != nil {
		return domain.Book{}, err
	}
	for _, b := range books {
		if b.ID == id {
			return b, nil
		}
	}
	return domain.Book{}, ErrBookNotFound
}

// Search filters by case-insensitive substring on title and/or category.
// Both given means both must match.
func (s *Service) Search(title, category string) ([]domain.Book, error) {
	if title == "" && category == "" {
		return nil, ErrEmptySearch
	}
	books, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	title = strings.ToLower(title)
	category = strings.ToLower(category)

	out := []domain.Book{}
	for _, b := range books {
		if title != "" && !strings.Contains(strings.ToLower(b.Title), title) {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(b.Category), category) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Categories returns the distinct categories, sorted.
func (s *Service) Categories() ([]string, error) {
	books, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, b := range books {
		if b.Category != "" && b.Category != domain.NotFound {
			seen[b.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// TopRated returns up to limit books ordered by rating descending, ties
// broken by dataset order.
func (s *Service) TopRated(limit int) ([]domain.Book, error) {
	books, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Book, len(books))
	copy(out, books)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// PriceRange returns books whose parsed price falls within [min, max].
// Books with an unparsable price are excluded.
func (s *Service) PriceRange(min, max float64) ([]domain.Book, error) {
	if min > max {
		return nil, ErrInvalidBounds
	}
	books, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	out := []domain.Book{}
	for _, b := range books {
		price, ok := parsePrice(b.Price)
		if !ok {
			continue
		}
		if price >= min && price <= max {
			out = append(out, b)
		}
	}
	return out, nil
}

// Statistics computes catalog-wide aggregates.
func (s *Service) Statistics() (Stats, error) {
	books, err := s.snapshot()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		TotalBooks:         len(books),
		RatingDistribution: map[int]int{},
	}
	categories := map[string]struct{}{}
	var priceSum float64
	var priced int
	for _, b := range books {
		stats.RatingDistribution[b.Rating]++
		if b.Category != "" && b.Category != domain.NotFound {
			categories[b.Category] = struct{}{}
		}
		if p, ok := parsePrice(b.Price); ok {
			priceSum += p
			priced++
		}
	}
	stats.TotalCategories = len(categories)
	if priced > 0 {
		stats.AveragePrice = priceSum / float64(priced)
	}
	return stats, nil
}

// parsePrice strips any currency prefix ("£51.77") and parses the remainder.
func parsePrice(raw string) (float64, bool) {
	trimmed := strings.TrimLeftFunc(strings.TrimSpace(raw), func(r rune) bool {
		return !unicode.IsDigit(r)
	})
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
