package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/auth"
	"github.com/user/bookscraper-service/internal/books"
	"github.com/user/bookscraper-service/internal/config"
	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/monitoring"
	"github.com/user/bookscraper-service/internal/storage"
	"github.com/user/bookscraper-service/internal/task"
)

// Dispatcher queues scrape jobs for background execution.
type Dispatcher interface {
	Dispatch(taskID string, cfg domain.ScrapeConfig) error
}

// ScrapeMarker tracks recently scraped start URLs. A nil marker disables the
// duplicate-submission check.
type ScrapeMarker interface {
	Ping(ctx context.Context) error
	IsRecentlyScraped(ctx context.Context, url string) (bool, error)
	MarkScraped(ctx context.Context, url string) error
	ClearScraped(ctx context.Context, url string) error
}

// UserStore is the relational user repository.
type UserStore interface {
	Ping(ctx context.Context) error
	CreateUser(ctx context.Context, u *domain.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateUser(ctx context.Context, id int64, upd storage.UserUpdate) error
	DeleteUser(ctx context.Context, id int64) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	config     *config.Config
	router     http.Handler
	httpServer *http.Server
	registry   *task.Registry
	dispatcher Dispatcher
	books      *books.Service
	users      UserStore
	marker     ScrapeMarker
	tokens     *auth.Manager
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

func NewServer(cfg *config.Config, registry *task.Registry, dispatcher Dispatcher, bs *books.Service, users UserStore, marker ScrapeMarker, tokens *auth.Manager, m *monitoring.Metrics, l *zap.Logger) *Server {
	s := &Server{
		config:     cfg,
		registry:   registry,
		dispatcher: dispatcher,
		books:      bs,
		users:      users,
		marker:     marker,
		tokens:     tokens,
		metrics:    m,
		logger:     l,
	}
	s.router = s.setupRouter()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.ServerPort),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- Helper Functions ---

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
