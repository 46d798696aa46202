package task

import (
	"time"

	"github.com/user/bookscraper-service/internal/domain"
)

// Status is the lifecycle state of a scrape task.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record tracks one scrape job. Records are owned by the Registry; callers
// only ever see copies.
type Record struct {
	ID          string           `json:"task_id"`
	Status      Status           `json:"status"`
	Progress    int              `json:"progress"`
	Message     string           `json:"message"`
	Results     []domain.Product `json:"results,omitempty"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Update is a partial change to a Record. Nil fields are left untouched.
type Update struct {
	Status      *Status
	Progress    *int
	Message     *string
	Results     []domain.Product
	Error       *string
	CompletedAt *time.Time
}

func (r *Record) clone() Record {
	out := *r
	if r.Results != nil {
		out.Results = make([]domain.Product, len(r.Results))
		copy(out.Results, r.Results)
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
