package task

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrDuplicateTask is returned when creating a task whose id already exists.
	ErrDuplicateTask = errors.New("task already exists")
	// ErrNotFound is returned when reading a task that does not exist.
	ErrNotFound = errors.New("task not found")
)

// Registry is a concurrency-safe store of task records. A single coarse lock
// guards the whole map; record counts stay small, so contention is not a
// concern at this scale.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Record
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Record)}
}

// Create inserts a new record in the waiting state.
func (r *Registry) Create(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; ok {
		return ErrDuplicateTask
	}
	r.tasks[id] = &Record{
		ID:        id,
		Status:    StatusWaiting,
		Progress:  0,
		Message:   "waiting for a worker",
		CreatedAt: time.Now(),
	}
	return nil
}

// Update merges the given fields into an existing record. Updates to an
// unknown id are silently dropped so that a worker racing a purge does not
// resurrect a record.
func (r *Registry) Update(id string, upd Update) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return
	}
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.Progress != nil {
		rec.Progress = *upd.Progress
	}
	if upd.Message != nil {
		rec.Message = *upd.Message
	}
	if upd.Results != nil {
		rec.Results = upd.Results
	}
	if upd.Error != nil {
		rec.Error = *upd.Error
	}
	if upd.CompletedAt != nil {
		rec.CompletedAt = upd.CompletedAt
	}
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec.clone(), nil
}

// ListAll returns copies of every record, keyed by id.
func (r *Registry) ListAll() map[string]Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Record, len(r.tasks))
	for id, rec := range r.tasks {
		out[id] = rec.clone()
	}
	return out
}

// PurgeCompleted removes every record whose status is exactly completed and
// returns the number removed. Failed records are kept for inspection.
func (r *Registry) PurgeCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, rec := range r.tasks {
		if rec.Status == StatusCompleted {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}
