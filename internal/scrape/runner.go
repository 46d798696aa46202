package scrape

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/monitoring"
	"github.com/user/bookscraper-service/internal/task"
)

// ErrQueueFull is returned by Dispatch when the job queue is saturated.
var ErrQueueFull = errors.New("scrape queue is full")

// Exporter persists collected products. The destination extension selects the
// format; the returned path reflects any version suffix applied.
type Exporter interface {
	Write(records []domain.Product, dest string, autoVersion bool) (string, error)
}

// Options configures the Runner.
type Options struct {
	Workers    int
	QueueSize  int
	ItemDelay  time.Duration
	ExportDir  string
	ExportBase string // file name without extension
}

type job struct {
	taskID string
	config domain.ScrapeConfig
}

// Runner executes scrape jobs on a bounded worker pool, reporting every phase
// transition to the task registry. Failures never escape a job: they land in
// the task record's error field.
type Runner struct {
	registry *task.Registry
	exporter Exporter
	sessions SessionFactory
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	opts     Options

	queue      chan job
	stopChan   chan struct{}
	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup
}

func NewRunner(registry *task.Registry, exporter Exporter, sessions SessionFactory, m *monitoring.Metrics, logger *zap.Logger, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 3
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 32
	}
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Runner{
		registry:   registry,
		exporter:   exporter,
		sessions:   sessions,
		metrics:    m,
		logger:     logger,
		opts:       opts,
		queue:      make(chan job, opts.QueueSize),
		stopChan:   make(chan struct{}),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}
}

func (r *Runner) Start() {
	for i := 0; i < r.opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

// Stop cancels in-flight jobs and waits for the workers to drain.
func (r *Runner) Stop() {
	close(r.stopChan)
	r.baseCancel()
	r.wg.Wait()
}

// Dispatch queues a job for execution. The task record must already exist.
func (r *Runner) Dispatch(taskID string, cfg domain.ScrapeConfig) error {
	select {
	case r.queue <- job{taskID: taskID, config: cfg}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case j := <-r.queue:
			r.run(j)
		case <-r.stopChan:
			return
		}
	}
}

func (r *Runner) run(j job) {
	start := time.Now()
	r.logger.Info("scrape job starting", zap.String("task_id", j.taskID), zap.String("start_url", j.config.StartURL))

	r.registry.Update(j.taskID, task.Update{
		Status:   ptr(task.StatusRunning),
		Progress: ptr(5),
		Message:  ptr("starting scraper"),
	})

	loader, release, err := r.sessions(r.baseCtx)
	if err != nil {
		r.fail(j.taskID, fmt.Errorf("open browser session: %w", err))
		return
	}
	defer release()

	walker := NewWalker(loader, j.config, r.opts.ItemDelay, r.logger)
	walker.OnPage = func(page, total int) {
		r.metrics.AddPage()
		r.registry.Update(j.taskID, task.Update{
			Progress: ptr(pageProgress(page)),
			Message:  ptr(fmt.Sprintf("page %d done, %d products collected", page, total)),
		})
	}

	products, err := walker.Run(r.baseCtx, j.config.StartURL)
	if err != nil {
		r.fail(j.taskID, err)
		return
	}

	if len(products) > 0 {
		dest := filepath.Join(r.opts.ExportDir, r.opts.ExportBase+exportExt(j.config.SaveExcel))
		path, err := r.exporter.Write(products, dest, false)
		if err != nil {
			r.fail(j.taskID, fmt.Errorf("export results: %w", err))
			return
		}
		r.logger.Info("results exported", zap.String("task_id", j.taskID), zap.String("path", path))
	}

	if products == nil {
		products = []domain.Product{}
	}
	now := time.Now()
	r.registry.Update(j.taskID, task.Update{
		Status:      ptr(task.StatusCompleted),
		Progress:    ptr(100),
		Message:     ptr(fmt.Sprintf("scraping finished, %d products collected", len(products))),
		Results:     products,
		CompletedAt: &now,
	})

	r.metrics.AddProducts(len(products))
	r.metrics.IncJob("completed")
	r.metrics.ObserveJobDuration(time.Since(start).Seconds())
	r.logger.Info("scrape job completed",
		zap.String("task_id", j.taskID),
		zap.Int("products", len(products)),
		zap.Duration("duration", time.Since(start)))
}

func (r *Runner) fail(taskID string, jobErr error) {
	now := time.Now()
	r.registry.Update(taskID, task.Update{
		Status:      ptr(task.StatusFailed),
		Message:     ptr("scraping failed: " + jobErr.Error()),
		Error:       ptr(jobErr.Error()),
		CompletedAt: &now,
	})
	r.metrics.IncJob("failed")
	r.logger.Error("scrape job failed", zap.String("task_id", taskID), zap.Error(jobErr))
}

// pageProgress creeps toward 90; the jump to 100 happens on completion. Total
// page count is unknown up front, so this is a rough monotonic signal.
func pageProgress(page int) int {
	p := 5 + page*5
	if p > 90 {
		p = 90
	}
	return p
}

func exportExt(excel bool) string {
	if excel {
		return ".xlsx"
	}
	return ".csv"
}

func ptr[T any](v T) *T { return &v }
