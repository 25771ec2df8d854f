// Package worker contains the background pipeline that drafts report
// narratives for submitted assessments. It is decoupled from the HTTP layer:
// the api package holds a worker.Enqueuer interface and calls Enqueue. It
// never imports the concrete Runner.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
)

// ─── ENQUEUER INTERFACE ───────────────────────────────────────────────────────

// Enqueuer is the narrow interface the api package uses to hand off an
// assessment after it is submitted.
//
// The concrete implementation is *Runner. In tests, any struct with an Enqueue
// method satisfies the interface.
type Enqueuer interface {
	Enqueue(ctx context.Context, assessmentID uuid.UUID) error
}

// runnable is the unit of work a Runner executes. *Job satisfies it.
type runnable interface {
	Run(ctx context.Context, id uuid.UUID) error
}

// ─── RUNNER ───────────────────────────────────────────────────────────────────

// RunnerConfig holds tuning parameters for the Runner. Zero fields take the
// values from DefaultRunnerConfig.
type RunnerConfig struct {
	// Workers is the number of concurrent job goroutines. Default: 3.
	Workers int

	// PollInterval is how often the poller checks
	// ListAssessmentsAwaitingNarrative for work the channel missed (for
	// example after a restart). Default: 30s.
	PollInterval time.Duration

	// PollBatch caps how many assessments one poll enqueues. Default: 50.
	PollBatch int32

	// JobTimeout is the per-attempt context deadline. Default: 2 minutes.
	// Keep it above the narrative timeout.
	JobTimeout time.Duration

	// MaxRetries is the number of attempts before the runner gives up until
	// the next poll. Default: 3.
	MaxRetries int
}

// DefaultRunnerConfig returns safe production defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:      3,
		PollInterval: 30 * time.Second,
		PollBatch:    50,
		JobTimeout:   2 * time.Minute,
		MaxRetries:   3,
	}
}

// Runner manages a pool of worker goroutines. It accepts work via an
// in-process channel (fast path, used on submit) and also polls the database
// so scored assessments without a narrative are picked up after a restart.
type Runner struct {
	job    runnable
	q      db.Querier
	cfg    RunnerConfig
	logger *slog.Logger

	// backoff returns the wait after a failed attempt.
	backoff func(attempt int) time.Duration

	queue chan uuid.UUID
	wg    sync.WaitGroup
}

// NewRunner constructs a Runner. Call Start() to begin processing.
func NewRunner(job *Job, q db.Querier, cfg RunnerConfig, logger *slog.Logger) *Runner {
	return newRunner(job, q, cfg, logger)
}

func newRunner(job runnable, q db.Querier, cfg RunnerConfig, logger *slog.Logger) *Runner {
	def := DefaultRunnerConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PollBatch <= 0 {
		cfg.PollBatch = def.PollBatch
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = def.JobTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}

	return &Runner{
		job:    job,
		q:      q,
		cfg:    cfg,
		logger: logger,
		// Exponential back-off: 2s, 4s, 8s …
		backoff: func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
		// Buffer = Workers*2 so Enqueue never blocks under normal load.
		queue: make(chan uuid.UUID, cfg.Workers*2),
	}
}

// Enqueue pushes an assessment ID onto the in-process channel. If the
// channel is full it returns an error rather than blocking the HTTP response;
// the poller picks the assessment up later.
func (r *Runner) Enqueue(_ context.Context, assessmentID uuid.UUID) error {
	select {
	case r.queue <- assessmentID:
		r.logger.Info("worker: enqueued assessment", "assessment_id", assessmentID)
		return nil
	default:
		return errors.New("worker: queue is full, assessment will be picked up by poller")
	}
}

// Start launches the worker pool and the poller. It blocks until ctx is
// cancelled. Call it in a goroutine from main:
//
//	go runner.Start(ctx)
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("worker: starting", "workers", r.cfg.Workers, "poll_interval", r.cfg.PollInterval)

	for i := range r.cfg.Workers {
		r.wg.Add(1)
		go r.work(ctx, i)
	}

	r.wg.Add(1)
	go r.poll(ctx)

	r.wg.Wait()
	r.logger.Info("worker: stopped")
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	log := r.logger.With("worker_id", id)
	log.Info("worker: goroutine started")

	for {
		select {
		case <-ctx.Done():
			log.Info("worker: goroutine stopping")
			return
		case assessmentID := <-r.queue:
			r.runWithRetry(ctx, assessmentID, log)
		}
	}
}

func (r *Runner) poll(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	// Run once immediately on startup to pick up anything from before restart.
	r.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pollOnce(ctx)
		}
	}
}

func (r *Runner) pollOnce(ctx context.Context) {
	pending, err := r.q.ListAssessmentsAwaitingNarrative(ctx, r.cfg.PollBatch)
	if err != nil {
		r.logger.Error("worker: poll failed", "error", err)
		return
	}
	for _, a := range pending {
		select {
		case r.queue <- a.ID:
			r.logger.Debug("worker: poller enqueued assessment", "assessment_id", a.ID)
		default:
			// Queue full; next poll cycle.
			return
		}
	}
}

// runWithRetry executes the job up to MaxRetries times. A job that keeps
// failing stays without a narrative and is retried on a later poll; admins
// can also regenerate it by hand.
func (r *Runner) runWithRetry(ctx context.Context, assessmentID uuid.UUID, log *slog.Logger) {
	var lastErr error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		jobCtx, cancel := context.WithTimeout(ctx, r.cfg.JobTimeout)
		lastErr = r.job.Run(jobCtx, assessmentID)
		cancel()

		if lastErr == nil {
			log.Info("worker: job completed", "assessment_id", assessmentID, "attempt", attempt)
			return
		}

		log.Warn("worker: job attempt failed",
			"assessment_id", assessmentID,
			"attempt", attempt,
			"max", r.cfg.MaxRetries,
			"error", lastErr,
		)

		if attempt < r.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.backoff(attempt)):
			}
		}
	}

	log.Error("worker: job gave up", "assessment_id", assessmentID, "error", lastErr)
}
