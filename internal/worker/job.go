package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nyashahama/ops-diagnostic-backend/internal/ai"
	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lock"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
)

// ErrGenerationInProgress is returned when another caller holds the narrative
// lock for the same assessment.
var ErrGenerationInProgress = errors.New("worker: narrative generation already in progress")

// NarrativeStore is the write side the job needs. *store.Store satisfies it.
type NarrativeStore interface {
	SetNarrative(ctx context.Context, id uuid.UUID, n report.Narrative) (db.Assessment, error)
}

// JobConfig tunes a single narrative generation.
type JobConfig struct {
	// NarrativeTimeout bounds the narrator call. Default: 60s.
	NarrativeTimeout time.Duration

	// LockTTL is how long the per-token lock lives if the holder dies.
	// Default: NarrativeTimeout + 30s.
	LockTTL time.Duration
}

// Job holds the dependencies for the narrative pipeline.
type Job struct {
	q        db.Querier
	store    NarrativeStore
	narrator ai.Narrator
	locker   lock.Locker
	cfg      JobConfig
	logger   *slog.Logger
}

// NewJob constructs a Job with all required dependencies.
func NewJob(
	q db.Querier,
	st NarrativeStore,
	narrator ai.Narrator,
	locker lock.Locker,
	cfg JobConfig,
	logger *slog.Logger,
) *Job {
	if cfg.NarrativeTimeout <= 0 {
		cfg.NarrativeTimeout = 60 * time.Second
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.NarrativeTimeout + 30*time.Second
	}
	return &Job{
		q:        q,
		store:    st,
		narrator: narrator,
		locker:   locker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate produces and stores a narrative for one assessment:
//
//  1. Load the assessment; scores must exist.
//  2. Return early if a narrative exists and force is false.
//  3. Take the per-token lock.
//  4. Call the narrator under NarrativeTimeout.
//  5. On any narrator error, use the template narrative.
//  6. Persist via store.SetNarrative.
func (j *Job) Generate(ctx context.Context, id uuid.UUID, force bool) (db.Assessment, error) {
	log := j.logger.With("assessment_id", id)

	a, st, err := j.load(ctx, id)
	if err != nil {
		return db.Assessment{}, err
	}
	if st.HasNarrative && !force {
		return a, nil
	}

	release, err := j.locker.Acquire(ctx, a.Token, j.cfg.LockTTL)
	if errors.Is(err, lock.ErrLocked) {
		return db.Assessment{}, ErrGenerationInProgress
	}
	if err != nil {
		return db.Assessment{}, fmt.Errorf("job: acquire lock: %w", err)
	}
	defer release()

	// Another holder may have finished between the first read and the lock.
	if !force {
		a, st, err = j.load(ctx, id)
		if err != nil {
			return db.Assessment{}, err
		}
		if st.HasNarrative {
			return a, nil
		}
	}

	req := ai.NarrativeRequest{Company: a.Company, Scorecard: *st.Scores}

	nctx, cancel := context.WithTimeout(ctx, j.cfg.NarrativeTimeout)
	n, err := j.narrator.GenerateNarrative(nctx, req)
	cancel()
	if err != nil {
		log.Warn("job: narrator failed, using template narrative", "error", err)
		n = report.FallbackNarrative(req.Scorecard, req.Company)
	}

	out, err := j.store.SetNarrative(ctx, id, n)
	if err != nil {
		return db.Assessment{}, fmt.Errorf("job: persist narrative: %w", err)
	}

	log.Info("job: narrative stored",
		"source", n.Source,
		"provider", n.Provider,
		"insights", len(n.Insights),
		"forced", force,
	)
	return out, nil
}

// Run is the Runner entry point: generate unless a narrative already exists.
// A concurrent generation for the same assessment counts as success, and an
// assessment that is gone or unscored is not retried.
func (j *Job) Run(ctx context.Context, id uuid.UUID) error {
	_, err := j.Generate(ctx, id, false)
	switch {
	case errors.Is(err, ErrGenerationInProgress):
		j.logger.Debug("job: generation already in flight", "assessment_id", id)
		return nil
	case errors.Is(err, store.ErrNotFound), errors.Is(err, lifecycle.ErrScoresMissing):
		j.logger.Warn("job: nothing to generate", "assessment_id", id, "error", err)
		return nil
	}
	return err
}

func (j *Job) load(ctx context.Context, id uuid.UUID) (db.Assessment, lifecycle.State, error) {
	a, err := j.q.GetAssessmentByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Assessment{}, lifecycle.State{}, store.ErrNotFound
	}
	if err != nil {
		return db.Assessment{}, lifecycle.State{}, fmt.Errorf("job: get assessment: %w", err)
	}
	st, err := store.StateOf(a)
	if err != nil {
		return db.Assessment{}, lifecycle.State{}, err
	}
	if err := lifecycle.CanGenerateNarrative(st); err != nil {
		return db.Assessment{}, lifecycle.State{}, err
	}
	return a, st, nil
}
