package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/pipeline"
)

type launcher interface {
	Launch(jobID string) *pipeline.Task
}

// backlogWorker picks up uploaded jobs whose background run never started,
// for example because the API process restarted right after the upload.
type backlogWorker struct {
	jobs             domain.JobRepository
	launcher         launcher
	logger           zerolog.Logger
	staleAfter       time.Duration
	interruptedAfter time.Duration
	batch            int
	interval         time.Duration
}

func (w *backlogWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.interval = 30 * time.Second
	}
	w.logger.Info().Dur("interval", w.interval).Dur("stale_after", w.staleAfter).Msg("worker: started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		w.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// sweep launches stale uploaded jobs and, when enabled, fails jobs stuck in a
// processing stage. It returns the number of launched jobs.
func (w *backlogWorker) sweep(ctx context.Context) int {
	if w.interruptedAfter > 0 {
		for _, status := range []domain.JobStatus{domain.JobStatusTranscribing, domain.JobStatusGeneratingMCQs} {
			w.failInterrupted(ctx, status)
		}
	}

	ids, err := w.jobs.ListStale(ctx, domain.JobStatusUploaded, int(w.staleAfter.Seconds()), w.batch)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: list stale uploads failed")
		return 0
	}
	for _, id := range ids {
		w.logger.Info().Str("job_id", id).Msg("worker: launching orphaned upload")
		w.launcher.Launch(id)
	}
	return len(ids)
}

func (w *backlogWorker) failInterrupted(ctx context.Context, status domain.JobStatus) {
	ids, err := w.jobs.ListStale(ctx, status, int(w.interruptedAfter.Seconds()), w.batch)
	if err != nil {
		w.logger.Error().Err(err).Str("status", string(status)).Msg("worker: list interrupted jobs failed")
		return
	}
	msg := "processing interrupted while " + string(status)
	for _, id := range ids {
		err := w.jobs.Transition(ctx, id, status, domain.JobStatusFailed, &msg)
		switch {
		case err == nil:
			w.logger.Warn().Str("job_id", id).Str("status", string(status)).Msg("worker: marked interrupted job failed")
		case errors.Is(err, domain.ErrInvalidTransition):
		default:
			w.logger.Error().Err(err).Str("job_id", id).Msg("worker: fail interrupted job")
		}
	}
}
