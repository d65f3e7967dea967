package pipeline

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"lecturequiz/internal/domain"
)

// JobRunner is satisfied by *Orchestrator.
type JobRunner interface {
	Run(ctx context.Context, jobID string) error
}

// Task is the handle of one spawned pipeline run.
type Task struct {
	JobID     string
	StartedAt time.Time
	Done      <-chan struct{}

	done chan struct{}
	err  error
}

// Err returns the run result once Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Registry launches pipeline runs detached from the caller and keeps track
// of them until they finish.
type Registry struct {
	base   context.Context
	runner JobRunner
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// NewRegistry binds runs to base. Cancelling base is the only way to stop
// in-flight runs.
func NewRegistry(base context.Context, runner JobRunner, logger *zerolog.Logger) *Registry {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = logger.With().Str("component", "registry").Logger()
	}
	return &Registry{
		base:   base,
		runner: runner,
		logger: l,
		now:    time.Now,
		tasks:  make(map[string]*Task),
	}
}

// Launch starts a run for jobID and returns immediately. A second launch for
// a job that is still running returns the existing task.
func (r *Registry) Launch(jobID string) *Task {
	r.mu.Lock()
	if t, ok := r.tasks[jobID]; ok {
		r.mu.Unlock()
		return t
	}
	done := make(chan struct{})
	t := &Task{JobID: jobID, StartedAt: r.now(), Done: done, done: done}
	r.tasks[jobID] = t
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		err := r.runner.Run(r.base, jobID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidTransition):
			r.logger.Info().Str("job_id", jobID).Err(err).Msg("registry: job already claimed")
		default:
			r.logger.Warn().Str("job_id", jobID).Err(err).Msg("registry: job run ended with error")
		}

		r.mu.Lock()
		t.err = err
		delete(r.tasks, jobID)
		r.mu.Unlock()
		close(done)
	}()
	return t
}

// Active lists running tasks ordered by start time.
func (r *Registry) Active() []*Task {
	r.mu.Lock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Count reports the number of running tasks.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Wait blocks until every launched run has returned or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
