package handlers

import (
	"context"
	"errors"
	"io"
	"sync"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/pipeline"
	"lecturequiz/internal/storage"
)

type memJobs struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	createErr error
	getErr    error
}

func newMemJobs(jobs ...*domain.Job) *memJobs {
	m := &memJobs{jobs: map[string]*domain.Job{}}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *memJobs) Create(_ context.Context, job *domain.Job) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id string) (*domain.Job, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memJobs) Transition(context.Context, string, domain.JobStatus, domain.JobStatus, *string) error {
	return errors.New("not used")
}

func (m *memJobs) AttachTranscript(context.Context, string, string) error {
	return errors.New("not used")
}

func (m *memJobs) Complete(context.Context, string, []string) error {
	return errors.New("not used")
}

func (m *memJobs) ListStale(context.Context, domain.JobStatus, int, int) ([]string, error) {
	return nil, nil
}

type memTranscripts map[string]*domain.Transcript

func (m memTranscripts) Create(_ context.Context, t *domain.Transcript) error {
	m[t.JobID] = t
	return nil
}

func (m memTranscripts) GetByJobID(_ context.Context, jobID string) (*domain.Transcript, error) {
	t, ok := m[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

type memQuestions []domain.Question

func (m *memQuestions) Create(_ context.Context, q *domain.Question) error {
	*m = append(*m, *q)
	return nil
}

func (m *memQuestions) ListByJobID(_ context.Context, jobID string) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range *m {
		if q.JobID == jobID {
			out = append(out, q)
		}
	}
	return out, nil
}

type recordingLauncher struct {
	mu       sync.Mutex
	launched []string
}

func (l *recordingLauncher) Launch(jobID string) *pipeline.Task {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launched = append(l.launched, jobID)
	return &pipeline.Task{JobID: jobID}
}

func (l *recordingLauncher) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launched)
}

// trackingStore wraps a real FileStore and records removals.
type trackingStore struct {
	*storage.FileStore
	removed []string
}

func (s *trackingStore) Save(ctx context.Context, key string, r io.Reader) (storage.Stored, error) {
	return s.FileStore.Save(ctx, key, r)
}

func (s *trackingStore) Remove(key string) error {
	s.removed = append(s.removed, key)
	return s.FileStore.Remove(key)
}

type staticStats struct {
	counts map[domain.JobStatus]int
	err    error
}

func (s staticStats) CountByStatus(context.Context) (map[domain.JobStatus]int, error) {
	return s.counts, s.err
}
