package pipeline

import (
	"context"
	"errors"
	"sync"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/quiz"
	"lecturequiz/internal/transcribe"
)

type transitionRecord struct {
	from, to domain.JobStatus
}

type memStore struct {
	mu          sync.Mutex
	jobs        map[string]*domain.Job
	history     map[string][]transitionRecord
	transcripts map[string]*domain.Transcript
	questions   []domain.Question

	failQuestionCreate bool
	failComplete       error
}

func newMemStore(jobs ...*domain.Job) *memStore {
	s := &memStore{
		jobs:        make(map[string]*domain.Job),
		history:     make(map[string][]transitionRecord),
		transcripts: make(map[string]*domain.Transcript),
	}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *memStore) Create(ctx context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s *memStore) Transition(ctx context.Context, id string, from, to domain.JobStatus, errMsg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if j.Status != from {
		return domain.ErrInvalidTransition
	}
	j.Status = to
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	s.history[id] = append(s.history[id], transitionRecord{from, to})
	return nil
}

func (s *memStore) AttachTranscript(ctx context.Context, jobID, transcriptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	j.TranscriptID = &transcriptID
	return nil
}

func (s *memStore) Complete(ctx context.Context, jobID string, ids []string) error {
	if s.failComplete != nil {
		return s.failComplete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	if j.Status != domain.JobStatusGeneratingMCQs {
		return domain.ErrInvalidTransition
	}
	j.Status = domain.JobStatusCompleted
	j.QuestionIDs = append([]string(nil), ids...)
	s.history[jobID] = append(s.history[jobID], transitionRecord{domain.JobStatusGeneratingMCQs, domain.JobStatusCompleted})
	return nil
}

func (s *memStore) ListStale(ctx context.Context, status domain.JobStatus, olderThanSeconds, limit int) ([]string, error) {
	return nil, nil
}

func (s *memStore) job(id string) domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.jobs[id]
}

type transcriptStore struct{ *memStore }

func (t transcriptStore) Create(ctx context.Context, tr *domain.Transcript) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transcripts[tr.JobID] = tr
	return nil
}

func (t transcriptStore) GetByJobID(ctx context.Context, jobID string) (*domain.Transcript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tr, ok := t.transcripts[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return tr, nil
}

type questionStore struct{ *memStore }

func (q questionStore) Create(ctx context.Context, question *domain.Question) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failQuestionCreate {
		return errors.New("insert failed")
	}
	q.questions = append(q.questions, *question)
	return nil
}

func (q questionStore) ListByJobID(ctx context.Context, jobID string) ([]domain.Question, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.Question
	for _, item := range q.questions {
		if item.JobID == jobID {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeTranscriber struct {
	result transcribe.Result
	err    error
	// onRun lets a test observe the job state mid-run.
	onRun func()
}

func (f *fakeTranscriber) Run(ctx context.Context, path string) (transcribe.Result, error) {
	if f.onRun != nil {
		f.onRun()
	}
	return f.result, f.err
}

type fakeGenerator struct {
	mu     sync.Mutex
	calls  []string
	failOn map[int]error
}

func (g *fakeGenerator) Generate(ctx context.Context, text string) ([]quiz.Draft, error) {
	g.mu.Lock()
	idx := len(g.calls)
	g.calls = append(g.calls, text)
	g.mu.Unlock()
	if err := g.failOn[idx]; err != nil {
		return nil, err
	}
	label := string(rune('A' + idx))
	return []quiz.Draft{
		{Question: label + "1?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "A"},
		{Question: label + "2?", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "B"},
	}, nil
}
