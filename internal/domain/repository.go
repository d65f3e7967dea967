package domain

import "context"

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID string) (*Job, error)
	// Transition moves a job from one status to another atomically. It
	// returns ErrInvalidTransition when the stored status is not from.
	Transition(ctx context.Context, jobID string, from, to JobStatus, errMsg *string) error
	AttachTranscript(ctx context.Context, jobID, transcriptID string) error
	// Complete moves a generating job to completed with its ordered question ids.
	Complete(ctx context.Context, jobID string, questionIDs []string) error
	ListStale(ctx context.Context, status JobStatus, olderThanSeconds int, limit int) ([]string, error)
}

// TranscriptRepository persists transcripts.
type TranscriptRepository interface {
	Create(ctx context.Context, transcript *Transcript) error
	GetByJobID(ctx context.Context, jobID string) (*Transcript, error)
}

// QuestionRepository persists generated questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *Question) error
	ListByJobID(ctx context.Context, jobID string) ([]Question, error)
}
