package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	db infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// Create inserts a new job record and fills its timestamps.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	row := r.db.QueryRow(ctx, sqlinline.QInsertJob,
		job.ID,
		job.OriginalFilename,
		job.StoredFilename,
		job.MediaPath,
		string(job.Status),
		job.UploaderCountry,
	)
	return row.Scan(&job.CreatedAt, &job.UpdatedAt)
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectJob, jobID)
	var (
		job    domain.Job
		status string
	)
	if err := row.Scan(
		&job.ID,
		&job.OriginalFilename,
		&job.StoredFilename,
		&job.MediaPath,
		&status,
		&job.ErrorMessage,
		&job.TranscriptID,
		&job.QuestionIDs,
		&job.UploaderCountry,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	return &job, nil
}

// Transition moves the job from one status to another when the stored
// status still equals from.
func (r *JobRepositoryPG) Transition(ctx context.Context, jobID string, from, to domain.JobStatus, errMsg *string) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	tag, err := r.db.Exec(ctx, sqlinline.QTransitionJob, jobID, string(from), string(to), errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, jobID, from, to)
	}
	return nil
}

// AttachTranscript links a stored transcript to the job.
func (r *JobRepositoryPG) AttachTranscript(ctx context.Context, jobID, transcriptID string) error {
	tag, err := r.db.Exec(ctx, sqlinline.QAttachTranscript, jobID, transcriptID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Complete marks a generating job completed and stores the ordered question ids.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID string, questionIDs []string) error {
	if questionIDs == nil {
		questionIDs = []string{}
	}
	tag, err := r.db.Exec(ctx, sqlinline.QCompleteJob, jobID, questionIDs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, jobID, domain.JobStatusGeneratingMCQs, domain.JobStatusCompleted)
	}
	return nil
}

// ListStale returns ids of jobs sitting in status for longer than olderThanSeconds.
func (r *JobRepositoryPG) ListStale(ctx context.Context, status domain.JobStatus, olderThanSeconds int, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListStaleJobs, string(status), olderThanSeconds, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns the number of jobs in each status. Statuses with no
// jobs are absent from the map.
func (r *JobRepositoryPG) CountByStatus(ctx context.Context) (map[domain.JobStatus]int, error) {
	rows, err := r.db.Query(ctx, sqlinline.QCountJobsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.JobStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.JobStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *JobRepositoryPG) missOrConflict(ctx context.Context, jobID string, from, to domain.JobStatus) error {
	var exists bool
	if err := r.db.QueryRow(ctx, sqlinline.QJobExists, jobID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%w: job %s is no longer %s (wanted %s)", domain.ErrInvalidTransition, jobID, from, to)
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
