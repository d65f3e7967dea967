package repo

import (
	"context"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/sqlinline"
)

// QuestionRepositoryPG persists generated questions.
type QuestionRepositoryPG struct {
	db infra.SQLExecutor
}

func NewQuestionRepository(db infra.SQLExecutor) *QuestionRepositoryPG {
	return &QuestionRepositoryPG{db: db}
}

func (r *QuestionRepositoryPG) Create(ctx context.Context, q *domain.Question) error {
	return r.db.QueryRow(ctx, sqlinline.QInsertQuestion,
		q.ID,
		q.JobID,
		q.Position,
		q.SegmentStartTime,
		q.SegmentEndTime,
		q.Question,
		q.Options,
		q.CorrectAnswer,
	).Scan(&q.CreatedAt)
}

// ListByJobID returns questions in generation order.
func (r *QuestionRepositoryPG) ListByJobID(ctx context.Context, jobID string) ([]domain.Question, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListQuestionsByJob, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Question{}
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(
			&q.ID,
			&q.JobID,
			&q.Position,
			&q.SegmentStartTime,
			&q.SegmentEndTime,
			&q.Question,
			&q.Options,
			&q.CorrectAnswer,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

var _ domain.QuestionRepository = (*QuestionRepositoryPG)(nil)
