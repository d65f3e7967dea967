package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/sqlinline"
)

// TranscriptRepositoryPG stores transcripts with their windows as jsonb.
type TranscriptRepositoryPG struct {
	db infra.SQLExecutor
}

func NewTranscriptRepository(db infra.SQLExecutor) *TranscriptRepositoryPG {
	return &TranscriptRepositoryPG{db: db}
}

func (r *TranscriptRepositoryPG) Create(ctx context.Context, t *domain.Transcript) error {
	segments := t.Segments
	if segments == nil {
		segments = []domain.Segment{}
	}
	payload, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	return r.db.QueryRow(ctx, sqlinline.QInsertTranscript, t.ID, t.JobID, t.FullText, payload).Scan(&t.CreatedAt)
}

func (r *TranscriptRepositoryPG) GetByJobID(ctx context.Context, jobID string) (*domain.Transcript, error) {
	var (
		t       domain.Transcript
		payload []byte
	)
	err := r.db.QueryRow(ctx, sqlinline.QSelectTranscriptByJob, jobID).Scan(&t.ID, &t.JobID, &t.FullText, &payload, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &t.Segments); err != nil {
			return nil, fmt.Errorf("decode segments: %w", err)
		}
	}
	return &t, nil
}

var _ domain.TranscriptRepository = (*TranscriptRepositoryPG)(nil)
