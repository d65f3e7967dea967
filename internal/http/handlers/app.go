package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/pipeline"
	"lecturequiz/internal/storage"
)

// MediaStore keeps uploaded videos.
type MediaStore interface {
	Save(ctx context.Context, key string, r io.Reader) (storage.Stored, error)
	Remove(key string) error
}

// JobLauncher starts background processing for a stored job.
type JobLauncher interface {
	Launch(jobID string) *pipeline.Task
	Count() int
}

// JobStats reports how many jobs sit in each status.
type JobStats interface {
	CountByStatus(ctx context.Context) (map[domain.JobStatus]int, error)
}

// Deps lists everything the handlers need.
type Deps struct {
	Jobs           domain.JobRepository
	Transcripts    domain.TranscriptRepository
	Questions      domain.QuestionRepository
	Store          MediaStore
	Launcher       JobLauncher
	Stats          JobStats
	Logger         zerolog.Logger
	MaxUploadBytes int64
}

type App struct {
	Jobs           domain.JobRepository
	Transcripts    domain.TranscriptRepository
	Questions      domain.QuestionRepository
	Store          MediaStore
	Launcher       JobLauncher
	Stats          JobStats
	Logger         zerolog.Logger
	MaxUploadBytes int64

	newID func() string
	now   func() time.Time
}

func NewApp(d Deps) *App {
	return &App{
		Jobs:           d.Jobs,
		Transcripts:    d.Transcripts,
		Questions:      d.Questions,
		Store:          d.Store,
		Launcher:       d.Launcher,
		Stats:          d.Stats,
		Logger:         d.Logger,
		MaxUploadBytes: d.MaxUploadBytes,
		newID:          uuid.NewString,
		now:            time.Now,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// error writes {"message": ...}. detail is included for server errors only.
func (a *App) error(w http.ResponseWriter, code int, message string, detail error) {
	body := errorResponse{Message: message}
	if detail != nil && code >= http.StatusInternalServerError {
		body.Error = detail.Error()
	}
	a.json(w, code, body)
}
