package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lecturequiz/internal/domain"
	"lecturequiz/internal/quiz"
	"lecturequiz/internal/subtitle"
	"lecturequiz/internal/transcribe"
)

// DefaultMinWindowChars is the shortest window text sent for generation.
const DefaultMinWindowChars = 50

// Transcriber produces WebVTT for a video file.
type Transcriber interface {
	Run(ctx context.Context, videoPath string) (transcribe.Result, error)
}

// QuestionGenerator produces question drafts for one window of text.
type QuestionGenerator interface {
	Generate(ctx context.Context, text string) ([]quiz.Draft, error)
}

// Options wires an Orchestrator.
type Options struct {
	Jobs           domain.JobRepository
	Transcripts    domain.TranscriptRepository
	Questions      domain.QuestionRepository
	Transcriber    Transcriber
	Generator      QuestionGenerator
	WindowMinutes  float64
	MinWindowChars int
	Logger         *zerolog.Logger
}

// Orchestrator drives one job through
// uploaded → transcribing → generating_mcqs → completed, or to failed.
type Orchestrator struct {
	jobs           domain.JobRepository
	transcripts    domain.TranscriptRepository
	questions      domain.QuestionRepository
	transcriber    Transcriber
	generator      QuestionGenerator
	windowMinutes  float64
	minWindowChars int
	logger         zerolog.Logger
	removeFile     func(string) error
	newID          func() string
}

// NewOrchestrator validates the wiring and applies defaults.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Jobs == nil, opts.Transcripts == nil, opts.Questions == nil:
		return nil, errors.New("pipeline: repositories are required")
	case opts.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber is required")
	case opts.Generator == nil:
		return nil, errors.New("pipeline: question generator is required")
	}
	windowMinutes := opts.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = subtitle.DefaultWindowMinutes
	}
	minChars := opts.MinWindowChars
	if minChars <= 0 {
		minChars = DefaultMinWindowChars
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "pipeline").Logger()
	}
	return &Orchestrator{
		jobs:           opts.Jobs,
		transcripts:    opts.Transcripts,
		questions:      opts.Questions,
		transcriber:    opts.Transcriber,
		generator:      opts.Generator,
		windowMinutes:  windowMinutes,
		minWindowChars: minChars,
		logger:         logger,
		removeFile:     os.Remove,
		newID:          uuid.NewString,
	}, nil
}

// jobRun tracks the last status this orchestrator wrote for a job.
type jobRun struct {
	job    *domain.Job
	status domain.JobStatus
	logger zerolog.Logger
}

// Run processes the job end to end. It returns domain.ErrInvalidTransition
// without touching the job when the job has already left uploaded. Any other
// error has already been recorded on the job as failed.
func (o *Orchestrator) Run(ctx context.Context, jobID string) (err error) {
	job, err := o.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	run := &jobRun{
		job:    job,
		status: job.Status,
		logger: o.logger.With().Str("job_id", job.ID).Logger(),
	}
	if err := o.transition(ctx, run, domain.JobStatusTranscribing); err != nil {
		return err
	}

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
			o.fail(ctx, run, err)
		}
	}()
	if err := o.process(ctx, run); err != nil {
		o.fail(ctx, run, err)
		return err
	}
	run.logger.Info().Dur("took", time.Since(started)).Int("questions", len(run.job.QuestionIDs)).Msg("pipeline: job completed")
	return nil
}

func (o *Orchestrator) process(ctx context.Context, run *jobRun) error {
	run.logger.Info().Str("stage", string(domain.JobStatusTranscribing)).Str("media", run.job.MediaPath).Msg("pipeline: transcription started")
	res, err := o.transcriber.Run(ctx, run.job.MediaPath)
	if err != nil {
		return fmt.Errorf("transcription: %w", err)
	}
	cues := subtitle.ParseVTT(res.VTT)
	o.removeTransient(run, res.SubtitlePath)
	if len(cues) == 0 {
		return domain.ErrNoCues
	}

	windows := subtitle.Segment(cues, o.windowMinutes)
	transcript := &domain.Transcript{
		ID:       o.newID(),
		JobID:    run.job.ID,
		FullText: subtitle.JoinText(cues),
		Segments: make([]domain.Segment, 0, len(windows)),
	}
	for _, w := range windows {
		transcript.Segments = append(transcript.Segments, domain.Segment{StartTime: w.Start, EndTime: w.End, Text: w.Text})
	}
	if err := o.transcripts.Create(ctx, transcript); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	if err := o.jobs.AttachTranscript(ctx, run.job.ID, transcript.ID); err != nil {
		return fmt.Errorf("attach transcript: %w", err)
	}
	run.job.TranscriptID = &transcript.ID
	run.logger.Info().Int("cues", len(cues)).Int("windows", len(windows)).Msg("pipeline: transcript stored")

	if err := o.transition(ctx, run, domain.JobStatusGeneratingMCQs); err != nil {
		return err
	}
	questionIDs := o.generate(ctx, run, windows)

	if err := o.jobs.Complete(ctx, run.job.ID, questionIDs); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	run.status = domain.JobStatusCompleted
	run.job.Status = domain.JobStatusCompleted
	run.job.QuestionIDs = questionIDs
	if len(questionIDs) == 0 {
		run.logger.Warn().Int("windows", len(windows)).Msg("pipeline: completed without any questions")
	}
	return nil
}

// generate walks windows in order. Failures are contained per window.
func (o *Orchestrator) generate(ctx context.Context, run *jobRun, windows []subtitle.Window) []string {
	var ids []string
	failed := 0
	for i, w := range windows {
		logger := run.logger.With().Int("window", i).Float64("start", w.Start).Float64("end", w.End).Logger()
		if len([]rune(strings.TrimSpace(w.Text))) < o.minWindowChars {
			logger.Info().Msg("pipeline: skipping short window")
			continue
		}
		drafts, err := o.generator.Generate(ctx, w.Text)
		if err != nil {
			failed++
			logger.Error().Err(err).Msg("pipeline: question generation failed for window")
			continue
		}
		for _, d := range drafts {
			q := &domain.Question{
				ID:               o.newID(),
				JobID:            run.job.ID,
				Position:         len(ids),
				SegmentStartTime: w.Start,
				SegmentEndTime:   w.End,
				Question:         d.Question,
				Options:          d.Options,
				CorrectAnswer:    d.CorrectAnswer,
			}
			if err := o.questions.Create(ctx, q); err != nil {
				logger.Error().Err(err).Msg("pipeline: save question failed")
				break
			}
			ids = append(ids, q.ID)
		}
		logger.Debug().Int("questions", len(drafts)).Msg("pipeline: window done")
	}
	if failed > 0 {
		run.logger.Warn().Int("failed_windows", failed).Int("windows", len(windows)).Msg("pipeline: some windows produced no questions")
	}
	return ids
}

func (o *Orchestrator) transition(ctx context.Context, run *jobRun, next domain.JobStatus) error {
	if !run.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, run.status, next)
	}
	if err := o.jobs.Transition(ctx, run.job.ID, run.status, next, nil); err != nil {
		return fmt.Errorf("set status %s: %w", next, err)
	}
	run.logger.Info().Str("from", string(run.status)).Str("to", string(next)).Msg("pipeline: status changed")
	run.status = next
	run.job.Status = next
	return nil
}

// fail records err on the job. The write ignores cancellation of ctx so a
// shutdown still leaves the job terminal.
func (o *Orchestrator) fail(ctx context.Context, run *jobRun, cause error) {
	run.logger.Error().Err(cause).Str("stage", string(run.status)).Msg("pipeline: job failed")
	if !run.status.CanTransitionTo(domain.JobStatusFailed) {
		return
	}
	msg := domain.TruncateMessage(cause.Error(), domain.MaxErrorMessageLen)
	if err := o.jobs.Transition(context.WithoutCancel(ctx), run.job.ID, run.status, domain.JobStatusFailed, &msg); err != nil {
		run.logger.Error().Err(err).Msg("pipeline: record failure failed")
		return
	}
	run.status = domain.JobStatusFailed
	run.job.Status = domain.JobStatusFailed
	run.job.ErrorMessage = msg
}

func (o *Orchestrator) removeTransient(run *jobRun, path string) {
	if path == "" {
		return
	}
	if err := o.removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		run.logger.Warn().Err(err).Str("path", path).Msg("pipeline: remove subtitle file failed")
	}
}
