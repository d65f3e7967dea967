package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"lecturequiz/internal/app"
	"lecturequiz/internal/domain"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/subtitle"
)

type report struct {
	Job        *domain.Job        `json:"job"`
	Transcript *domain.Transcript `json:"transcript,omitempty"`
	Questions  []domain.Question  `json:"questions,omitempty"`
}

func main() {
	var (
		idFlag        string
		jsonFlag      bool
		questionsFlag bool
		exportFlag    string
	)
	flag.StringVar(&idFlag, "id", "", "job ID to inspect (UUID)")
	flag.BoolVar(&jsonFlag, "json", false, "print the full report as JSON")
	flag.BoolVar(&questionsFlag, "questions", false, "include generated questions")
	flag.StringVar(&exportFlag, "export", "", "write a zip bundle (job, transcript, questions) to this path")
	flag.Parse()

	_ = godotenv.Load()

	jobID := strings.TrimSpace(idFlag)
	if jobID == "" {
		exitWithError(errors.New("-id is required"))
	}
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli", "warn").With().Str("cmd", "jobinspect").Logger()
	repos := app.NewRepositories(infra.NewSQLRunner(pool, logger))

	exportPath := strings.TrimSpace(exportFlag)
	rep, err := load(ctx, repos, jobID, questionsFlag || jsonFlag || exportPath != "")
	if err != nil {
		exitWithError(err)
	}
	if exportPath != "" {
		if err := writeBundle(exportPath, rep); err != nil {
			exitWithError(err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", exportPath)
	}
	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			exitWithError(err)
		}
		return
	}
	printReport(os.Stdout, rep, questionsFlag)
}

func load(ctx context.Context, repos app.Repositories, jobID string, withQuestions bool) (*report, error) {
	job, err := repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	rep := &report{Job: job}
	if job.TranscriptID != nil {
		tr, err := repos.Transcripts.GetByJobID(ctx, jobID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to load transcript: %w", err)
		}
		rep.Transcript = tr
	}
	if withQuestions {
		qs, err := repos.Questions.ListByJobID(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("failed to load questions: %w", err)
		}
		rep.Questions = qs
	}
	return rep, nil
}

func printReport(w io.Writer, rep *report, withQuestions bool) {
	job := rep.Job
	fmt.Fprintf(w, "Job %s (%s)\n", job.ID, job.OriginalFilename)
	fmt.Fprintf(w, "status=%s updated=%s\n", job.Status, job.UpdatedAt.Format(time.RFC3339))
	if job.ErrorMessage != "" {
		fmt.Fprintf(w, "error=%s\n", job.ErrorMessage)
	}
	if job.UploaderCountry != "" {
		fmt.Fprintf(w, "country=%s\n", job.UploaderCountry)
	}
	if rep.Transcript != nil {
		fmt.Fprintf(w, "transcript: %d windows, %d chars\n", len(rep.Transcript.Segments), len([]rune(rep.Transcript.FullText)))
		for i, seg := range rep.Transcript.Segments {
			fmt.Fprintf(w, "  [%d] %s --> %s\n", i, subtitle.FormatTimestamp(seg.StartTime), subtitle.FormatTimestamp(seg.EndTime))
		}
	}
	fmt.Fprintf(w, "questions=%d\n", len(job.QuestionIDs))
	if !withQuestions {
		return
	}
	for _, q := range rep.Questions {
		fmt.Fprintf(w, "\n#%d [%s] %s\n", q.Position+1, subtitle.FormatTimestamp(q.SegmentStartTime), q.Question)
		for i, opt := range q.Options {
			marker := " "
			if string(rune('A'+i)) == q.CorrectAnswer {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s %c) %s\n", marker, 'A'+i, opt)
		}
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
