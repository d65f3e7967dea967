// Package app assembles the pipeline from configuration for the binaries.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"lecturequiz/internal/adapter/repo"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/pipeline"
	"lecturequiz/internal/providers/ollama"
	"lecturequiz/internal/providers/openaicompat"
	"lecturequiz/internal/quiz"
	"lecturequiz/internal/transcribe"
)

// Repositories groups the PostgreSQL repositories.
type Repositories struct {
	Jobs        *repo.JobRepositoryPG
	Transcripts *repo.TranscriptRepositoryPG
	Questions   *repo.QuestionRepositoryPG
}

func NewRepositories(db infra.SQLExecutor) Repositories {
	return Repositories{
		Jobs:        repo.NewJobRepository(db),
		Transcripts: repo.NewTranscriptRepository(db),
		Questions:   repo.NewQuestionRepository(db),
	}
}

// NewCompleter returns the LLM client selected by cfg.Provider.
func NewCompleter(cfg infra.LLMConfig, logger *zerolog.Logger) (quiz.Completer, error) {
	switch cfg.Provider {
	case infra.LLMProviderOllama, "":
		client, err := ollama.NewClient(ollama.Options{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case infra.LLMProviderOpenAI:
		client, err := openaicompat.NewClient(openaicompat.Options{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// NewOrchestrator wires the transcription runner, the question generator and
// the repositories. The tool check runs here so a broken install fails at
// startup.
func NewOrchestrator(cfg *infra.Config, repos Repositories, logger *zerolog.Logger) (*pipeline.Orchestrator, error) {
	runner := transcribe.NewRunner(cfg.TranscribeConfig(), logger)
	if err := runner.CheckTools(); err != nil {
		return nil, err
	}

	llm := cfg.GeneratorConfig()
	completer, err := NewCompleter(llm, logger)
	if err != nil {
		return nil, err
	}
	generator, err := quiz.NewGenerator(quiz.Options{
		Completer: completer,
		MinChars:  llm.MinChars,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return pipeline.NewOrchestrator(pipeline.Options{
		Jobs:           repos.Jobs,
		Transcripts:    repos.Transcripts,
		Questions:      repos.Questions,
		Transcriber:    runner,
		Generator:      generator,
		WindowMinutes:  cfg.WindowMinutes,
		MinWindowChars: cfg.MinWindowChars,
		Logger:         logger,
	})
}
