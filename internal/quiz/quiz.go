package quiz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// DefaultMinChars is the shortest trimmed text worth a model call.
	DefaultMinChars = 20
	// QuestionsPerWindow is how many questions the prompt asks for.
	QuestionsPerWindow = 3

	rawExcerptLimit = 200
)

var (
	// ErrNoValidQuestions is returned when the model answered with JSON but
	// none of the entries were usable.
	ErrNoValidQuestions = errors.New("quiz: no valid questions in model response")
	// ErrMalformedPayload marks responses that are not JSON at all.
	ErrMalformedPayload = errors.New("quiz: malformed model payload")
)

// Completer sends one prompt to a generative model and returns its raw text,
// which is expected to be JSON.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Draft is a validated question before persistence.
type Draft struct {
	Question      string
	Options       []string
	CorrectAnswer string
}

// PayloadError reports a model response that could not be decoded.
type PayloadError struct {
	Raw string
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("quiz: parse model response: %v. Raw: %s", e.Err, e.Raw)
}

func (e *PayloadError) Unwrap() []error {
	return []error{ErrMalformedPayload, e.Err}
}

// Options configures a Generator.
type Options struct {
	Completer Completer
	MinChars  int
	Logger    *zerolog.Logger
}

// Generator turns a window of transcript text into multiple-choice questions.
type Generator struct {
	completer Completer
	minChars  int
	logger    zerolog.Logger
}

// NewGenerator builds a Generator. A completer is required.
func NewGenerator(opts Options) (*Generator, error) {
	if opts.Completer == nil {
		return nil, errors.New("quiz: completer is required")
	}
	minChars := opts.MinChars
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "quiz").Logger()
	}
	return &Generator{completer: opts.Completer, minChars: minChars, logger: logger}, nil
}

// Generate asks the model for questions about text. Text shorter than the
// configured minimum yields no questions and no model call.
func (g *Generator) Generate(ctx context.Context, text string) ([]Draft, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < g.minChars {
		g.logger.Warn().Int("chars", len(text)).Msg("quiz: text too short, skipping generation")
		return nil, nil
	}

	g.logger.Debug().Str("excerpt", excerpt(text, 70)).Msg("quiz: requesting questions")
	raw, err := g.completer.Complete(ctx, BuildPrompt(text))
	if err != nil {
		return nil, fmt.Errorf("quiz: model request: %w", err)
	}

	entries, err := decodeEntries(raw)
	if err != nil {
		return nil, &PayloadError{Raw: excerpt(raw, rawExcerptLimit), Err: err}
	}
	drafts := make([]Draft, 0, len(entries))
	for _, entry := range entries {
		if d, ok := entry.validate(); ok {
			drafts = append(drafts, d)
		}
	}
	if dropped := len(entries) - len(drafts); dropped > 0 {
		g.logger.Warn().Int("dropped", dropped).Int("received", len(entries)).Msg("quiz: filtered invalid questions")
	}
	if len(drafts) == 0 {
		g.logger.Error().Str("raw", excerpt(raw, rawExcerptLimit)).Msg("quiz: response contained no valid questions")
		return nil, ErrNoValidQuestions
	}
	return drafts, nil
}

func excerpt(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
