package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are a teaching assistant that writes quiz questions and only responds with valid JSON."

// Options configures a client for any OpenAI-compatible chat endpoint,
// including Ollama's /v1 surface.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
	Logger      *zerolog.Logger
	Timeout     time.Duration
}

// Client requests JSON-mode chat completions.
type Client struct {
	cli         *openai.Client
	model       string
	temperature float32
	logger      zerolog.Logger
}

// NewClient builds the client. Local servers usually accept any API key.
func NewClient(opts Options) (*Client, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("openaicompat: model is required")
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	cfg.HTTPClient = httpClient
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.4
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		cli:         openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt as a user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	started := time.Now()
	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openaicompat: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openaicompat: no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openaicompat: empty response")
	}
	c.logger.Debug().
		Str("model", c.model).
		Dur("took", time.Since(started)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("openaicompat: completion received")
	return text, nil
}
