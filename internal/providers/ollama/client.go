package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the Ollama client.
type Options struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
	Timeout    time.Duration
}

// Client calls the Ollama generate endpoint in non-streaming JSON mode.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

const errorBodyLimit = 300

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, errors.New("ollama: model is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	// Accept a full endpoint URL as well as a server root.
	baseURL = strings.TrimSuffix(baseURL, "/api/generate")
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{baseURL: baseURL, model: model, httpClient: httpClient, logger: logger}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt and returns the model's response string.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
	if err != nil {
		return "", fmt.Errorf("ollama: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail generateResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Error != "" {
			return "", fmt.Errorf("ollama: status %d: %s", resp.StatusCode, detail.Error)
		}
		return "", fmt.Errorf("ollama: status %d: %s", resp.StatusCode, clip(strings.TrimSpace(string(raw)), errorBodyLimit))
	}
	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return "", errors.New("ollama: empty response")
	}
	c.logger.Debug().
		Str("model", c.model).
		Dur("took", time.Since(started)).
		Int("chars", len(decoded.Response)).
		Msg("ollama: generation completed")
	return decoded.Response, nil
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
