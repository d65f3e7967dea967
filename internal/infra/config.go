package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"lecturequiz/internal/transcribe"
)

// Supported LLM providers.
const (
	LLMProviderOllama = "ollama"
	LLMProviderOpenAI = "openai"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	LogLevel         string
	Port             string
	DatabaseURL      string
	DBMaxConns       int
	UploadDir        string
	MaxUploadBytes   int64
	FrontendOrigins  []string
	GeoIPDBPath      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	ShutdownTimeout  time.Duration

	FFmpegPath         string
	WhisperPath        string
	WhisperModelPath   string
	WhisperLanguage    string
	WhisperThreads     int
	WhisperProcessors  int
	SubtitleCandidates []string
	ToolsProfile       string
	ToolTimeout        time.Duration

	WindowMinutes     float64
	MinWindowChars    int
	LLMProvider       string
	LLMTimeout        time.Duration
	GeneratorMinChars int
	OllamaURL         string
	OllamaModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string

	WorkerPollInterval time.Duration
	WorkerStaleAfter   time.Duration
	WorkerBatchSize    int
}

// LLMConfig carries what the question generator and its provider need.
type LLMConfig struct {
	Provider string
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration
	MinChars int
}

// toolsProfile is the optional YAML file named by TOOLS_PROFILE.
type toolsProfile struct {
	FFmpegPath         string   `yaml:"ffmpeg_path"`
	SubtitleCandidates []string `yaml:"subtitle_candidates"`
	Whisper            struct {
		Language   string `yaml:"language"`
		Threads    int    `yaml:"threads"`
		Processors int    `yaml:"processors"`
	} `yaml:"whisper"`
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Port:             getEnv("PORT", "5001"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DBMaxConns:       getEnvInt("DB_MAX_CONNS", 10),
		UploadDir:        getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 2048)) << 20,
		FrontendOrigins:  getEnvList("FRONTEND_ORIGINS", []string{"http://localhost:5173"}),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 300)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		ShutdownTimeout:  time.Second * time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 30)),

		FFmpegPath:         getEnv("FFMPEG_PATH", "ffmpeg"),
		WhisperPath:        os.Getenv("WHISPER_CPP_PATH"),
		WhisperModelPath:   os.Getenv("WHISPER_MODEL_PATH"),
		WhisperLanguage:    getEnv("WHISPER_LANGUAGE", "en"),
		WhisperThreads:     getEnvInt("WHISPER_THREADS", 4),
		WhisperProcessors:  getEnvInt("WHISPER_PROCESSORS", 1),
		SubtitleCandidates: append([]string(nil), transcribe.DefaultSubtitleCandidates...),
		ToolsProfile:       os.Getenv("TOOLS_PROFILE"),
		ToolTimeout:        time.Second * time.Duration(getEnvInt("TOOL_TIMEOUT_SECONDS", 0)),

		WindowMinutes:     getEnvFloat("WINDOW_MINUTES", 5),
		MinWindowChars:    getEnvInt("MIN_WINDOW_CHARS", 50),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOllama)),
		LLMTimeout:        time.Second * time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 300)),
		GeneratorMinChars: getEnvInt("GENERATOR_MIN_CHARS", 20),
		OllamaURL:         getEnv("OLLAMA_API_URL", "http://localhost:11434/api/generate"),
		OllamaModel:       getEnv("OLLAMA_MODEL_NAME", "llama3"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 30)),
		WorkerStaleAfter:   time.Second * time.Duration(getEnvInt("WORKER_STALE_SECONDS", 120)),
		WorkerBatchSize:    getEnvInt("WORKER_BATCH_SIZE", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WhisperPath == "" {
		return nil, fmt.Errorf("WHISPER_CPP_PATH is required")
	}
	if cfg.WhisperModelPath == "" {
		return nil, fmt.Errorf("WHISPER_MODEL_PATH is required")
	}

	if cfg.ToolsProfile != "" {
		if err := cfg.applyToolsProfile(cfg.ToolsProfile); err != nil {
			return nil, err
		}
	}

	lang, err := normalizeLanguage(cfg.WhisperLanguage)
	if err != nil {
		return nil, err
	}
	cfg.WhisperLanguage = lang

	switch cfg.LLMProvider {
	case LLMProviderOllama:
		if cfg.OllamaModel == "" {
			return nil, fmt.Errorf("OLLAMA_MODEL_NAME is required")
		}
	case LLMProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return nil, fmt.Errorf("LLM_PROVIDER %q is not supported", cfg.LLMProvider)
	}

	if cfg.WindowMinutes <= 0 {
		return nil, fmt.Errorf("WINDOW_MINUTES must be positive")
	}

	return cfg, nil
}

// TranscribeConfig returns the transcription runner settings.
func (c *Config) TranscribeConfig() transcribe.Config {
	return transcribe.Config{
		FFmpegPath:         c.FFmpegPath,
		WhisperPath:        c.WhisperPath,
		ModelPath:          c.WhisperModelPath,
		Language:           c.WhisperLanguage,
		Threads:            c.WhisperThreads,
		Processors:         c.WhisperProcessors,
		SubtitleCandidates: append([]string(nil), c.SubtitleCandidates...),
		Timeout:            c.ToolTimeout,
	}
}

// GeneratorConfig returns the settings for the configured LLM provider.
func (c *Config) GeneratorConfig() LLMConfig {
	out := LLMConfig{
		Provider: c.LLMProvider,
		Timeout:  c.LLMTimeout,
		MinChars: c.GeneratorMinChars,
	}
	switch c.LLMProvider {
	case LLMProviderOpenAI:
		out.BaseURL = c.OpenAIBaseURL
		out.Model = c.OpenAIModel
		out.APIKey = c.OpenAIAPIKey
	default:
		out.BaseURL = c.OllamaURL
		out.Model = c.OllamaModel
	}
	return out
}

func (c *Config) applyToolsProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tools profile: %w", err)
	}
	var p toolsProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("parse tools profile %s: %w", path, err)
	}
	if p.FFmpegPath != "" {
		c.FFmpegPath = p.FFmpegPath
	}
	if len(p.SubtitleCandidates) > 0 {
		c.SubtitleCandidates = p.SubtitleCandidates
	}
	if p.Whisper.Language != "" {
		c.WhisperLanguage = p.Whisper.Language
	}
	if p.Whisper.Threads > 0 {
		c.WhisperThreads = p.Whisper.Threads
	}
	if p.Whisper.Processors > 0 {
		c.WhisperProcessors = p.Whisper.Processors
	}
	return nil
}

// normalizeLanguage reduces a BCP 47 tag to the base language code whisper
// expects. "auto" passes through.
func normalizeLanguage(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "auto") {
		return "auto", nil
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("WHISPER_LANGUAGE %q: %w", raw, err)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", errors.New("WHISPER_LANGUAGE has no recognizable base language")
	}
	return base.String(), nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
