package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// DefaultSubtitleCandidates lists where whisper.cpp builds tend to write the
// VTT output. Older builds append the extension to the full audio name.
var DefaultSubtitleCandidates = []string{"{audio}.vtt", "{dir}/{base}.vtt"}

const (
	defaultThreads     = 4
	defaultProcessors  = 1
	defaultLanguage    = "en"
	defaultStderrLimit = 2000
)

// Config holds the external tool locations and tuning for a Runner.
type Config struct {
	FFmpegPath         string
	WhisperPath        string
	ModelPath          string
	Language           string
	Threads            int
	Processors         int
	SubtitleCandidates []string
	StderrLimit        int
	Timeout            time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.FFmpegPath) == "" {
		c.FFmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(c.Language) == "" {
		c.Language = defaultLanguage
	}
	if c.Threads <= 0 {
		c.Threads = defaultThreads
	}
	if c.Processors <= 0 {
		c.Processors = defaultProcessors
	}
	if len(c.SubtitleCandidates) == 0 {
		c.SubtitleCandidates = DefaultSubtitleCandidates
	}
	if c.StderrLimit <= 0 {
		c.StderrLimit = defaultStderrLimit
	}
	return c
}

// Result is the output of one transcription run.
type Result struct {
	VTT string
	// SubtitlePath is the transient subtitle file; callers remove it once parsed.
	SubtitlePath string
	Logs         []CommandLog
}

// Runner extracts audio from a video with ffmpeg and transcribes it with
// whisper.cpp into WebVTT.
type Runner struct {
	cfg      Config
	runner   commandRunner
	logger   zerolog.Logger
	stat     func(name string) (os.FileInfo, error)
	remove   func(name string) error
	readFile func(name string) ([]byte, error)
	lookPath func(file string) (string, error)
}

// NewRunner constructs a Runner backed by os/exec.
func NewRunner(cfg Config, logger *zerolog.Logger) *Runner {
	l := zerolog.New(io.Discard)
	if logger != nil {
		l = logger.With().Str("component", "transcribe").Logger()
	}
	return &Runner{
		cfg:      cfg.withDefaults(),
		runner:   execRunner{},
		logger:   l,
		stat:     os.Stat,
		remove:   os.Remove,
		readFile: os.ReadFile,
		lookPath: lookPath,
	}
}

// Run transcribes the video at videoPath. The extracted audio is always
// removed before returning.
func (r *Runner) Run(ctx context.Context, videoPath string) (Result, error) {
	ffmpeg, err := r.validate(videoPath)
	if err != nil {
		return Result{}, err
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	audioPath := AudioPath(videoPath)
	defer func() {
		if err := r.remove(audioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn().Err(err).Str("path", audioPath).Msg("transcribe: remove audio artifact failed")
		}
	}()

	var logs []CommandLog
	if _, err := r.stat(audioPath); err == nil {
		r.logger.Debug().Str("path", audioPath).Msg("transcribe: reusing extracted audio")
	} else {
		args := buildFFmpegArgs(videoPath, audioPath)
		log, runErr := r.exec(ctx, ffmpeg, args)
		logs = append(logs, log)
		if runErr != nil {
			return Result{Logs: logs}, &Error{Stage: StageExtract, Message: "audio extraction failed", Log: log, Err: runErr}
		}
	}

	args := buildWhisperArgs(r.cfg, audioPath)
	log, runErr := r.exec(ctx, r.cfg.WhisperPath, args)
	logs = append(logs, log)
	if runErr != nil {
		return Result{Logs: logs}, &Error{Stage: StageRecognize, Message: "speech recognition failed", Log: log, Err: runErr}
	}

	subtitlePath, ok := r.findSubtitle(videoPath, audioPath)
	if !ok {
		return Result{Logs: logs}, &Error{
			Stage:   StageCollect,
			Message: "subtitle file not found after recognition; tried " + strings.Join(r.candidatePaths(videoPath, audioPath), ", "),
			Log:     log,
		}
	}
	content, err := r.readFile(subtitlePath)
	if err != nil {
		return Result{Logs: logs}, &Error{Stage: StageCollect, Message: "read subtitle file " + subtitlePath, Log: log, Err: err}
	}
	r.logger.Info().Str("video", videoPath).Str("subtitles", subtitlePath).Int("bytes", len(content)).Msg("transcribe: completed")
	return Result{VTT: string(content), SubtitlePath: subtitlePath, Logs: logs}, nil
}

// CheckTools verifies that the whisper binary, the model and ffmpeg can be
// found. It does not run them.
func (r *Runner) CheckTools() error {
	_, err := r.validateTools()
	return err
}

func (r *Runner) validate(videoPath string) (string, error) {
	if err := r.checkPath("video file", videoPath); err != nil {
		return "", err
	}
	return r.validateTools()
}

func (r *Runner) validateTools() (string, error) {
	if err := r.checkPath("whisper executable", r.cfg.WhisperPath); err != nil {
		return "", err
	}
	if err := r.checkPath("whisper model", r.cfg.ModelPath); err != nil {
		return "", err
	}
	ffmpeg, err := r.lookPath(r.cfg.FFmpegPath)
	if err != nil {
		return "", &Error{Stage: StageValidate, Message: "ffmpeg executable not found: " + r.cfg.FFmpegPath, Err: err}
	}
	return ffmpeg, nil
}

func (r *Runner) checkPath(label, path string) error {
	if strings.TrimSpace(path) == "" {
		return &Error{Stage: StageValidate, Message: label + " path is not configured"}
	}
	if _, err := r.stat(path); err != nil {
		return &Error{Stage: StageValidate, Message: fmt.Sprintf("%s not found: %s", label, path), Err: err}
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, name string, args []string) (CommandLog, error) {
	r.logger.Debug().Str("cmd", name).Strs("args", args).Msg("transcribe: spawning")
	started := time.Now()
	res, err := r.runner.Run(ctx, name, args...)
	log := CommandLog{
		Command:  name,
		Args:     args,
		ExitCode: res.ExitCode,
		Stdout:   truncate(res.Stdout, r.cfg.StderrLimit),
		Stderr:   truncate(res.Stderr, r.cfg.StderrLimit),
	}
	event := r.logger.Debug()
	if err != nil {
		event = r.logger.Error().Err(err)
	}
	event.Str("cmd", name).Int("exit", res.ExitCode).Dur("took", time.Since(started)).Msg("transcribe: process exited")
	return log, err
}

func (r *Runner) findSubtitle(videoPath, audioPath string) (string, bool) {
	for _, candidate := range r.candidatePaths(videoPath, audioPath) {
		if info, err := r.stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func (r *Runner) candidatePaths(videoPath, audioPath string) []string {
	dir := filepath.Dir(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	replacer := strings.NewReplacer("{audio}", audioPath, "{dir}", dir, "{base}", base)
	out := make([]string, 0, len(r.cfg.SubtitleCandidates))
	seen := make(map[string]struct{}, len(r.cfg.SubtitleCandidates))
	for _, tmpl := range r.cfg.SubtitleCandidates {
		p := filepath.Clean(replacer.Replace(tmpl))
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// AudioPath derives the extracted audio location for a video.
func AudioPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".wav"
}

func buildFFmpegArgs(videoPath, audioPath string) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-i", videoPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		audioPath,
	}
}

func buildWhisperArgs(cfg Config, audioPath string) []string {
	return []string{
		"-m", cfg.ModelPath,
		"-f", audioPath,
		"-l", cfg.Language,
		"-ovtt",
		"-t", strconv.Itoa(cfg.Threads),
		"-p", strconv.Itoa(cfg.Processors),
	}
}

func lookPath(file string) (string, error) {
	if filepath.IsAbs(file) || strings.ContainsRune(file, filepath.Separator) {
		if _, err := os.Stat(file); err != nil {
			return "", err
		}
		return file, nil
	}
	return execLookPath(file)
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || len(s) <= limit {
		return s
	}
	// keep the tail; tools print the actual failure last
	start := len(s) - limit
	for start < len(s) && !utf8.RuneStart(s[start]) {
		start++
	}
	return "…" + s[start:]
}
