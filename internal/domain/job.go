package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusUploaded       JobStatus = "uploaded"
	JobStatusTranscribing   JobStatus = "transcribing"
	JobStatusGeneratingMCQs JobStatus = "generating_mcqs"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusFailed         JobStatus = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusUploaded, JobStatusTranscribing, JobStatusGeneratingMCQs, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransitionTo enforces the forward-only job state machine. Every
// non-terminal state may fail; otherwise only the next stage is reachable.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	switch s {
	case JobStatusUploaded:
		return next == JobStatusTranscribing
	case JobStatusTranscribing:
		return next == JobStatusGeneratingMCQs
	case JobStatusGeneratingMCQs:
		return next == JobStatusCompleted
	default:
		return false
	}
}

// Job is the processing record for one uploaded video.
type Job struct {
	ID               string
	OriginalFilename string
	StoredFilename   string
	MediaPath        string
	Status           JobStatus
	ErrorMessage     string
	TranscriptID     *string
	QuestionIDs      []string
	UploaderCountry  string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// MaxErrorMessageLen bounds error messages stored on a job.
const MaxErrorMessageLen = 500

// TruncateMessage shortens msg to at most limit bytes without splitting a
// UTF-8 sequence.
func TruncateMessage(msg string, limit int) string {
	if limit <= 0 || len(msg) <= limit {
		return msg
	}
	cut := limit
	for cut > 0 && !utf8RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
