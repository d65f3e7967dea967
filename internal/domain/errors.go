package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrNoCues            = errors.New("transcription produced no cues")
	ErrNotReady          = errors.New("job not completed")
)
