package transcribe

import "fmt"

// Stages reported on Error.
const (
	StageValidate  = "validate"
	StageExtract   = "extract_audio"
	StageRecognize = "recognize"
	StageCollect   = "collect_subtitles"
)

// Error is a stage-aware transcription failure carrying the diagnostic
// output of the command involved, if any.
type Error struct {
	Stage   string
	Message string
	Log     CommandLog
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Message)
	if e.Log.Command != "" {
		msg = fmt.Sprintf("%s (cmd=%s exit=%d)", msg, e.Log.Command, e.Log.ExitCode)
	}
	if e.Log.Stderr != "" {
		msg += ": " + e.Log.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
