package subtitle

import "strings"

// DefaultWindowMinutes is the window size used when none is configured.
const DefaultWindowMinutes = 5

// Window is a coarse group of consecutive cues used as one generation unit.
type Window struct {
	Start float64
	End   float64
	Text  string
}

// Segment groups cues into windows of roughly the given length. A window
// closes as soon as the span from its first cue's start to the current cue's
// end reaches the target, so boundaries follow the cues rather than a fixed
// grid. Whatever remains becomes a final, possibly shorter, window.
func Segment(cues []Cue, minutes float64) []Window {
	if len(cues) == 0 {
		return nil
	}
	if minutes <= 0 {
		minutes = DefaultWindowMinutes
	}
	target := MinutesToSeconds(minutes)

	var (
		windows []Window
		acc     []Cue
	)
	emit := func() {
		windows = append(windows, Window{
			Start: acc[0].Start,
			End:   acc[len(acc)-1].End,
			Text:  JoinText(acc),
		})
		acc = acc[:0]
	}
	for _, cue := range cues {
		acc = append(acc, cue)
		if cue.End-acc[0].Start >= target {
			emit()
		}
	}
	if len(acc) > 0 {
		emit()
	}
	return windows
}

// JoinText concatenates cue texts with single spaces.
func JoinText(cues []Cue) string {
	parts := make([]string, 0, len(cues))
	for _, cue := range cues {
		if text := strings.TrimSpace(cue.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
