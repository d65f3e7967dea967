package subtitle

import (
	"fmt"
	"regexp"
	"strings"
)

// Cue is one timestamped span of recognized speech.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

const timestampPattern = `(?:\d+:)?\d{2}:\d{2}\.\d{3}`

var (
	cueHeaderRegexp  = regexp.MustCompile(`^(` + timestampPattern + `)\s+-->\s+(` + timestampPattern + `)(?:\s+\S.*)?$`)
	sequenceRegexp   = regexp.MustCompile(`^\d+$`)
	annotationRegexp = regexp.MustCompile(`^(?:\[[^\]]*\]|\([^)]*\))$`)
)

// blockKeywords open metadata blocks that run until the next blank line.
var blockKeywords = []string{"NOTE", "STYLE", "REGION"}

// preamblePrefixes mark header lines that never carry speech.
var preamblePrefixes = []string{"WEBVTT", "Kind:", "Language:"}

// ParseVTT extracts cues from a WebVTT document in document order. Cues with
// no text are dropped.
func ParseVTT(doc string) []Cue {
	var (
		cues    []Cue
		current *Cue
		inBlock bool
	)
	flush := func() {
		if current != nil && current.Text != "" {
			cues = append(cues, *current)
		}
		current = nil
	}

	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if line == "" {
			inBlock = false
			continue
		}
		if inBlock {
			continue
		}
		if m := cueHeaderRegexp.FindStringSubmatch(line); m != nil {
			flush()
			current = &Cue{Start: ParseTimestamp(m[1]), End: ParseTimestamp(m[2])}
			continue
		}
		if isBlockStart(line) {
			inBlock = true
			continue
		}
		if current == nil || isPreamble(line) || sequenceRegexp.MatchString(line) || annotationRegexp.MatchString(line) {
			continue
		}
		if current.Text == "" {
			current.Text = line
		} else {
			current.Text += " " + line
		}
	}
	flush()
	return cues
}

func isBlockStart(line string) bool {
	for _, kw := range blockKeywords {
		if line == kw || strings.HasPrefix(line, kw+" ") || strings.HasPrefix(line, kw+"\t") {
			return true
		}
	}
	return false
}

func isPreamble(line string) bool {
	for _, prefix := range preamblePrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// RenderVTT writes cues back out as a WebVTT document.
func RenderVTT(cues []Cue) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for i, c := range cues {
		fmt.Fprintf(&b, "\n%d\n%s --> %s\n%s\n", i+1, FormatTimestamp(c.Start), FormatTimestamp(c.End), c.Text)
	}
	return b.String()
}
