package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"lecturequiz/internal/domain"
)

// wrapperKeys are object fields some models use to wrap the question array.
var wrapperKeys = []string{"questions", "mcqs", "items"}

var optionLetters = []string{"A", "B", "C", "D"}

type rawEntry struct {
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
}

// decodeEntries accepts an array, a single object, or an object wrapping an
// array, and always returns a slice.
func decodeEntries(raw string) ([]rawEntry, error) {
	cleaned := trimCodeFence(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}
	data := []byte(cleaned)
	if !json.Valid(data) {
		var probe any
		return nil, json.Unmarshal(data, &probe)
	}
	switch data[0] {
	case '[':
		var entries []rawEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, err
		}
		for _, key := range wrapperKeys {
			if inner, ok := fields[key]; ok && len(bytes.TrimSpace(inner)) > 0 && bytes.TrimSpace(inner)[0] == '[' {
				var entries []rawEntry
				if err := json.Unmarshal(inner, &entries); err != nil {
					return nil, err
				}
				return entries, nil
			}
		}
		var entry rawEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, err
		}
		return []rawEntry{entry}, nil
	default:
		return nil, errors.New("payload is neither an object nor an array")
	}
}

// validate checks one entry and normalizes the correct answer to a letter.
func (e rawEntry) validate() (Draft, bool) {
	question := strings.TrimSpace(e.Question)
	if question == "" || len(e.Options) != domain.OptionCount {
		return Draft{}, false
	}
	options := make([]string, len(e.Options))
	seen := make(map[string]struct{}, len(e.Options))
	for i, opt := range e.Options {
		opt = strings.TrimSpace(opt)
		key := strings.ToLower(opt)
		if opt == "" {
			return Draft{}, false
		}
		if _, dup := seen[key]; dup {
			return Draft{}, false
		}
		seen[key] = struct{}{}
		options[i] = opt
	}
	letter, ok := resolveAnswer(answerString(e.CorrectAnswer), options)
	if !ok {
		return Draft{}, false
	}
	return Draft{Question: question, Options: options, CorrectAnswer: letter}, true
}

// answerString accepts the answer as a JSON string or a bare number.
func answerString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// resolveAnswer maps "B", "b)", "Option B" or the option text itself to the
// option letter.
func resolveAnswer(answer string, options []string) (string, bool) {
	if answer == "" {
		return "", false
	}
	for i, opt := range options {
		if strings.EqualFold(answer, opt) {
			return optionLetters[i], true
		}
	}
	normalized := strings.ToUpper(strings.TrimSpace(answer))
	normalized = strings.TrimPrefix(normalized, "OPTION ")
	normalized = strings.TrimRight(normalized, ").:")
	for _, letter := range optionLetters {
		if normalized == letter {
			return letter, true
		}
	}
	return "", false
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
