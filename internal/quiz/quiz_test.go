package quiz

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type stubCompleter struct {
	calls    int
	prompt   string
	response string
	err      error
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.response, s.err
}

const lectureText = "Entropy measures the number of microstates consistent with a macrostate."

func newTestGenerator(t *testing.T, c Completer, logs *bytes.Buffer) *Generator {
	t.Helper()
	logger := zerolog.New(logs)
	g, err := NewGenerator(Options{Completer: c, Logger: &logger})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestGenerateSkipsShortText(t *testing.T) {
	stub := &stubCompleter{}
	g := newTestGenerator(t, stub, &bytes.Buffer{})
	got, err := g.Generate(context.Background(), "   too short   ")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Generate() = %#v, want empty", got)
	}
	if stub.calls != 0 {
		t.Fatalf("completer called %d times, want 0", stub.calls)
	}
}

func TestGenerateFiltersInvalidEntries(t *testing.T) {
	stub := &stubCompleter{response: `[
		{"question":"What does entropy measure?","options":["Microstates","Heat","Mass","Charge"],"correctAnswer":"A"},
		{"question":"Which is consistent with a macrostate?","options":["Energy","Microstates","Volume","Time"],"correctAnswer":"Microstates"},
		{"question":"Broken?","options":["one","two","three"],"correctAnswer":"B"}
	]`}
	var logs bytes.Buffer
	g := newTestGenerator(t, stub, &logs)

	got, err := g.Generate(context.Background(), lectureText)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Generate() returned %d drafts, want 2", len(got))
	}
	if got[0].CorrectAnswer != "A" || got[1].CorrectAnswer != "B" {
		t.Fatalf("answers = %q, %q", got[0].CorrectAnswer, got[1].CorrectAnswer)
	}
	if !strings.Contains(logs.String(), `"dropped":1`) {
		t.Fatalf("expected filtered count in logs, got %s", logs.String())
	}
	if !strings.Contains(stub.prompt, lectureText) || !strings.Contains(stub.prompt, "exactly 3") {
		t.Fatalf("prompt missing context or count: %s", stub.prompt)
	}
}

func TestGenerateAcceptsSingleObjectAndWrapper(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{name: "single object", response: `{"question":"Q?","options":["a","b","c","d"],"correctAnswer":"d"}`, want: 1},
		{name: "wrapped", response: `{"questions":[{"question":"Q?","options":["a","b","c","d"],"correctAnswer":"C"},{"question":"R?","options":["a","b","c","d"],"correctAnswer":"B)"}]}`, want: 2},
		{name: "fenced", response: "```json\n[{\"question\":\"Q?\",\"options\":[\"a\",\"b\",\"c\",\"d\"],\"correctAnswer\":\"Option A\"}]\n```", want: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGenerator(t, &stubCompleter{response: tc.response}, &bytes.Buffer{})
			got, err := g.Generate(context.Background(), lectureText)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("Generate() = %d drafts, want %d", len(got), tc.want)
			}
		})
	}
}

func TestGenerateNoValidQuestions(t *testing.T) {
	stub := &stubCompleter{response: `[{"question":"Q?","options":["a","a","b","c"],"correctAnswer":"A"},{"question":"","options":["a","b","c","d"],"correctAnswer":"A"},{"question":"Q?","options":["a","b","c","d"],"correctAnswer":"E"}]`}
	g := newTestGenerator(t, stub, &bytes.Buffer{})
	_, err := g.Generate(context.Background(), lectureText)
	if !errors.Is(err, ErrNoValidQuestions) {
		t.Fatalf("Generate() error = %v, want ErrNoValidQuestions", err)
	}
}

func TestGenerateMalformedPayload(t *testing.T) {
	raw := "Sure! Here are your questions: " + strings.Repeat("x", 400)
	g := newTestGenerator(t, &stubCompleter{response: raw}, &bytes.Buffer{})
	_, err := g.Generate(context.Background(), lectureText)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Generate() error = %v, want ErrMalformedPayload", err)
	}
	var perr *PayloadError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PayloadError, got %T", err)
	}
	if len([]rune(perr.Raw)) > rawExcerptLimit+3 {
		t.Fatalf("raw excerpt not truncated: %d runes", len([]rune(perr.Raw)))
	}
}

func TestGenerateCompleterError(t *testing.T) {
	boom := errors.New("connection refused")
	g := newTestGenerator(t, &stubCompleter{err: boom}, &bytes.Buffer{})
	if _, err := g.Generate(context.Background(), lectureText); !errors.Is(err, boom) {
		t.Fatalf("Generate() error = %v, want wrapped completer error", err)
	}
}

func TestNewGeneratorRequiresCompleter(t *testing.T) {
	if _, err := NewGenerator(Options{}); err == nil {
		t.Fatal("expected error without completer")
	}
}

func TestResolveAnswer(t *testing.T) {
	options := []string{"Red", "Green", "Blue", "Yellow"}
	cases := map[string]string{"a": "A", "B.": "B", "option c": "C", "yellow": "D", "(d)": ""}
	for in, want := range cases {
		got, ok := resolveAnswer(in, options)
		if want == "" {
			if ok {
				t.Fatalf("resolveAnswer(%q) = %q, want failure", in, got)
			}
			continue
		}
		if !ok || got != want {
			t.Fatalf("resolveAnswer(%q) = %q, %t; want %q", in, got, ok, want)
		}
	}
}
