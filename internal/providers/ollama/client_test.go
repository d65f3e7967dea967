package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	var captured generateRequest
	var path string
	client, err := NewClient(Options{
		BaseURL: "http://ollama.local:11434/api/generate",
		Model:   "llama3",
		HTTPClient: &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			path = r.URL.Path
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			return jsonResponse(http.StatusOK, `{"model":"llama3","response":"[{\"question\":\"q\"}]","done":true}`), nil
		})},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := client.Complete(context.Background(), "prompt text")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `[{"question":"q"}]` {
		t.Fatalf("Complete() = %q", got)
	}
	if path != "/api/generate" {
		t.Fatalf("path = %q", path)
	}
	if captured.Model != "llama3" || captured.Prompt != "prompt text" || captured.Stream || captured.Format != "json" {
		t.Fatalf("request = %+v", captured)
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		err     error
		wantSub string
	}{
		{name: "transport", err: errors.New("dial tcp: refused"), wantSub: "http request"},
		{name: "status with detail", resp: jsonResponse(http.StatusNotFound, `{"error":"model 'x' not found"}`), wantSub: "model 'x' not found"},
		{name: "status plain", resp: jsonResponse(http.StatusBadGateway, `upstream down`), wantSub: "status 502"},
		{name: "empty", resp: jsonResponse(http.StatusOK, `{"response":"  "}`), wantSub: "empty response"},
		{name: "garbage", resp: jsonResponse(http.StatusOK, `<html>`), wantSub: "decode response"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, err := NewClient(Options{
				Model: "llama3",
				HTTPClient: &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
					return tc.resp, tc.err
				})},
			})
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			_, err = client.Complete(context.Background(), "p")
			if err == nil || !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("Complete() error = %v, want substring %q", err, tc.wantSub)
			}
		})
	}
}

func TestNewClientRequiresModel(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing model")
	}
}
