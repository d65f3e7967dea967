package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "reuses incoming", incoming: "abc-123", keep: true},
		{name: "mints when missing"},
		{name: "replaces oversized", incoming: strings.Repeat("a", 200)},
		{name: "replaces with spaces", incoming: "has space"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.incoming != "" {
				req.Header.Set(RequestIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
				t.Fatalf("context id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
			}
			if tc.keep && seen != tc.incoming {
				t.Fatalf("id = %q, want %q", seen, tc.incoming)
			}
			if !tc.keep && seen == tc.incoming {
				t.Fatalf("id %q was not replaced", seen)
			}
		})
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	h := RequestID(Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})))
	req := httptest.NewRequest(http.MethodGet, "/api/videos/x/status", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v (%s)", err, buf.String())
	}
	if entry["level"] != "warn" || entry["status"] != float64(404) || entry["request_id"] != "rid-1" {
		t.Fatalf("entry = %v", entry)
	}
	if entry["bytes"] != float64(7) {
		t.Fatalf("bytes = %v, want 7", entry["bytes"])
	}
}
