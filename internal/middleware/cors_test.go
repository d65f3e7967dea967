package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := CORS([]string{"http://localhost:5173/", " "})(next)

	tests := []struct {
		name       string
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantAllow  string
		wantMaxAge string
	}{
		{name: "allowed origin", method: http.MethodGet, origin: "http://localhost:5173", wantStatus: http.StatusTeapot, wantAllow: "http://localhost:5173"},
		{name: "foreign origin", method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusTeapot},
		{name: "preflight", method: http.MethodOptions, origin: "http://localhost:5173", preflight: true, wantStatus: http.StatusNoContent, wantAllow: "http://localhost:5173", wantMaxAge: "600"},
		{name: "foreign preflight", method: http.MethodOptions, origin: "https://evil.example", preflight: true, wantStatus: http.StatusForbidden},
		{name: "plain options", method: http.MethodOptions, origin: "http://localhost:5173", wantStatus: http.StatusTeapot, wantAllow: "http://localhost:5173"},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusTeapot},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/videos/x/status", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if tc.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantAllow {
				t.Fatalf("Access-Control-Allow-Origin = %q, want %q", got, tc.wantAllow)
			}
			if got := rec.Header().Get("Access-Control-Max-Age"); got != tc.wantMaxAge {
				t.Fatalf("Access-Control-Max-Age = %q, want %q", got, tc.wantMaxAge)
			}
		})
	}
}

func TestCORSWildcard(t *testing.T) {
	h := CORS([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}
