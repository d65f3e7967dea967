package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		lookup CountryLookup
		want   string
	}{
		{
			name:  "cloudflare header",
			setup: func(r *http.Request) { r.Header.Set("CF-IPCountry", "id") },
			want:  "ID",
		},
		{
			name:  "unknown cloudflare marker ignored",
			setup: func(r *http.Request) { r.Header.Set("CF-IPCountry", "XX") },
			lookup: func(ip string) (string, error) {
				return "de", nil
			},
			want: "DE",
		},
		{
			name: "lookup uses forwarded ip",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
			},
			lookup: func(ip string) (string, error) {
				if ip != "203.0.113.7" {
					return "", assertError("unexpected ip " + ip)
				}
				return "us", nil
			},
			want: "US",
		},
		{
			name: "lookup error yields empty",
			lookup: func(string) (string, error) {
				return "", assertError("db closed")
			},
			want: "",
		},
		{
			name: "no hints and no lookup",
			want: "",
		},
		{
			name:  "garbage header ignored",
			setup: func(r *http.Request) { r.Header.Set("X-Country-Code", "Indonesia") },
			want:  "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountryMiddlewareStoresCode(t *testing.T) {
	var got string
	h := Country(func(string) (string, error) { return "fr", nil })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/videos/upload", nil))
	if got != "FR" {
		t.Fatalf("CountryFromContext() = %q, want FR", got)
	}
}
