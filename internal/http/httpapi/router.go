package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"lecturequiz/internal/http/handlers"
	"lecturequiz/internal/middleware"
)

// Options configures the router's middleware.
type Options struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	UploadsPerMin  int
	CountryLookup  middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats", app.StatsSummary)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/api/videos", func(r chi.Router) {
		r.With(
			middleware.RateLimit(opts.UploadsPerMin, time.Minute),
			middleware.Country(opts.CountryLookup),
		).Post("/upload", app.Upload)
		r.Get("/{id}/status", app.Status)
		r.Get("/{id}/results", app.Results)
	})

	return r
}
