package handlers

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed openapi.json
var openAPISpec []byte

const openAPIPath = "/v1/openapi.json"

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <style>body { margin: 0; } redoc { display: block; height: 100vh; }</style>
</head>
<body>
  <redoc spec-url="{{.SpecURL}}"></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
</body>
</html>`))

// OpenAPIJSON serves the embedded API description.
func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

// OpenAPIDocs renders a ReDoc page for OpenAPIJSON.
func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := docsPage.Execute(w, struct{ Title, SpecURL string }{"Lecture Quiz API", openAPIPath})
	if err != nil {
		a.Logger.Error().Err(err).Msg("render api docs")
	}
}
