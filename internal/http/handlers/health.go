package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	active := 0
	if a.Launcher != nil {
		active = a.Launcher.Count()
	}
	a.json(w, http.StatusOK, map[string]any{"status": "ok", "active_jobs": active})
}
