package handlers

import (
	"net/http"

	"lecturequiz/internal/domain"
)

var reportedStatuses = []domain.JobStatus{
	domain.JobStatusUploaded,
	domain.JobStatusTranscribing,
	domain.JobStatusGeneratingMCQs,
	domain.JobStatusCompleted,
	domain.JobStatusFailed,
}

// StatsSummary reports job counts per status plus the in-process task count.
func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	if a.Stats == nil {
		a.error(w, http.StatusServiceUnavailable, "Stats are not available.", nil)
		return
	}
	counts, err := a.Stats.CountByStatus(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("load job stats")
		a.error(w, http.StatusInternalServerError, "Failed to load stats.", err)
		return
	}

	byStatus := make(map[string]int, len(reportedStatuses))
	total := 0
	for _, st := range reportedStatuses {
		byStatus[string(st)] = counts[st]
		total += counts[st]
	}
	active := 0
	if a.Launcher != nil {
		active = a.Launcher.Count()
	}
	a.json(w, http.StatusOK, map[string]any{
		"total":       total,
		"by_status":   byStatus,
		"active_jobs": active,
	})
}
