package httpapi

import (
	"errors"
	"net/http"

	"jobmatch-engine/internal/pipeline"
	"jobmatch-engine/internal/scrape"
	"jobmatch-engine/internal/staging"
	"jobmatch-engine/internal/syncer"
)

type SyncHandler struct {
	Pipeline PipelineRunner
	Auth     Authorizer
}

type syncResponse struct {
	Success        bool `json:"success"`
	JobsScraped    int  `json:"jobsScraped"`
	JobsSynced     int  `json:"jobsSynced"`
	MatchesCreated int  `json:"matchesCreated"`
	MatchesUpdated int  `json:"matchesUpdated"`
}

type syncErrorResponse struct {
	Error       string `json:"error"`
	Stage       string `json:"stage,omitempty"`
	Details     string `json:"details,omitempty"`
	JobsScraped int    `json:"jobsScraped"`
	JobsSynced  int    `json:"jobsSynced"`
}

// Run triggers one full pipeline run and waits for it, so the caller gets
// real counts back rather than a fire-and-forget ack.
func (h SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Auth == nil || !h.Auth.Authorize(r) {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	res, err := h.Pipeline.Run(r.Context())
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			WriteJSON(w, http.StatusConflict, syncErrorResponse{
				Error: "Sync already running",
			})
			return
		}
		WriteJSON(w, http.StatusInternalServerError, syncErrorResponse{
			Error:       "Sync failed",
			Stage:       stageOf(err),
			Details:     err.Error(),
			JobsScraped: res.JobsScraped,
			JobsSynced:  res.JobsSynced,
		})
		return
	}

	WriteJSON(w, http.StatusOK, syncResponse{
		Success:        true,
		JobsScraped:    res.JobsScraped,
		JobsSynced:     res.JobsSynced,
		MatchesCreated: res.MatchesCreated,
		MatchesUpdated: res.MatchesUpdated,
	})
}

func (h SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Pipeline.Status())
}

// stageOf names the pipeline stage a fatal error came from, so operators can
// tell a scrape timeout from a store outage without reading stack traces.
func stageOf(err error) string {
	var scrapeErr *scrape.Error
	if errors.As(err, &scrapeErr) {
		return "scrape"
	}
	var readErr *staging.ReadError
	if errors.As(err, &readErr) {
		return "staging"
	}
	var writeErr *syncer.WriteError
	if errors.As(err, &writeErr) {
		return "sync"
	}
	return "match"
}
