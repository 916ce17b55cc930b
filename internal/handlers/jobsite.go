package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/crucial707/timecard/internal/models"
	"github.com/crucial707/timecard/internal/repo"
)

// JobsiteHandler serves the jobsite picker for the editing UI.
type JobsiteHandler struct {
	Repo *repo.JobsiteRepo
}

// Summary returns all jobsites ordered by name.
func (h *JobsiteHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Repo.Summary(r.Context())
	if err != nil {
		JSONError(w, "failed to fetch jobsites", http.StatusInternalServerError)
		return
	}
	if sites == nil {
		sites = []models.Jobsite{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sites)
}

// CostCodeHandler serves cost codes scoped to a jobsite.
type CostCodeHandler struct {
	Repo *repo.CostCodeRepo
}

// ListByJobsite returns the cost codes valid for the jobsite in the jobsiteId
// query parameter.
func (h *CostCodeHandler) ListByJobsite(w http.ResponseWriter, r *http.Request) {
	jobsiteID := r.URL.Query().Get("jobsiteId")
	if jobsiteID == "" {
		JSONError(w, "jobsiteId is required", http.StatusBadRequest)
		return
	}

	codes, err := h.Repo.ListByJobsite(r.Context(), jobsiteID)
	if err != nil {
		JSONError(w, "failed to fetch cost codes", http.StatusInternalServerError)
		return
	}
	if codes == nil {
		codes = []models.CostCode{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(codes)
}
