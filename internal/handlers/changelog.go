package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/crucial707/timecard/internal/models"
	"github.com/crucial707/timecard/internal/repo"
)

// ChangeLogHandler serves the timesheet audit trail.
type ChangeLogHandler struct {
	Repo *repo.ChangeLogRepo
}

// List returns recent change log entries, newest first.
// Query: timesheetId (optional filter), limit (default 50, max 200), offset (default 0).
func (h *ChangeLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 && val <= 200 {
			limit = val
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	var (
		entries []models.ChangeLogEntry
		err     error
	)
	if ts := r.URL.Query().Get("timesheetId"); ts != "" {
		timesheetID, convErr := strconv.Atoi(ts)
		if convErr != nil {
			JSONError(w, "invalid timesheetId", http.StatusBadRequest)
			return
		}
		entries, err = h.Repo.ListByTimesheet(r.Context(), timesheetID, limit, offset)
	} else {
		entries, err = h.Repo.List(r.Context(), limit, offset)
	}
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.ChangeLogEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
