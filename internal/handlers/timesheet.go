package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/crucial707/timecard/internal/metrics"
	"github.com/crucial707/timecard/internal/middleware"
	"github.com/crucial707/timecard/internal/models"
	"github.com/crucial707/timecard/internal/notify"
	"github.com/crucial707/timecard/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Notifier is the best-effort post-commit notification hook. Its failures are
// logged and counted but never affect the save result.
type Notifier interface {
	RevisionSaved(ctx context.Context, n notify.Revision)
}

type TimesheetHandler struct {
	Repo *repo.TimesheetRepo

	// Notify may be nil, in which case no notifications are sent.
	Notify Notifier
}

//
// ==========================
// Timesheet Details
// ==========================
//

func (h *TimesheetHandler) GetDetails(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid timesheet id", http.StatusBadRequest)
		return
	}

	snap, err := h.Repo.Details(r.Context(), id)
	if err != nil {
		JSONError(w, "timesheet not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]models.TimesheetSnapshot{"timesheet": snap})
}

//
// ==========================
// Submit Revision
// ==========================
//

// revisionRequest mirrors the fields the editing client submits. The editor is
// never part of the body; it comes from the authenticated request and is passed
// down explicitly.
type revisionRequest struct {
	Changes         json.RawMessage `json:"changes"`
	ChangeReason    string          `json:"changeReason" validate:"required"`
	NumberOfChanges int             `json:"numberOfChanges" validate:"min=0"`
	StartTime       string          `json:"startTime" validate:"required"`
	EndTime         string          `json:"endTime"`
	JobsiteID       string          `json:"jobsiteId"`
	CostCode        string          `json:"costCode"`
	Comment         string          `json:"comment"`
}

// SubmitRevision validates the edit, saves it atomically (timesheet update plus
// audit entry in one transaction), and fires the best-effort notification once
// the transaction has committed.
func (h *TimesheetHandler) SubmitRevision(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		metrics.RecordRevision("rejected")
		JSONError(w, repo.ErrTimesheetIDRequired.Error(), http.StatusBadRequest)
		return
	}

	editorID := middleware.UserID(r.Context())
	if editorID == 0 {
		metrics.RecordRevision("rejected")
		JSONError(w, "No user detected", http.StatusUnauthorized)
		return
	}

	var input revisionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		metrics.RecordRevision("rejected")
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		metrics.RecordRevision("rejected")
		JSONValidationError(w, "validation failed", ValidationFields(err), http.StatusBadRequest)
		return
	}

	changes, err := decodeChanges(input.Changes)
	if err != nil {
		metrics.RecordRevision("rejected")
		JSONError(w, "invalid changes payload", http.StatusBadRequest)
		return
	}

	res, err := h.Repo.SaveRevision(r.Context(), repo.RevisionInput{
		TimesheetID:     id,
		EditorID:        editorID,
		ChangeReason:    input.ChangeReason,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
		Comment:         input.Comment,
		JobsiteID:       input.JobsiteID,
		CostCodeName:    input.CostCode,
		Changes:         changes,
		NumberOfChanges: input.NumberOfChanges,
	})
	if err != nil {
		if isRevisionValidationError(err) {
			metrics.RecordRevision("rejected")
			JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		metrics.RecordRevision("error")
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	metrics.RecordRevision("saved")
	if res.EditorLog != nil {
		metrics.ChangeLogEntriesTotal.Inc()
	}

	// Post-commit hook: the save has already succeeded, notification failures
	// stay out of the response entirely.
	if h.Notify != nil {
		h.Notify.RevisionSaved(r.Context(), notify.Revision{
			TimesheetID:     id,
			NumberOfChanges: input.NumberOfChanges,
			EditorName:      res.EditorFullName,
			OwnerName:       res.UserFullName,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"timesheet":      res.Timesheet,
		"editorLog":      res.EditorLog,
		"userFullname":   res.UserFullName,
		"editorFullName": res.EditorFullName,
	})
}

// decodeChanges accepts the diff either as a JSON object or as a JSON string
// wrapping one (form-encoded clients send the latter).
func decodeChanges(raw json.RawMessage) (models.RevisionDiff, error) {
	if len(raw) == 0 {
		return models.RevisionDiff{}, nil
	}
	var diff models.RevisionDiff
	if err := json.Unmarshal(raw, &diff); err == nil {
		return diff, nil
	}
	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped == "" {
		return models.RevisionDiff{}, nil
	}
	if err := json.Unmarshal([]byte(wrapped), &diff); err != nil {
		return nil, err
	}
	return diff, nil
}

func isRevisionValidationError(err error) bool {
	return errors.Is(err, repo.ErrTimesheetIDRequired) ||
		errors.Is(err, repo.ErrEditorIDRequired) ||
		errors.Is(err, repo.ErrChangeReasonRequired) ||
		errors.Is(err, repo.ErrStartTimeRequired)
}
