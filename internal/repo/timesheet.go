package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crucial707/timecard/internal/models"
)

// Validation errors returned before any transaction is opened.
var (
	ErrTimesheetIDRequired  = errors.New("Timesheet ID is required")
	ErrEditorIDRequired     = errors.New("Editor ID is required")
	ErrChangeReasonRequired = errors.New("Change reason is required")
	ErrStartTimeRequired    = errors.New("Start time is required")
)

type TimesheetRepo struct {
	DB *sql.DB
}

func NewTimesheetRepo(db *sql.DB) *TimesheetRepo {
	return &TimesheetRepo{DB: db}
}

// RevisionInput is everything SaveRevision needs. EditorID is always passed in
// explicitly; the repo never reads identity from ambient state.
type RevisionInput struct {
	TimesheetID  int
	EditorID     int
	ChangeReason string

	// StartTime is required. EndTime, Comment, JobsiteID and CostCodeName are
	// optional: when empty the existing value is left untouched, not cleared.
	StartTime    string
	EndTime      string
	Comment      string
	JobsiteID    string
	CostCodeName string

	// Changes and NumberOfChanges come from the change detector. The change
	// log insert is gated on NumberOfChanges > 0.
	Changes         models.RevisionDiff
	NumberOfChanges int
}

// RevisionResult is what the caller needs to report the save and notify
// interested parties.
type RevisionResult struct {
	Timesheet      models.TimesheetSnapshot
	EditorLog      *models.ChangeLogEntry
	UserFullName   string
	EditorFullName string
}

// revisionTimeLayouts are the shapes a submitted time value may take.
var revisionTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

func parseRevisionTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range revisionTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// ==========================
// Save Revision (one transaction)
// ==========================
//
// SaveRevision atomically persists an edited timesheet and, when the diff is
// non-empty, its audit entry:
//
//  1. resolve the editor's display name (denormalized into the log row),
//  2. insert a change log entry iff NumberOfChanges > 0,
//  3. update the timesheet row (jobsite re-pointed by id, cost code by its
//     name, end time kept when absent),
//  4. resolve the owning user's display name for caller-side messaging.
//
// Everything commits or rolls back together; no partial audit state is ever
// observable. Concurrent saves of the same timesheet are last-writer-wins.
func (r *TimesheetRepo) SaveRevision(ctx context.Context, in RevisionInput) (RevisionResult, error) {
	var res RevisionResult

	if in.TimesheetID == 0 {
		return res, ErrTimesheetIDRequired
	}
	if in.EditorID == 0 {
		return res, ErrEditorIDRequired
	}
	if strings.TrimSpace(in.ChangeReason) == "" {
		return res, ErrChangeReasonRequired
	}
	if strings.TrimSpace(in.StartTime) == "" {
		return res, ErrStartTimeRequired
	}

	startTime, err := parseRevisionTime(in.StartTime)
	if err != nil {
		return res, fmt.Errorf("start time: %w", err)
	}

	var endTime *time.Time
	if strings.TrimSpace(in.EndTime) != "" {
		t, err := parseRevisionTime(in.EndTime)
		if err != nil {
			return res, fmt.Errorf("end time: %w", err)
		}
		endTime = &t
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	// Editor name first: it is denormalized into the log row and returned to
	// the caller either way.
	var editor models.User
	err = tx.QueryRowContext(ctx,
		`SELECT id, username, first_name, last_name FROM users WHERE id = $1`,
		in.EditorID,
	).Scan(&editor.ID, &editor.Username, &editor.FirstName, &editor.LastName)
	if err != nil {
		if err == sql.ErrNoRows {
			return res, fmt.Errorf("editor %d not found", in.EditorID)
		}
		return res, err
	}
	res.EditorFullName = editor.FullName()

	if in.NumberOfChanges > 0 {
		changesJSON, err := json.Marshal(in.Changes)
		if err != nil {
			return res, fmt.Errorf("marshal changes: %w", err)
		}
		entry := &models.ChangeLogEntry{
			TimesheetID:     in.TimesheetID,
			ChangedBy:       in.EditorID,
			ChangedByName:   res.EditorFullName,
			Changes:         in.Changes,
			ChangeReason:    in.ChangeReason,
			NumberOfChanges: in.NumberOfChanges,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO timesheet_change_logs
			   (timesheet_id, changed_by, changed_by_name, changes, change_reason, number_of_changes)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at`,
			in.TimesheetID, in.EditorID, res.EditorFullName, changesJSON, in.ChangeReason, in.NumberOfChanges,
		).Scan(&entry.ID, &entry.CreatedAt)
		if err != nil {
			return res, err
		}
		res.EditorLog = entry
	}

	// Optional fields keep their existing value when not provided. The cost
	// code is matched by name within the (possibly re-pointed) jobsite.
	var userID int
	err = tx.QueryRowContext(ctx,
		`UPDATE timesheets SET
		   start_time   = $1,
		   end_time     = COALESCE($2, end_time),
		   comment      = COALESCE($3, comment),
		   jobsite_id   = COALESCE($4, jobsite_id),
		   cost_code_id = COALESCE(
		     (SELECT id FROM cost_codes WHERE name = $5 AND jobsite_id = COALESCE($4, jobsite_id)),
		     cost_code_id),
		   updated_at   = NOW()
		 WHERE id = $6
		 RETURNING user_id`,
		startTime, nullTime(endTime), nullString(in.Comment), nullString(in.JobsiteID), in.CostCodeName, in.TimesheetID,
	).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return res, fmt.Errorf("timesheet %d not found", in.TimesheetID)
		}
		return res, err
	}

	snapshot, err := detailsTx(ctx, tx, in.TimesheetID)
	if err != nil {
		return res, err
	}
	res.Timesheet = snapshot

	var owner models.User
	err = tx.QueryRowContext(ctx,
		`SELECT id, username, first_name, last_name FROM users WHERE id = $1`,
		userID,
	).Scan(&owner.ID, &owner.Username, &owner.FirstName, &owner.LastName)
	if err != nil {
		return res, err
	}
	res.UserFullName = owner.FullName()

	if err := tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// ==========================
// Timesheet Details
// ==========================

// Details returns the editable snapshot of one timesheet with its jobsite and
// cost code refs resolved.
func (r *TimesheetRepo) Details(ctx context.Context, id int) (models.TimesheetSnapshot, error) {
	return details(ctx, r.DB, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func detailsTx(ctx context.Context, tx *sql.Tx, id int) (models.TimesheetSnapshot, error) {
	return details(ctx, tx, id)
}

const detailsQuery = `
	SELECT t.id, t.comment, t.start_time, t.end_time,
	       j.id, j.name, c.id, c.name
	FROM timesheets t
	LEFT JOIN jobsites j ON j.id = t.jobsite_id
	LEFT JOIN cost_codes c ON c.id = t.cost_code_id
	WHERE t.id = $1`

func details(ctx context.Context, q querier, id int) (models.TimesheetSnapshot, error) {
	var (
		snap             models.TimesheetSnapshot
		startTime        time.Time
		endTime          sql.NullTime
		jobID, jobName   sql.NullString
		codeID, codeName sql.NullString
	)
	err := q.QueryRowContext(ctx, detailsQuery, id).Scan(
		&snap.ID, &snap.Comment, &startTime, &endTime,
		&jobID, &jobName, &codeID, &codeName,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return snap, fmt.Errorf("timesheet %d not found", id)
		}
		return snap, err
	}

	snap.StartTime = startTime.UTC().Format(time.RFC3339)
	if endTime.Valid {
		e := endTime.Time.UTC().Format(time.RFC3339)
		snap.EndTime = &e
	}
	if jobID.Valid {
		snap.Jobsite = &models.EntityRef{ID: jobID.String, Name: jobName.String}
	}
	if codeID.Valid {
		snap.CostCode = &models.EntityRef{ID: codeID.String, Name: codeName.String}
	}
	return snap, nil
}

// ==========================
// Open Timesheet Sweep
// ==========================

// OpenTimesheet is a row still missing an end time, as reported by the sweep.
type OpenTimesheet struct {
	ID        int
	UserID    int
	Username  string
	StartTime time.Time
}

// ListOpenBefore returns timesheets with no end time whose start time is older
// than the cutoff, oldest first.
func (r *TimesheetRepo) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]OpenTimesheet, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT t.id, t.user_id, u.username, t.start_time
		 FROM timesheets t
		 JOIN users u ON u.id = t.user_id
		 WHERE t.end_time IS NULL AND t.start_time < $1
		 ORDER BY t.start_time`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var open []OpenTimesheet
	for rows.Next() {
		var o OpenTimesheet
		if err := rows.Scan(&o.ID, &o.UserID, &o.Username, &o.StartTime); err != nil {
			return nil, err
		}
		open = append(open, o)
	}
	return open, rows.Err()
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
