package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/crucial707/timecard/internal/models"
)

// ChangeLogRepo reads the append-only timesheet audit trail. Entries are only
// ever written inside TimesheetRepo.SaveRevision; nothing updates or deletes
// them.
type ChangeLogRepo struct {
	db *sql.DB
}

func NewChangeLogRepo(db *sql.DB) *ChangeLogRepo {
	return &ChangeLogRepo{db: db}
}

const changeLogColumns = `id, timesheet_id, changed_by, changed_by_name, changes, change_reason, number_of_changes, created_at`

// List returns recent change log entries, newest first.
func (r *ChangeLogRepo) List(ctx context.Context, limit, offset int) ([]models.ChangeLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeLogColumns+` FROM timesheet_change_logs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChangeLogs(rows)
}

// ListByTimesheet returns the audit trail for one timesheet, newest first.
func (r *ChangeLogRepo) ListByTimesheet(ctx context.Context, timesheetID, limit, offset int) ([]models.ChangeLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+changeLogColumns+` FROM timesheet_change_logs WHERE timesheet_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		timesheetID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanChangeLogs(rows)
}

func scanChangeLogs(rows *sql.Rows) ([]models.ChangeLogEntry, error) {
	var entries []models.ChangeLogEntry
	for rows.Next() {
		var (
			e       models.ChangeLogEntry
			changes []byte
		)
		if err := rows.Scan(&e.ID, &e.TimesheetID, &e.ChangedBy, &e.ChangedByName,
			&changes, &e.ChangeReason, &e.NumberOfChanges, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
