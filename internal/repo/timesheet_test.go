package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/timecard/internal/models"
)

func revisionInput() RevisionInput {
	return RevisionInput{
		TimesheetID:  1,
		EditorID:     9,
		ChangeReason: "corrected clock-out",
		StartTime:    "2024-03-01T08:00:00Z",
		EndTime:      "2024-03-01T17:00:00Z",
		Changes: models.RevisionDiff{
			models.FieldEndTime: {Old: nil, New: "2024-03-01T17:00:00Z"},
		},
		NumberOfChanges: 1,
	}
}

func expectEditorLookup(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(`SELECT id, username, first_name, last_name FROM users WHERE id = \$1`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name"}).
			AddRow(9, "jdoe", "Jane", "Doe"))
}

func expectUpdateReturningOwner(mock sqlmock.Sqlmock, ownerID int) {
	mock.ExpectQuery(`UPDATE timesheets SET`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(ownerID))
}

func expectDetails(mock sqlmock.Sqlmock) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM timesheets t`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "comment", "start_time", "end_time", "j_id", "j_name", "c_id", "c_name",
		}).AddRow(1, nil, now, end, "J1", "North", "C1", "Labor"))
}

func expectOwnerLookup(mock sqlmock.Sqlmock, ownerID int) {
	mock.ExpectQuery(`SELECT id, username, first_name, last_name FROM users WHERE id = \$1`).
		WithArgs(ownerID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name"}).
			AddRow(ownerID, "worker1", "Walt", "Field"))
}

func TestSaveRevision_WithChanges(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectEditorLookup(mock)
	mock.ExpectQuery(`INSERT INTO timesheet_change_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(77, time.Now()))
	expectUpdateReturningOwner(mock, 3)
	expectDetails(mock)
	expectOwnerLookup(mock, 3)
	mock.ExpectCommit()

	repo := NewTimesheetRepo(db)
	res, err := repo.SaveRevision(context.Background(), revisionInput())
	if err != nil {
		t.Fatalf("SaveRevision: %v", err)
	}
	if res.EditorLog == nil || res.EditorLog.ID != 77 {
		t.Errorf("expected change log entry 77, got %+v", res.EditorLog)
	}
	if res.EditorLog.ChangedByName != "Jane Doe" {
		t.Errorf("editor name not denormalized: %+v", res.EditorLog)
	}
	if res.EditorFullName != "Jane Doe" || res.UserFullName != "Walt Field" {
		t.Errorf("unexpected names: editor=%q owner=%q", res.EditorFullName, res.UserFullName)
	}
	if res.Timesheet.EndTime == nil || *res.Timesheet.EndTime != "2024-03-01T17:00:00Z" {
		t.Errorf("unexpected snapshot end time: %+v", res.Timesheet.EndTime)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A zero-change save still updates the row but must not write an audit entry.
func TestSaveRevision_NoChangesSkipsChangeLog(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectEditorLookup(mock)
	expectUpdateReturningOwner(mock, 3)
	expectDetails(mock)
	expectOwnerLookup(mock, 3)
	mock.ExpectCommit()

	in := revisionInput()
	in.Changes = models.RevisionDiff{}
	in.NumberOfChanges = 0
	in.Comment = "comment-only edit"

	repo := NewTimesheetRepo(db)
	res, err := repo.SaveRevision(context.Background(), in)
	if err != nil {
		t.Fatalf("SaveRevision: %v", err)
	}
	if res.EditorLog != nil {
		t.Errorf("no change log entry expected for zero changes, got %+v", res.EditorLog)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// If the timesheet update fails after the change log insert, the whole
// transaction rolls back: no partial audit row survives.
func TestSaveRevision_UpdateFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	expectEditorLookup(mock)
	mock.ExpectQuery(`INSERT INTO timesheet_change_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(77, time.Now()))
	mock.ExpectQuery(`UPDATE timesheets SET`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	repo := NewTimesheetRepo(db)
	_, err = repo.SaveRevision(context.Background(), revisionInput())
	if err == nil {
		t.Fatal("expected error from failed update")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations (rollback): %v", err)
	}
}

func TestSaveRevision_Validation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	repo := NewTimesheetRepo(db)

	for _, tc := range []struct {
		name    string
		mutate  func(*RevisionInput)
		wantErr error
	}{
		{"missing timesheet id", func(in *RevisionInput) { in.TimesheetID = 0 }, ErrTimesheetIDRequired},
		{"missing editor id", func(in *RevisionInput) { in.EditorID = 0 }, ErrEditorIDRequired},
		{"missing reason", func(in *RevisionInput) { in.ChangeReason = " " }, ErrChangeReasonRequired},
		{"missing start time", func(in *RevisionInput) { in.StartTime = "" }, ErrStartTimeRequired},
	} {
		in := revisionInput()
		tc.mutate(&in)
		_, err := repo.SaveRevision(context.Background(), in)
		if err != tc.wantErr {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.wantErr)
		}
	}

	// Validation rejects before any transaction is opened.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no db activity expected: %v", err)
	}
}

func TestSaveRevision_BadStartTime(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	in := revisionInput()
	in.StartTime = "not a time"
	_, err = NewTimesheetRepo(db).SaveRevision(context.Background(), in)
	if err == nil {
		t.Fatal("expected parse error for bad start time")
	}
}

func TestDetails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM timesheets t`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "comment", "start_time", "end_time", "j_id", "j_name", "c_id", "c_name",
		}).AddRow(5, "late start", start, nil, "J1", "North", nil, nil))

	snap, err := NewTimesheetRepo(db).Details(context.Background(), 5)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if snap.ID != 5 || snap.StartTime != "2024-03-01T08:00:00Z" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.EndTime != nil {
		t.Errorf("open timesheet should have nil end time: %+v", snap.EndTime)
	}
	if snap.Jobsite == nil || snap.Jobsite.Name != "North" {
		t.Errorf("jobsite ref not resolved: %+v", snap.Jobsite)
	}
	if snap.CostCode != nil {
		t.Errorf("cost code should be nil: %+v", snap.CostCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestListOpenBefore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cutoff := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`WHERE t.end_time IS NULL AND t.start_time < \$1`).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username", "start_time"}).
			AddRow(4, 2, "worker1", cutoff.Add(-30*time.Hour)))

	open, err := NewTimesheetRepo(db).ListOpenBefore(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ListOpenBefore: %v", err)
	}
	if len(open) != 1 || open[0].ID != 4 || open[0].Username != "worker1" {
		t.Errorf("unexpected open timesheets: %+v", open)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
