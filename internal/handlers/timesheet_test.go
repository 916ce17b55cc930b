package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/timecard/internal/middleware"
	"github.com/crucial707/timecard/internal/repo"
	"github.com/go-chi/chi/v5"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

func asEditor(r *http.Request, editorID int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, editorID))
}

func TestTimesheetHandler_GetDetails(t *testing.T) {
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
		}).AddRow(5, nil, start, nil, "J1", "North", "C1", "Labor"))

	h := &TimesheetHandler{Repo: repo.NewTimesheetRepo(db)}
	r := requestWithChiURLParams("GET", "/v1/timesheets/5/details", nil, map[string]string{"id": "5"})
	w := httptest.NewRecorder()
	h.GetDetails(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var out struct {
		Timesheet struct {
			ID        int    `json:"id"`
			StartTime string `json:"startTime"`
			Jobsite   *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"jobsite"`
		} `json:"timesheet"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Timesheet.ID != 5 || out.Timesheet.Jobsite == nil || out.Timesheet.Jobsite.Name != "North" {
		t.Errorf("unexpected body: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSubmitRevision_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, username, first_name, last_name FROM users WHERE id = \$1`).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name"}).
			AddRow(9, "jdoe", "Jane", "Doe"))
	mock.ExpectQuery(`INSERT INTO timesheet_change_logs`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(77, time.Now()))
	mock.ExpectQuery(`UPDATE timesheets SET`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(3))
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM timesheets t`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "comment", "start_time", "end_time", "j_id", "j_name", "c_id", "c_name",
		}).AddRow(1, nil, start, end, "J1", "North", "C1", "Labor"))
	mock.ExpectQuery(`SELECT id, username, first_name, last_name FROM users WHERE id = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name"}).
			AddRow(3, "worker1", "Walt", "Field"))
	mock.ExpectCommit()

	body, _ := json.Marshal(map[string]any{
		"changes":         map[string]any{"endTime": map[string]any{"old": nil, "new": "2024-03-01T17:00:00Z"}},
		"changeReason":    "forgot clock-out",
		"numberOfChanges": 1,
		"startTime":       "2024-03-01T08:00:00Z",
		"endTime":         "2024-03-01T17:00:00Z",
	})

	h := &TimesheetHandler{Repo: repo.NewTimesheetRepo(db)}
	r := asEditor(requestWithChiURLParams("POST", "/v1/timesheets/1/revision", body, map[string]string{"id": "1"}), 9)
	w := httptest.NewRecorder()
	h.SubmitRevision(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var out struct {
		Success        bool   `json:"success"`
		UserFullname   string `json:"userFullname"`
		EditorFullName string `json:"editorFullName"`
		EditorLog      *struct {
			ID int `json:"id"`
		} `json:"editorLog"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || out.UserFullname != "Walt Field" || out.EditorFullName != "Jane Doe" {
		t.Errorf("unexpected body: %+v", out)
	}
	if out.EditorLog == nil || out.EditorLog.ID != 77 {
		t.Errorf("editorLog missing: %+v", out.EditorLog)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Without an authenticated editor the save is rejected up front: no transaction
// is attempted.
func TestSubmitRevision_NoUserDetected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	body, _ := json.Marshal(map[string]any{
		"changeReason": "x",
		"startTime":    "2024-03-01T08:00:00Z",
	})
	h := &TimesheetHandler{Repo: repo.NewTimesheetRepo(db)}
	r := requestWithChiURLParams("POST", "/v1/timesheets/1/revision", body, map[string]string{"id": "1"})
	w := httptest.NewRecorder()
	h.SubmitRevision(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", w.Code)
	}
	var out struct {
		Error string `json:"error"`
	}
	json.NewDecoder(w.Body).Decode(&out)
	if out.Error != "No user detected" {
		t.Errorf("error: got %q, want %q", out.Error, "No user detected")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no db activity expected: %v", err)
	}
}

func TestSubmitRevision_MissingReason(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	body, _ := json.Marshal(map[string]any{
		"startTime": "2024-03-01T08:00:00Z",
	})
	h := &TimesheetHandler{Repo: repo.NewTimesheetRepo(db)}
	r := asEditor(requestWithChiURLParams("POST", "/v1/timesheets/1/revision", body, map[string]string{"id": "1"}), 9)
	w := httptest.NewRecorder()
	h.SubmitRevision(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400 (%s)", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no db activity expected: %v", err)
	}
}

func TestDecodeChanges_StringWrapped(t *testing.T) {
	raw, _ := json.Marshal(`{"Jobsite":{"old":"North","new":"South"}}`)
	diff, err := decodeChanges(raw)
	if err != nil {
		t.Fatalf("decodeChanges: %v", err)
	}
	if diff["Jobsite"].New != "South" {
		t.Errorf("unexpected diff: %+v", diff)
	}

	diff, err = decodeChanges(nil)
	if err != nil || len(diff) != 0 {
		t.Errorf("empty payload should give empty diff, got %+v (%v)", diff, err)
	}
}
