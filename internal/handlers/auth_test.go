package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/timecard/internal/repo"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthHandler_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, first_name, last_name`).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name", "password_hash"}).
			AddRow(9, "jdoe", "Jane", "Doe", string(hash)))

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret"), Expire: time.Hour}
	body, _ := json.Marshal(map[string]string{"username": "jdoe", "password": "hunter2"})
	r := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", w.Code, w.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil || out.Token == "" {
		t.Fatalf("no token in response: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, username, first_name, last_name`).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "first_name", "last_name", "password_hash"}).
			AddRow(9, "jdoe", "Jane", "Doe", string(hash)))

	h := &AuthHandler{UserRepo: repo.NewUserRepo(db), Secret: []byte("test-secret")}
	body, _ := json.Marshal(map[string]string{"username": "jdoe", "password": "wrong"})
	r := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.Login(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", w.Code)
	}
}
