package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const defaultAPIURL = "http://localhost:8080"

// APIURL returns the base URL for the timecard API.
// It can be overridden with the TIMECARD_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("TIMECARD_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// Auth is the locally cached login state: the JWT plus the logged-in user's id,
// which the edit session needs as its explicit editor identity.
type Auth struct {
	Token  string `json:"token"`
	UserID int    `json:"user_id"`
}

func authPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".timecard_auth")
}

// SaveAuth stores the login state locally with user-only permissions.
func SaveAuth(a Auth) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(authPath(), data, 0600)
}

// LoadAuth reads the cached login state. Missing file means not logged in.
func LoadAuth() (Auth, error) {
	var a Auth
	data, err := os.ReadFile(authPath())
	if err != nil {
		return a, err
	}
	err = json.Unmarshal(data, &a)
	return a, err
}

// RemoveAuth deletes the cached login state.
func RemoveAuth() error {
	err := os.Remove(authPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
