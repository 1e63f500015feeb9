// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/models"
)

var seq atomic.Int64

// SetupTestDB creates a fresh sqlite database in a temp dir with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "campus-vote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     "sqlite",
		JWTSecret:        "test-jwt-secret",
		TokenTTL:         time.Hour,
		OTPTTL:           5 * time.Minute,
		OTPRatePerMinute: 5,
		UploadDir:        "uploads",
		PublicURL:        "http://localhost:3318",
	}
}

// CreateTestAccount inserts an account. Students get a unique matric number.
func CreateTestAccount(t *testing.T, conn *sql.DB, role, email string) models.Account {
	t.Helper()

	n := seq.Add(1)
	if email == "" {
		email = fmt.Sprintf("user%d@uni.edu", n)
	}

	acct := models.Account{
		ID:        auth.NewID(),
		FullName:  fmt.Sprintf("Test User %d", n),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if role == models.RoleStudent {
		m := fmt.Sprintf("TST%07d", n)
		acct.MatricNumber = &m
	}

	_, err := conn.Exec(`
		INSERT INTO account (id, full_name, email, role, matric_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, acct.ID, acct.FullName, acct.Email, acct.Role, acct.MatricNumber, acct.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}

	return acct
}

// CreateTestElection creates an election whose window puts it in the given
// status: "upcoming", "active" or "completed".
func CreateTestElection(t *testing.T, conn *sql.DB, status string) string {
	t.Helper()

	now := time.Now().UTC()
	var start, end time.Time
	switch status {
	case models.StatusUpcoming:
		start, end = now.Add(time.Hour), now.Add(2*time.Hour)
	case models.StatusCompleted:
		start, end = now.Add(-2*time.Hour), now.Add(-time.Hour)
	default:
		start, end = now.Add(-time.Hour), now.Add(time.Hour)
	}

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, start_at, end_at, created_at)
		VALUES ($1, $2, 'A test election', $3, $4, $5)
	`, id, "Test Election "+status, start, end, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return id
}

// CreateTestPosition adds a position to an election and returns its ID
func CreateTestPosition(t *testing.T, conn *sql.DB, electionID, title string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO election_position (id, election_id, title, description, created_at)
		VALUES ($1, $2, $3, '', $4)
	`, id, electionID, title, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	return id
}

// CreateTestCandidate registers a candidate. Registration times strictly
// increase across calls so ordering by created_at is deterministic.
func CreateTestCandidate(t *testing.T, conn *sql.DB, electionID, positionID, name string) string {
	t.Helper()

	id := auth.NewID()
	createdAt := time.Now().UTC().Add(time.Duration(seq.Add(1)) * time.Millisecond)
	_, err := conn.Exec(`
		INSERT INTO candidate (id, position_id, election_id, name, manifesto, image, created_at)
		VALUES ($1, $2, $3, $4, '', '', $5)
	`, id, positionID, electionID, name, createdAt)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// CastTestVote writes a vote row directly, bypassing the ledger checks
func CastTestVote(t *testing.T, conn *sql.DB, studentID, candidateID, positionID, electionID string) string {
	t.Helper()

	id := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO vote (id, student_id, candidate_id, position_id, election_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, studentID, candidateID, positionID, electionID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	return id
}

// TokenFor issues a bearer token for the account using the config secret
func TokenFor(t *testing.T, cfg cliparse.Config, acct models.Account) string {
	t.Helper()

	token, _, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL).Issue(acct.ID, acct.Role, acct.Email)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return token
}

// Bearer returns an Authorization header map for MakeRequest
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
