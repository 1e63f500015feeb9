// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/campus-vote/client"
	"github.com/danielhkuo/campus-vote/mailer"
	"github.com/danielhkuo/campus-vote/media"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/router"
	"github.com/danielhkuo/campus-vote/testutil"
)

func init() {
	color.NoColor = true
}

type cli struct {
	t    *testing.T
	db   *sql.DB
	srv  *httptest.Server
	mail *mailer.Recorder
	dir  string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	db := testutil.SetupTestDB(t)
	store, err := media.NewDiskStore(t.TempDir(), "http://localhost:3318")
	require.NoError(t, err)

	rec := &mailer.Recorder{}
	srv := httptest.NewServer(router.NewRouter(db, testutil.GetTestConfig(), router.Services{
		Mailer: rec,
		Media:  store,
	}))
	t.Cleanup(srv.Close)

	return &cli{t: t, db: db, srv: srv, mail: rec, dir: t.TempDir()}
}

// exec runs one command as the named user, each user keeping its own session file
func (c *cli) exec(user string, args ...string) (code int, stdout, stderr string) {
	c.t.Helper()

	var out, errOut bytes.Buffer
	full := append([]string{"-api", c.srv.URL, "-session", filepath.Join(c.dir, user+".json")}, args...)
	code = run(context.Background(), full, strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func (c *cli) login(user, email string) {
	c.t.Helper()

	code, _, stderr := c.exec(user, "login", email)
	require.Equal(c.t, 0, code, stderr)

	msg, ok := c.mail.Last(email)
	require.True(c.t, ok)
	code, stdout, stderr := c.exec(user, "otp", codePattern.FindString(msg.Body))
	require.Equal(c.t, 0, code, stderr)
	require.Contains(c.t, stdout, "Signed in as")
}

func TestUsage(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.exec("nobody")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Commands:")
	assert.Contains(t, stderr, "vote <positionId> <candidateId>")

	code, _, stderr = c.exec("nobody", "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestGuardRefusals(t *testing.T) {
	c := newCLI(t)
	testutil.CreateTestAccount(t, c.db, models.RoleAdmin, "admin@uni.edu")
	testutil.CreateTestAccount(t, c.db, models.RoleStudent, "jane@uni.edu")

	c.login("admin", "admin@uni.edu")
	c.login("jane", "jane@uni.edu")

	tests := []struct {
		name string
		user string
		args []string
		want string
	}{
		{"anonymous vote", "nobody", []string{"vote", "p1", "c1"}, "Not signed in"},
		{"anonymous users", "nobody", []string{"users"}, "Not signed in"},
		{"admin vote", "admin", []string{"vote", "p1", "c1"}, "admins cannot vote"},
		{"admin history", "admin", []string{"history"}, "for students"},
		{"student users", "jane", []string{"users"}, "needs an admin account"},
		{"student create election", "jane", []string{"create-election", "-title", "X"}, "needs an admin account"},
		{"login while signed in", "jane", []string{"login", "jane@uni.edu"}, "Already signed in as jane@uni.edu"},
		{"admin login while signed in", "admin", []string{"login", "admin@uni.edu"}, "Already signed in as admin@uni.edu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := c.exec(tt.user, tt.args...)
			assert.Equal(t, 1, code)
			assert.Contains(t, stderr, tt.want)
		})
	}
}

func TestLoginErrors(t *testing.T) {
	c := newCLI(t)
	testutil.CreateTestAccount(t, c.db, models.RoleStudent, "jane@uni.edu")

	code, _, stderr := c.exec("jane", "otp", "123456")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "No code requested yet")

	code, _, stderr = c.exec("jane", "login", "not-an-email")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "email")

	code, _, _ = c.exec("jane", "login", "jane@uni.edu")
	require.Equal(t, 0, code)

	code, stdout, _ := c.exec("jane", "whoami")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Waiting for the code sent to jane@uni.edu")

	msg, _ := c.mail.Last("jane@uni.edu")
	wrong := "000000"
	if codePattern.FindString(msg.Body) == wrong {
		wrong = "111111"
	}
	code, _, stderr = c.exec("jane", "otp", wrong)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)

	code, stdout, _ = c.exec("jane", "whoami")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "Not signed in")
}

func TestOTPPrompt(t *testing.T) {
	c := newCLI(t)
	testutil.CreateTestAccount(t, c.db, models.RoleStudent, "jane@uni.edu")

	code, _, _ := c.exec("jane", "login", "jane@uni.edu")
	require.Equal(t, 0, code)
	msg, ok := c.mail.Last("jane@uni.edu")
	require.True(t, ok)

	var out, errOut bytes.Buffer
	args := []string{"-api", c.srv.URL, "-session", filepath.Join(c.dir, "jane.json"), "otp"}
	code = run(context.Background(), args, strings.NewReader(codePattern.FindString(msg.Body)+"\n"), &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "Code: ")
	assert.Contains(t, out.String(), "Signed in as")
}

func TestElectionDay(t *testing.T) {
	c := newCLI(t)
	testutil.CreateTestAccount(t, c.db, models.RoleAdmin, "admin@uni.edu")
	c.login("admin", "admin@uni.edu")

	// Admin registers a student and sets up an election
	code, stdout, stderr := c.exec("admin", "register", "Jane Doe", "CSC2021001", "jane@uni.edu")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Registered Jane Doe")

	electionID := testutil.CreateTestElection(t, c.db, models.StatusActive)
	code, stdout, stderr = c.exec("admin", "add-position", electionID, "President")
	require.Equal(t, 0, code, stderr)
	positionID := idIn(t, stdout, "Added position President")

	img := filepath.Join(t.TempDir(), "alice.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG\r\n\x1a\n0000000000000000"), 0o644))

	code, stdout, stderr = c.exec("admin", "add-candidate",
		"-election", electionID, "-position", positionID, "-name", "Alice", "-image", img)
	require.Equal(t, 0, code, stderr)
	alice := idIn(t, stdout, "Registered candidate Alice")

	code, stdout, stderr = c.exec("admin", "add-candidate",
		"-election", electionID, "-position", positionID, "-name", "Bob")
	require.Equal(t, 0, code, stderr)
	idIn(t, stdout, "Registered candidate Bob")

	// The student signs in and votes once
	c.login("jane", "jane@uni.edu")

	code, stdout, _ = c.exec("jane", "elections")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, electionID)
	assert.Contains(t, stdout, "left")

	code, stdout, _ = c.exec("jane", "position", positionID)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Alice")
	assert.Contains(t, stdout, "campusvote vote "+positionID)

	code, _, stderr = c.exec("jane", "vote", positionID, "nobody")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "is not a candidate")

	code, stdout, stderr = c.exec("jane", "vote", positionID, alice)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Vote cast for Alice as President")

	code, _, stderr = c.exec("jane", "vote", positionID, alice)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already voted")

	code, stdout, _ = c.exec("jane", "history")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, alice)

	code, stdout, _ = c.exec("jane", "position", positionID)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "your vote")

	// Results stay sealed for students while voting is open
	code, _, stderr = c.exec("jane", "results", positionID)
	assert.Equal(t, 1, code)
	assert.NotEmpty(t, stderr)

	code, stdout, stderr = c.exec("admin", "results", positionID)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "President")
	assert.Contains(t, stdout, "100%")

	code, stdout, _ = c.exec("admin", "votes")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Alice")

	code, stdout, _ = c.exec("admin", "users")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "CSC2021001")

	code, stdout, _ = c.exec("jane", "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Signed out")

	code, _, stderr = c.exec("jane", "history")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Not signed in")
}

func TestCreateElectionCommand(t *testing.T) {
	c := newCLI(t)
	testutil.CreateTestAccount(t, c.db, models.RoleAdmin, "admin@uni.edu")
	c.login("admin", "admin@uni.edu")

	code, stdout, stderr := c.exec("admin", "create-election",
		"-title", "SRC 2030", "-start", "2030-03-01T08:00", "-end", "2030-03-02T18:00",
		"-position", "President", "-position", "Treasurer")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Created election SRC 2030")
	assert.Contains(t, stdout, "upcoming")
	assert.Contains(t, stdout, "position President")
	assert.Contains(t, stdout, "position Treasurer")

	code, _, stderr = c.exec("admin", "create-election",
		"-title", "Backwards", "-start", "2030-03-02T08:00", "-end", "2030-03-01T08:00")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "endDate")
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", &client.ValidationError{Field: "email", Message: "is invalid"}, "email"},
		{"duplicate", client.ErrDuplicateVote, "already voted"},
		{"already voted locally", client.ErrAlreadyVoted, "already voted"},
		{"no pending", client.ErrNoPendingEmail, "No code requested yet"},
		{"rate limited", client.ErrRateLimited, "Too many attempts"},
		{"expired", client.ErrAuth, "Session expired"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, explain(tt.err), tt.want)
		})
	}
}

// idIn pulls the ID out of a "<prefix> (<id>)" line
func idIn(t *testing.T, out, prefix string) string {
	t.Helper()

	m := regexp.MustCompile(regexp.QuoteMeta(prefix) + ` \(([^)]+)\)`).FindStringSubmatch(out)
	require.Len(t, m, 2, "no %q in %q", prefix, out)
	return m[1]
}
