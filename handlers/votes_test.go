// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielhkuo/campus-vote/ledger"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/testutil"
)

func TestCastVote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewVoteHandler(db, testutil.GetTestConfig(), ledger.New(db))
	student := testutil.CreateTestAccount(t, db, models.RoleStudent, "")
	other := testutil.CreateTestAccount(t, db, models.RoleStudent, "")

	active := testutil.CreateTestElection(t, db, models.StatusActive)
	positionID := testutil.CreateTestPosition(t, db, active, "President")
	candidateID := testutil.CreateTestCandidate(t, db, active, positionID, "Alice")

	upcoming := testutil.CreateTestElection(t, db, models.StatusUpcoming)
	upPosition := testutil.CreateTestPosition(t, db, upcoming, "President")
	upCandidate := testutil.CreateTestCandidate(t, db, upcoming, upPosition, "Bob")

	vote := models.CastVoteRequest{
		Student:   student.ID,
		Candidate: candidateID,
		Position:  positionID,
		Election:  active,
	}

	w := httptest.NewRecorder()
	h.Cast(w, request("POST", "/api/vote/cast", vote, student))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var resp models.CastVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Message != "Vote cast successfully" || resp.Vote.CandidateID != candidateID {
		t.Errorf("Unexpected response: %+v", resp)
	}

	// Second vote for the same position
	w = httptest.NewRecorder()
	h.Cast(w, request("POST", "/api/vote/cast", vote, student))
	testutil.AssertStatus(t, w, http.StatusConflict)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Message != "You have already voted for this position" {
		t.Errorf("Unexpected duplicate message: %q", errResp.Message)
	}

	testCases := []struct {
		name     string
		req      models.CastVoteRequest
		as       models.Account
		expected int
	}{
		{"missing candidate", models.CastVoteRequest{Student: other.ID, Position: positionID, Election: active}, other, http.StatusBadRequest},
		{"voting as someone else", models.CastVoteRequest{Student: student.ID, Candidate: candidateID, Position: positionID, Election: active}, other, http.StatusForbidden},
		{"unknown candidate", models.CastVoteRequest{Student: other.ID, Candidate: "nope", Position: positionID, Election: active}, other, http.StatusNotFound},
		{"candidate of other position", models.CastVoteRequest{Student: other.ID, Candidate: upCandidate, Position: positionID, Election: active}, other, http.StatusNotFound},
		{"election not open", models.CastVoteRequest{Student: other.ID, Candidate: upCandidate, Position: upPosition, Election: upcoming}, other, http.StatusConflict},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Cast(w, request("POST", "/api/vote/cast", tc.req, tc.as))
			testutil.AssertStatus(t, w, tc.expected)
		})
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM vote`).Scan(&count)
	if count != 1 {
		t.Errorf("Expected exactly 1 vote stored, got %d", count)
	}
}

func TestCastVoteConcurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewVoteHandler(db, testutil.GetTestConfig(), ledger.New(db))
	student := testutil.CreateTestAccount(t, db, models.RoleStudent, "")

	electionID := testutil.CreateTestElection(t, db, models.StatusActive)
	positionID := testutil.CreateTestPosition(t, db, electionID, "President")
	candidateID := testutil.CreateTestCandidate(t, db, electionID, positionID, "Alice")

	const attempts = 8
	statuses := make([]int, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			h.Cast(w, request("POST", "/api/vote/cast", models.CastVoteRequest{
				Student:   student.ID,
				Candidate: candidateID,
				Position:  positionID,
				Election:  electionID,
			}, student))
			statuses[i] = w.Code
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("Unexpected status %d", s)
		}
	}
	if created != 1 || conflicts != attempts-1 {
		t.Errorf("Expected 1 created and %d conflicts, got %d and %d", attempts-1, created, conflicts)
	}
}

func TestVotesByStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewVoteHandler(db, testutil.GetTestConfig(), ledger.New(db))
	student := testutil.CreateTestAccount(t, db, models.RoleStudent, "")
	other := testutil.CreateTestAccount(t, db, models.RoleStudent, "")
	admin := testutil.CreateTestAccount(t, db, models.RoleAdmin, "")

	electionID := testutil.CreateTestElection(t, db, models.StatusActive)
	president := testutil.CreateTestPosition(t, db, electionID, "President")
	testutil.CreateTestPosition(t, db, electionID, "Treasurer")
	alice := testutil.CreateTestCandidate(t, db, electionID, president, "Alice")
	testutil.CastTestVote(t, db, student.ID, alice, president, electionID)

	get := func(id string, acct models.Account) *httptest.ResponseRecorder {
		req := request("GET", "/api/vote/getVoteByStudent/"+id, nil, acct)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.ByStudent(w, req)
		return w
	}

	w := get(student.ID, student)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.StudentVotesResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Elections) != 2 {
		t.Fatalf("Expected one entry per position, got %d", len(resp.Elections))
	}
	voted := 0
	for _, e := range resp.Elections {
		if e.HasVoted {
			voted++
			if e.ID != president || e.VotedCandidate == nil || *e.VotedCandidate != alice {
				t.Errorf("Unexpected voted entry: %+v", e)
			}
		}
	}
	if voted != 1 {
		t.Errorf("Expected 1 voted position, got %d", voted)
	}

	testutil.AssertStatus(t, get(student.ID, admin), http.StatusOK)
	testutil.AssertStatus(t, get(student.ID, other), http.StatusForbidden)
	testutil.AssertStatus(t, get("missing", admin), http.StatusNotFound)
}

func TestAllVotes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewVoteHandler(db, testutil.GetTestConfig(), ledger.New(db))
	admin := testutil.CreateTestAccount(t, db, models.RoleAdmin, "")
	student := testutil.CreateTestAccount(t, db, models.RoleStudent, "")

	electionID := testutil.CreateTestElection(t, db, models.StatusActive)
	positionID := testutil.CreateTestPosition(t, db, electionID, "President")
	alice := testutil.CreateTestCandidate(t, db, electionID, positionID, "Alice")
	testutil.CastTestVote(t, db, student.ID, alice, positionID, electionID)

	w := httptest.NewRecorder()
	h.All(w, request("GET", "/api/vote/all", nil, admin))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.VoteListResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Votes) != 1 {
		t.Fatalf("Expected 1 vote, got %d", len(resp.Votes))
	}
	if resp.Votes[0].Candidate.Name != "Alice" || resp.Votes[0].StudentID != student.ID {
		t.Errorf("Unexpected vote record: %+v", resp.Votes[0])
	}
}
