// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielhkuo/campus-vote/media"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/testutil"
)

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func diskStore(t *testing.T, dir, publicURL string) *media.DiskStore {
	t.Helper()
	store, err := media.NewDiskStore(dir, publicURL)
	if err != nil {
		t.Fatalf("Failed to create disk store: %v", err)
	}
	return store
}

func TestCreateAndListCandidates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewCandidateHandler(db, testutil.GetTestConfig(), diskStore(t, t.TempDir(), "http://localhost:3318"))
	admin := testutil.CreateTestAccount(t, db, models.RoleAdmin, "")

	electionID := testutil.CreateTestElection(t, db, models.StatusUpcoming)
	president := testutil.CreateTestPosition(t, db, electionID, "President")
	treasurer := testutil.CreateTestPosition(t, db, electionID, "Treasurer")

	w := httptest.NewRecorder()
	h.Create(w, request("POST", "/api/candidate/create", models.CreateCandidateRequest{
		Name:       "Jane Doe",
		Manifesto:  "Better libraries",
		Image:      "http://localhost:3318/uploads/jane.png",
		ElectionID: electionID,
		PositionID: president,
	}, admin))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CandidateResponse
	testutil.AssertJSON(t, w, &created)
	if created.Candidate.ID == "" || created.Candidate.PositionID != president {
		t.Errorf("Unexpected candidate: %+v", created.Candidate)
	}

	testutil.CreateTestCandidate(t, db, electionID, treasurer, "John Roe")

	list := func(query string) []models.Candidate {
		t.Helper()
		w := httptest.NewRecorder()
		h.List(w, request("GET", "/api/candidate/allCandidate"+query, nil, admin))
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.CandidateListResponse
		testutil.AssertJSON(t, w, &resp)
		return resp.Candidates
	}

	if got := list(""); len(got) != 2 {
		t.Errorf("Expected 2 candidates overall, got %d", len(got))
	}

	got := list("?positionId=" + president)
	if len(got) != 1 || got[0].Name != "Jane Doe" {
		t.Errorf("Expected only Jane Doe for president, got %+v", got)
	}

	if got := list("?electionId=" + electionID); len(got) != 2 {
		t.Errorf("Expected 2 candidates in election, got %d", len(got))
	}
	if got := list("?electionId=other"); len(got) != 0 {
		t.Errorf("Expected no candidates for other election, got %d", len(got))
	}
}

func TestCreateCandidateValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewCandidateHandler(db, testutil.GetTestConfig(), diskStore(t, t.TempDir(), ""))
	admin := testutil.CreateTestAccount(t, db, models.RoleAdmin, "")

	electionID := testutil.CreateTestElection(t, db, models.StatusUpcoming)
	otherElection := testutil.CreateTestElection(t, db, models.StatusUpcoming)
	positionID := testutil.CreateTestPosition(t, db, electionID, "President")

	testCases := []struct {
		name     string
		req      models.CreateCandidateRequest
		expected int
	}{
		{"missing name", models.CreateCandidateRequest{ElectionID: electionID, PositionID: positionID}, http.StatusBadRequest},
		{"missing position", models.CreateCandidateRequest{Name: "A", ElectionID: electionID}, http.StatusBadRequest},
		{"unknown position", models.CreateCandidateRequest{Name: "A", ElectionID: electionID, PositionID: "nope"}, http.StatusNotFound},
		{"position in other election", models.CreateCandidateRequest{Name: "A", ElectionID: otherElection, PositionID: positionID}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Create(w, request("POST", "/api/candidate/create", tc.req, admin))
			testutil.AssertStatus(t, w, tc.expected)
		})
	}
}

func multipartUpload(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("Failed to create part: %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/candidate/uploadImage", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	dir := t.TempDir()
	h := NewCandidateHandler(db, testutil.GetTestConfig(), diskStore(t, dir, "http://localhost:3318"))

	w := httptest.NewRecorder()
	h.UploadImage(w, multipartUpload(t, "my_file", "jane.png", "", pngHeader))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.UploadImageResponse
	testutil.AssertJSON(t, w, &resp)
	if !strings.HasPrefix(resp.URL, "http://localhost:3318/uploads/") || !strings.HasSuffix(resp.URL, ".png") {
		t.Errorf("Unexpected URL: %s", resp.URL)
	}

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(resp.URL)))
	if err != nil {
		t.Fatalf("Expected stored file: %v", err)
	}
	if !bytes.Equal(stored, pngHeader) {
		t.Error("Stored bytes differ from upload")
	}
}

func TestUploadImageRejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	h := NewCandidateHandler(db, testutil.GetTestConfig(), diskStore(t, t.TempDir(), ""))

	testCases := []struct {
		name     string
		req      *http.Request
		expected int
	}{
		{"wrong field", multipartUpload(t, "file", "jane.png", "image/png", pngHeader), http.StatusBadRequest},
		{"not an image", multipartUpload(t, "my_file", "notes.txt", "text/plain", []byte("hello")), http.StatusBadRequest},
		{"too large", multipartUpload(t, "my_file", "big.png", "image/png", make([]byte, MaxImageSize+1)), http.StatusRequestEntityTooLarge},
		{"not multipart", testutil.MakeRequest("POST", "/api/candidate/uploadImage", map[string]string{"a": "b"}, nil), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.UploadImage(w, tc.req)
			testutil.AssertStatus(t, w, tc.expected)
		})
	}
}
