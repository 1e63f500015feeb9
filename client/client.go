// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package client is a typed Go client for the campus vote API.
//
// A Client owns one Session. Init restores it from the SessionStore and
// drops it unless the server still accepts the token. Input that the server
// would reject is caught locally and returned as a *ValidationError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/campus-vote/models"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	store   SessionStore
	mu      sync.Mutex
	session Session
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithSessionStore sets where the session is persisted. The default keeps
// it in memory.
func WithSessionStore(s SessionStore) Option {
	return func(c *Client) { c.store = s }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		store: &MemorySessionStore{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Init loads the stored session and re-validates its token. A token the
// server rejects clears the stored session. Any other failure leaves the
// client unauthenticated and is returned.
func (c *Client) Init(ctx context.Context) error {
	s, err := c.store.Load()
	if err != nil {
		c.setSession(Session{})
		return err
	}

	if s.Token == "" {
		c.setSession(Session{PendingEmail: s.PendingEmail})
		return nil
	}

	c.setSession(s)
	user, err := c.CheckAuth(ctx)
	if errors.Is(err, ErrAuth) {
		c.setSession(Session{})
		return c.store.Clear()
	}
	if err != nil {
		c.setSession(Session{})
		return err
	}

	s.User = &user
	s.PendingEmail = ""
	return c.save(s)
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.clone()
}

func (c *Client) setSession(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

func (c *Client) save(s Session) error {
	c.setSession(s)
	return c.store.Save(s)
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Token
}

// Auth

// RequestOTP asks for a login code for email and remembers the email for VerifyOTP.
func (c *Client) RequestOTP(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if err := models.ValidateEmail(email); err != nil {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}

	if err := c.do(ctx, "POST", "/api/auth/request-otp", models.RequestOTPRequest{Email: email}, nil); err != nil {
		return err
	}

	return c.save(Session{PendingEmail: email})
}

// VerifyOTP exchanges the mailed code for a token. Any failure returns the
// session to Unauthenticated, since the server discards the code either way.
func (c *Client) VerifyOTP(ctx context.Context, code string) (models.Account, error) {
	pending := c.Session().PendingEmail
	if pending == "" {
		return models.Account{}, ErrNoPendingEmail
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return models.Account{}, &ValidationError{Field: "otp", Message: "is required"}
	}

	var resp models.VerifyOTPResponse
	err := c.do(ctx, "POST", "/api/auth/verify-otp", models.VerifyOTPRequest{Email: pending, OTP: code}, &resp)
	if err != nil {
		if serr := c.save(Session{}); serr != nil {
			return models.Account{}, errors.Join(err, serr)
		}
		return models.Account{}, err
	}

	user := resp.User
	if err := c.save(Session{Token: resp.Token, User: &user}); err != nil {
		return models.Account{}, err
	}
	return user, nil
}

// CheckAuth returns the account behind the current token.
func (c *Client) CheckAuth(ctx context.Context) (models.Account, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, "GET", "/api/auth/check-auth", nil, &resp); err != nil {
		return models.Account{}, err
	}
	return resp.User, nil
}

// Logout revokes the token on the server and clears the session. The local
// session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	var err error
	if c.token() != "" {
		err = c.do(ctx, "POST", "/api/auth/logout", nil, nil)
	}
	c.setSession(Session{})
	return errors.Join(err, c.store.Clear())
}

// Register creates a student account (admin).
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (models.Account, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.MatricNumber = strings.ToUpper(strings.TrimSpace(req.MatricNumber))
	req.Email = models.NormalizeEmail(req.Email)

	if req.FullName == "" {
		return models.Account{}, &ValidationError{Field: "fullName", Message: "is required"}
	}
	if err := models.ValidateMatricNumber(req.MatricNumber); err != nil {
		return models.Account{}, &ValidationError{Field: "matricNumber", Message: "must be three letters followed by seven digits"}
	}
	if err := models.ValidateEmail(req.Email); err != nil {
		return models.Account{}, &ValidationError{Field: "email", Message: "must be a valid email address"}
	}

	var resp models.RegisterResponse
	if err := c.do(ctx, "POST", "/api/auth/register", req, &resp); err != nil {
		return models.Account{}, err
	}
	return resp.User, nil
}

// Elections

func (c *Client) Elections(ctx context.Context) ([]models.Election, error) {
	var resp models.ElectionListResponse
	err := c.do(ctx, "GET", "/api/election/get", nil, &resp)
	return resp.Elections, err
}

// CreateElection creates an election with optional inline positions (admin).
func (c *Client) CreateElection(ctx context.Context, req models.CreateElectionRequest) (*models.ElectionResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, &ValidationError{Field: "title", Message: "is required"}
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return nil, &ValidationError{Field: "startDate", Message: "must be RFC 3339 or YYYY-MM-DDTHH:MM"}
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return nil, &ValidationError{Field: "endDate", Message: "must be RFC 3339 or YYYY-MM-DDTHH:MM"}
	}
	if !end.After(start) {
		return nil, &ValidationError{Field: "endDate", Message: "must be after startDate"}
	}

	var resp models.ElectionResponse
	if err := c.do(ctx, "POST", "/api/election/create", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Positions

func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	var resp models.PositionListResponse
	err := c.do(ctx, "GET", "/api/position/get", nil, &resp)
	return resp.Positions, err
}

func (c *Client) CreatePosition(ctx context.Context, req models.CreatePositionRequest) (models.Position, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return models.Position{}, &ValidationError{Field: "title", Message: "is required"}
	}
	if req.ElectionID == "" {
		return models.Position{}, &ValidationError{Field: "electionId", Message: "is required"}
	}

	var resp models.PositionResponse
	if err := c.do(ctx, "POST", "/api/position/create", req, &resp); err != nil {
		return models.Position{}, err
	}
	return resp.Position, nil
}

// Position returns a position with the vote of userID, or of the caller
// when userID is empty. A vote seen for the caller is remembered.
func (c *Client) Position(ctx context.Context, positionID, userID string) (models.PositionDetail, error) {
	if positionID == "" {
		return models.PositionDetail{}, &ValidationError{Field: "positionId", Message: "is required"}
	}

	path := "/api/position/" + url.PathEscape(positionID)
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}

	var resp models.PositionDetailResponse
	if err := c.do(ctx, "GET", path, nil, &resp); err != nil {
		return models.PositionDetail{}, err
	}

	s := c.Session()
	self := userID == "" || (s.User != nil && userID == s.User.ID)
	if self && resp.Position.VotedCandidate != nil {
		if err := c.markVoted(resp.Position.ID, *resp.Position.VotedCandidate); err != nil {
			return resp.Position, err
		}
	}
	return resp.Position, nil
}

// Candidates

// Candidates lists candidates, optionally filtered by position and election.
func (c *Client) Candidates(ctx context.Context, positionID, electionID string) ([]models.Candidate, error) {
	q := url.Values{}
	if positionID != "" {
		q.Set("positionId", positionID)
	}
	if electionID != "" {
		q.Set("electionId", electionID)
	}
	path := "/api/candidate/allCandidate"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp models.CandidateListResponse
	err := c.do(ctx, "GET", path, nil, &resp)
	return resp.Candidates, err
}

func (c *Client) CreateCandidate(ctx context.Context, req models.CreateCandidateRequest) (models.Candidate, error) {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return models.Candidate{}, &ValidationError{Field: "name", Message: "is required"}
	case req.ElectionID == "":
		return models.Candidate{}, &ValidationError{Field: "electionId", Message: "is required"}
	case req.PositionID == "":
		return models.Candidate{}, &ValidationError{Field: "positionId", Message: "is required"}
	}

	var resp models.CandidateResponse
	if err := c.do(ctx, "POST", "/api/candidate/create", req, &resp); err != nil {
		return models.Candidate{}, err
	}
	return resp.Candidate, nil
}

// UploadImage uploads a candidate image and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	if filename == "" {
		return "", &ValidationError{Field: "my_file", Message: "filename is required"}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("my_file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/candidate/uploadImage", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp models.UploadImageResponse
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Votes

// CastVote votes as the signed-in student. A position this session already
// voted for is refused locally with ErrAlreadyVoted; a duplicate the server
// detects is ErrDuplicateVote.
func (c *Client) CastVote(ctx context.Context, candidateID, positionID, electionID string) (models.Vote, error) {
	s := c.Session()
	if s.State() != Authenticated {
		return models.Vote{}, ErrAuth
	}
	switch {
	case candidateID == "":
		return models.Vote{}, &ValidationError{Field: "candidate", Message: "is required"}
	case positionID == "":
		return models.Vote{}, &ValidationError{Field: "position", Message: "is required"}
	case electionID == "":
		return models.Vote{}, &ValidationError{Field: "election", Message: "is required"}
	}
	if _, ok := s.Voted[positionID]; ok {
		return models.Vote{}, ErrAlreadyVoted
	}

	var resp models.CastVoteResponse
	err := c.do(ctx, "POST", "/api/vote/cast", models.CastVoteRequest{
		Student:   s.User.ID,
		Candidate: candidateID,
		Position:  positionID,
		Election:  electionID,
	}, &resp)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict &&
		strings.Contains(strings.ToLower(apiErr.Message), "already voted") {
		apiErr.kind = ErrDuplicateVote
		// Still a vote for this position, just not this one
		if serr := c.markVoted(positionID, ""); serr != nil {
			return models.Vote{}, errors.Join(err, serr)
		}
		return models.Vote{}, err
	}
	if err != nil {
		return models.Vote{}, err
	}

	if err := c.markVoted(positionID, candidateID); err != nil {
		return resp.Vote, err
	}
	return resp.Vote, nil
}

func (c *Client) markVoted(positionID, candidateID string) error {
	s := c.Session()
	if s.State() != Authenticated {
		return nil
	}
	if s.Voted == nil {
		s.Voted = map[string]string{}
	}
	if prev, ok := s.Voted[positionID]; ok && prev == candidateID {
		return nil
	}
	s.Voted[positionID] = candidateID
	return c.save(s)
}

// VotesByStudent reports, per position, whether studentID has voted.
func (c *Client) VotesByStudent(ctx context.Context, studentID string) ([]models.PositionVoted, error) {
	if studentID == "" {
		return nil, &ValidationError{Field: "studentId", Message: "is required"}
	}
	var resp models.StudentVotesResponse
	err := c.do(ctx, "GET", "/api/vote/getVoteByStudent/"+url.PathEscape(studentID), nil, &resp)
	return resp.Elections, err
}

// AllVotes lists every vote (admin).
func (c *Client) AllVotes(ctx context.Context) ([]models.VoteRecord, error) {
	var resp models.VoteListResponse
	err := c.do(ctx, "GET", "/api/vote/all", nil, &resp)
	return resp.Votes, err
}

// Users lists every account (admin).
func (c *Client) Users(ctx context.Context) ([]models.Account, error) {
	var resp models.UserListResponse
	err := c.do(ctx, "GET", "/api/user/all", nil, &resp)
	return resp.Users, err
}

// Results returns the tally for one position.
func (c *Client) Results(ctx context.Context, positionID string) (models.PositionResult, error) {
	if positionID == "" {
		return models.PositionResult{}, &ValidationError{Field: "positionId", Message: "is required"}
	}
	var resp models.PositionResult
	err := c.do(ctx, "GET", "/api/results/"+url.PathEscape(positionID), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return newAPIError(resp.StatusCode, "")
		}
		return newAPIError(resp.StatusCode, apiErr.Message)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
