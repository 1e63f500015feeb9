package models

import "time"

// Account roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Derived election status values
const (
	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Request types

type RequestOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type RegisterRequest struct {
	FullName     string `json:"fullName"`
	MatricNumber string `json:"matricNumber"`
	Email        string `json:"email"`
}

// Dates are RFC 3339 or datetime-local ("2006-01-02T15:04")
type CreateElectionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Positions   []string `json:"positions,omitempty"`
}

type CreatePositionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ElectionID  string `json:"electionId"`
}

type CreateCandidateRequest struct {
	Name       string `json:"name"`
	Manifesto  string `json:"manifesto"`
	Image      string `json:"image"`
	ElectionID string `json:"electionId"`
	PositionID string `json:"positionId"`
}

type CastVoteRequest struct {
	Student   string `json:"student"`
	Candidate string `json:"candidate"`
	Position  string `json:"position"`
	Election  string `json:"election"`
}

// Response types

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type VerifyOTPResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    Account `json:"user"`
	Token   string  `json:"token"`
}

type AuthResponse struct {
	Success bool    `json:"success"`
	User    Account `json:"user"`
}

type RegisterResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	User    Account `json:"user"`
}

type ElectionResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	Election  Election   `json:"election"`
	Positions []Position `json:"positions,omitempty"`
}

type ElectionListResponse struct {
	Success   bool       `json:"success"`
	Elections []Election `json:"elections"`
}

type PositionResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Position Position `json:"position"`
}

type PositionListResponse struct {
	Success   bool       `json:"success"`
	Positions []Position `json:"positions"`
}

type PositionDetailResponse struct {
	Success  bool           `json:"success"`
	Position PositionDetail `json:"position"`
}

type CandidateResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Candidate Candidate `json:"candidate"`
}

type CandidateListResponse struct {
	Success    bool        `json:"success"`
	Candidates []Candidate `json:"candidates"`
}

type UploadImageResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

type CastVoteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Vote    Vote   `json:"vote"`
}

type StudentVotesResponse struct {
	Success   bool            `json:"success"`
	Elections []PositionVoted `json:"elections"`
}

type VoteListResponse struct {
	Success bool         `json:"success"`
	Votes   []VoteRecord `json:"votes"`
}

type UserListResponse struct {
	Success bool      `json:"success"`
	Users   []Account `json:"users"`
}

// Domain types

type Account struct {
	ID           string    `json:"_id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	MatricNumber *string   `json:"matricNumber,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Election struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"` // derived at read time, never stored
	CreatedAt   time.Time `json:"createdAt"`
}

// ElectionSummary is embedded in position listings
type ElectionSummary struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
}

type Position struct {
	ID          string           `json:"_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ElectionID  string           `json:"electionId"`
	Election    *ElectionSummary `json:"election,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// PositionDetail is a position as seen by one voter
type PositionDetail struct {
	ID             string      `json:"_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	ElectionID     string      `json:"electionId"`
	StartDate      time.Time   `json:"startDate"`
	EndDate        time.Time   `json:"endDate"`
	Status         string      `json:"status"`
	Candidates     []Candidate `json:"candidates"`
	HasVoted       bool        `json:"hasVoted"`
	VotedCandidate *string     `json:"votedCandidate"`
}

type Candidate struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Manifesto  string    `json:"manifesto"`
	Image      string    `json:"image"`
	PositionID string    `json:"position"`
	ElectionID string    `json:"election"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Vote struct {
	ID          string    `json:"_id"`
	StudentID   string    `json:"student"`
	CandidateID string    `json:"candidate"`
	PositionID  string    `json:"position"`
	ElectionID  string    `json:"election"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CandidateRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// VoteRecord is a vote with its candidate resolved, for admin listings
type VoteRecord struct {
	ID         string       `json:"_id"`
	StudentID  string       `json:"student"`
	Candidate  CandidateRef `json:"candidate"`
	PositionID string       `json:"position"`
	ElectionID string       `json:"election"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// PositionVoted reports whether one student has voted for a position.
// ID is the position id.
type PositionVoted struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	ElectionID     string  `json:"electionId"`
	HasVoted       bool    `json:"hasVoted"`
	VotedCandidate *string `json:"votedCandidate"`
}

// Result types

type CandidateResult struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

type PositionResult struct {
	Success           bool              `json:"success"`
	PositionID        string            `json:"positionId"`
	PositionTitle     string            `json:"positionTitle"`
	ElectionID        string            `json:"electionId"`
	Status            string            `json:"status"`
	TotalVoters       int               `json:"totalVoters"`
	TotalVotesCast    int               `json:"totalVotesCast"`
	ParticipationRate int               `json:"participationRate"`
	WinnerTie         bool              `json:"winnerTie"`
	Candidates        []CandidateResult `json:"candidates"`
}

// Error response

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
