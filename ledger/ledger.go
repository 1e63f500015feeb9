// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ledger records votes. A student holds at most one vote per
// position; the check runs inside the cast transaction and the
// UNIQUE(student_id, position_id) constraint catches concurrent losers.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/metrics"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/tally"
)

var (
	ErrDuplicateVote     = errors.New("You have already voted for this position")
	ErrNotFound          = errors.New("candidate, position or election not found")
	ErrElectionNotActive = errors.New("election is not open for voting")
)

type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db, now: time.Now}
}

// Cast records one vote. The candidate must belong to the given position and
// election, and the election must be active.
func (l *Ledger) Cast(ctx context.Context, req models.CastVoteRequest) (models.Vote, error) {
	vote, err := l.cast(ctx, req)

	outcome := metrics.OutcomeAccepted
	switch {
	case err == nil:
	case errors.Is(err, ErrDuplicateVote):
		outcome = metrics.OutcomeDuplicate
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, ErrElectionNotActive):
		outcome = metrics.OutcomeClosed
	default:
		outcome = metrics.OutcomeError
	}
	metrics.RecordVote(ctx, req.Position, outcome)

	return vote, err
}

func (l *Ledger) cast(ctx context.Context, req models.CastVoteRequest) (models.Vote, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var studentRole string
	err = tx.QueryRowContext(ctx, `SELECT role FROM account WHERE id = $1`, req.Student).Scan(&studentRole)
	if err == sql.ErrNoRows {
		return models.Vote{}, ErrNotFound
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to load student: %w", err)
	}
	if studentRole != models.RoleStudent {
		return models.Vote{}, ErrNotFound
	}

	var (
		candPosition, candElection, posElection string
		startAt, endAt                          time.Time
	)
	err = tx.QueryRowContext(ctx, `
		SELECT c.position_id, c.election_id, p.election_id, e.start_at, e.end_at
		FROM candidate c
		JOIN election_position p ON p.id = c.position_id
		JOIN election e ON e.id = p.election_id
		WHERE c.id = $1
	`, req.Candidate).Scan(&candPosition, &candElection, &posElection, &startAt, &endAt)
	if err == sql.ErrNoRows {
		return models.Vote{}, ErrNotFound
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to load candidate: %w", err)
	}

	if candPosition != req.Position || candElection != req.Election || posElection != req.Election {
		return models.Vote{}, ErrNotFound
	}

	now := l.now().UTC()
	if models.DeriveStatus(now, startAt, endAt) != models.StatusActive {
		return models.Vote{}, ErrElectionNotActive
	}

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM vote WHERE student_id = $1 AND position_id = $2)
	`, req.Student, req.Position).Scan(&exists)
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to check existing vote: %w", err)
	}
	if exists {
		return models.Vote{}, ErrDuplicateVote
	}

	vote := models.Vote{
		ID:          auth.NewID(),
		StudentID:   req.Student,
		CandidateID: req.Candidate,
		PositionID:  req.Position,
		ElectionID:  req.Election,
		CreatedAt:   now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO vote (id, student_id, candidate_id, position_id, election_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, vote.ID, vote.StudentID, vote.CandidateID, vote.PositionID, vote.ElectionID, vote.CreatedAt)
	if db.IsUniqueViolation(err) {
		return models.Vote{}, ErrDuplicateVote
	}
	if err != nil {
		return models.Vote{}, fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if db.IsUniqueViolation(err) {
			return models.Vote{}, ErrDuplicateVote
		}
		return models.Vote{}, fmt.Errorf("failed to commit vote: %w", err)
	}

	slog.Info("vote cast", "vote_id", vote.ID, "position_id", vote.PositionID, "election_id", vote.ElectionID)
	return vote, nil
}

// ByStudent lists every position with whether the student has voted in it.
func (l *Ledger) ByStudent(ctx context.Context, studentID string) ([]models.PositionVoted, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT p.id, p.title, p.election_id, v.candidate_id
		FROM election_position p
		LEFT JOIN vote v ON v.position_id = p.id AND v.student_id = $1
		ORDER BY p.created_at, p.id
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	out := []models.PositionVoted{}
	for rows.Next() {
		var pv models.PositionVoted
		if err := rows.Scan(&pv.ID, &pv.Title, &pv.ElectionID, &pv.VotedCandidate); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		pv.HasVoted = pv.VotedCandidate != nil
		out = append(out, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}

	return out, nil
}

// All lists every vote with its candidate's name, oldest first.
func (l *Ledger) All(ctx context.Context) ([]models.VoteRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT v.id, v.student_id, c.id, c.name, v.position_id, v.election_id, v.created_at
		FROM vote v
		JOIN candidate c ON c.id = v.candidate_id
		ORDER BY v.created_at, v.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	out := []models.VoteRecord{}
	for rows.Next() {
		var r models.VoteRecord
		if err := rows.Scan(&r.ID, &r.StudentID, &r.Candidate.ID, &r.Candidate.Name, &r.PositionID, &r.ElectionID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}

	return out, nil
}

// VoteFor returns the candidate the student chose for a position, or nil.
func (l *Ledger) VoteFor(ctx context.Context, studentID, positionID string) (*string, error) {
	var candidateID string
	err := l.db.QueryRowContext(ctx, `
		SELECT candidate_id FROM vote WHERE student_id = $1 AND position_id = $2
	`, studentID, positionID).Scan(&candidateID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vote: %w", err)
	}
	return &candidateID, nil
}

// Counts returns the vote count of each candidate for a position in
// registration order, including candidates with no votes.
func (l *Ledger) Counts(ctx context.Context, positionID string) ([]tally.Count, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.image, COUNT(v.id)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id
		WHERE c.position_id = $1
		GROUP BY c.id, c.name, c.image, c.created_at
		ORDER BY c.created_at, c.id
	`, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	var out []tally.Count
	for rows.Next() {
		var c tally.Count
		if err := rows.Scan(&c.CandidateID, &c.Name, &c.Image, &c.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}

	return out, nil
}
