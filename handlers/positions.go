// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/ledger"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

type PositionHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	ledger *ledger.Ledger
}

func NewPositionHandler(db *sql.DB, cfg cliparse.Config, l *ledger.Ledger) *PositionHandler {
	return &PositionHandler{db: db, cfg: cfg, ledger: l}
}

// Create handles POST /api/position/create (admin)
func (h *PositionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.ElectionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "electionId is required")
		return
	}

	summary, err := loadElectionSummary(r.Context(), h.db, req.ElectionID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	position := models.Position{
		ID:          auth.NewID(),
		Title:       req.Title,
		Description: req.Description,
		ElectionID:  req.ElectionID,
		Election:    &summary,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO election_position (id, election_id, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, position.ID, position.ElectionID, position.Title, position.Description, position.CreatedAt)
	if err != nil {
		slog.Error("failed to insert position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create position")
		return
	}

	slog.Info("position created", "position_id", position.ID, "election_id", position.ElectionID)

	middleware.JSONResponse(w, http.StatusCreated, models.PositionResponse{
		Success:  true,
		Message:  "Position created successfully",
		Position: position,
	})
}

// List handles GET|POST /api/position/get
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT p.id, p.title, p.description, p.election_id, p.created_at,
		       e.title, e.start_at, e.end_at
		FROM election_position p
		JOIN election e ON e.id = p.election_id
		ORDER BY e.start_at DESC, p.created_at, p.id
	`)
	if err != nil {
		slog.Error("failed to query positions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now().UTC()
	positions := []models.Position{}
	for rows.Next() {
		var (
			p models.Position
			e models.ElectionSummary
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ElectionID, &p.CreatedAt,
			&e.Title, &e.StartDate, &e.EndDate); err != nil {
			slog.Error("failed to scan position", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		e.ID = p.ElectionID
		e.Status = models.DeriveStatus(now, e.StartDate, e.EndDate)
		p.Election = &e
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read positions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PositionListResponse{
		Success:   true,
		Positions: positions,
	})
}

// Get handles GET /api/position/{id}?userId=
// Students may only ask about themselves; userId defaults to the caller.
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")
	if positionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "position id is required")
		return
	}

	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = p.AccountID
	}
	if !p.IsAdmin() && userID != p.AccountID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You can only view your own votes")
		return
	}

	var detail models.PositionDetail
	err = h.db.QueryRowContext(r.Context(), `
		SELECT p.id, p.title, p.description, p.election_id, e.start_at, e.end_at
		FROM election_position p
		JOIN election e ON e.id = p.election_id
		WHERE p.id = $1
	`, positionID).Scan(&detail.ID, &detail.Title, &detail.Description, &detail.ElectionID,
		&detail.StartDate, &detail.EndDate)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
		return
	}
	if err != nil {
		slog.Error("failed to query position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	detail.Status = models.DeriveStatus(time.Now().UTC(), detail.StartDate, detail.EndDate)

	detail.Candidates, err = queryCandidates(r.Context(), h.db, positionID, "")
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	detail.VotedCandidate, err = h.ledger.VoteFor(r.Context(), userID, positionID)
	if err != nil {
		slog.Error("failed to query vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	detail.HasVoted = detail.VotedCandidate != nil

	middleware.JSONResponse(w, http.StatusOK, models.PositionDetailResponse{
		Success:  true,
		Position: detail,
	})
}

func loadElectionSummary(ctx context.Context, conn *sql.DB, electionID string) (models.ElectionSummary, error) {
	var e models.ElectionSummary
	err := conn.QueryRowContext(ctx, `
		SELECT id, title, start_at, end_at FROM election WHERE id = $1
	`, electionID).Scan(&e.ID, &e.Title, &e.StartDate, &e.EndDate)
	if err != nil {
		return models.ElectionSummary{}, err
	}
	e.Status = models.DeriveStatus(time.Now().UTC(), e.StartDate, e.EndDate)
	return e, nil
}
