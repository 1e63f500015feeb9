// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/ledger"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/tally"
)

type ResultsHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	ledger *ledger.Ledger
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config, l *ledger.Ledger) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg, ledger: l}
}

// ByPosition handles GET /api/results/{positionId}
// Results are sealed for students until the election is completed.
func (h *ResultsHandler) ByPosition(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	positionID := r.PathValue("positionId")
	if positionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "positionId is required")
		return
	}

	result := models.PositionResult{Success: true, PositionID: positionID}
	var startAt, endAt time.Time
	err = h.db.QueryRowContext(r.Context(), `
		SELECT p.title, p.election_id, e.start_at, e.end_at
		FROM election_position p
		JOIN election e ON e.id = p.election_id
		WHERE p.id = $1
	`, positionID).Scan(&result.PositionTitle, &result.ElectionID, &startAt, &endAt)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
		return
	}
	if err != nil {
		slog.Error("failed to query position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	result.Status = models.DeriveStatus(time.Now().UTC(), startAt, endAt)
	if !p.IsAdmin() && result.Status != models.StatusCompleted {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are available once the election has ended")
		return
	}

	err = h.db.QueryRowContext(r.Context(), `
		SELECT COUNT(*) FROM account WHERE role = $1
	`, models.RoleStudent).Scan(&result.TotalVoters)
	if err != nil {
		slog.Error("failed to count voters", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	counts, err := h.ledger.Counts(r.Context(), positionID)
	if err != nil {
		slog.Error("failed to count votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	summary := tally.Compute(counts, result.TotalVoters)
	result.TotalVotesCast = summary.TotalVotesCast
	result.ParticipationRate = summary.ParticipationRate
	result.WinnerTie = summary.WinnerTie
	result.Candidates = summary.Candidates

	middleware.JSONResponse(w, http.StatusOK, result)
}
