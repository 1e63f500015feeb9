// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/ledger"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

type VoteHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	ledger *ledger.Ledger
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config, l *ledger.Ledger) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg, ledger: l}
}

// Cast handles POST /api/vote/cast (student)
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Student == "" || req.Candidate == "" || req.Position == "" || req.Election == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "student, candidate, position and election are required")
		return
	}
	if req.Student != p.AccountID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You can only vote as yourself")
		return
	}

	vote, err := h.ledger.Cast(r.Context(), req)
	switch {
	case errors.Is(err, ledger.ErrDuplicateVote):
		middleware.ErrorResponse(w, http.StatusConflict, ledger.ErrDuplicateVote.Error())
		return
	case errors.Is(err, ledger.ErrElectionNotActive):
		middleware.ErrorResponse(w, http.StatusConflict, "This election is not open for voting")
		return
	case errors.Is(err, ledger.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found for this position and election")
		return
	case err != nil:
		slog.Error("failed to cast vote", "error", err, "position_id", req.Position)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to cast vote")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Success: true,
		Message: "Vote cast successfully",
		Vote:    vote,
	})
}

// ByStudent handles GET /api/vote/getVoteByStudent/{id} (self or admin)
func (h *VoteHandler) ByStudent(w http.ResponseWriter, r *http.Request) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	studentID := r.PathValue("id")
	if studentID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "student id is required")
		return
	}
	if !p.IsAdmin() && studentID != p.AccountID {
		middleware.ErrorResponse(w, http.StatusForbidden, "You can only view your own votes")
		return
	}

	if _, err := loadAccount(r, h.db, studentID); err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	} else if err != nil {
		slog.Error("failed to load account", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	entries, err := h.ledger.ByStudent(r.Context(), studentID)
	if err != nil {
		slog.Error("failed to query student votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StudentVotesResponse{
		Success:   true,
		Elections: entries,
	})
}

// All handles GET /api/vote/all (admin)
func (h *VoteHandler) All(w http.ResponseWriter, r *http.Request) {
	votes, err := h.ledger.All(r.Context())
	if err != nil {
		slog.Error("failed to query votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteListResponse{
		Success: true,
		Votes:   votes,
	})
}
