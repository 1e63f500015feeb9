// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg}
}

// Create handles POST /api/election/create (admin)
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "startDate and endDate are required")
		return
	}

	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "startDate is not a valid date")
		return
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "endDate is not a valid date")
		return
	}
	if !end.After(start) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "endDate must be after startDate")
		return
	}

	now := time.Now().UTC()
	election := models.Election{
		ID:          auth.NewID(),
		Title:       req.Title,
		Description: req.Description,
		StartDate:   start,
		EndDate:     end,
		Status:      models.DeriveStatus(now, start, end),
		CreatedAt:   now,
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO election (id, title, description, start_at, end_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, election.ID, election.Title, election.Description, election.StartDate, election.EndDate, election.CreatedAt)
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	// Optional inline positions
	var positions []models.Position
	for i, title := range req.Positions {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		p := models.Position{
			ID:         auth.NewID(),
			Title:      title,
			ElectionID: election.ID,
			CreatedAt:  now.Add(time.Duration(i) * time.Microsecond),
		}
		_, err = tx.Exec(`
			INSERT INTO election_position (id, election_id, title, description, created_at)
			VALUES ($1, $2, $3, '', $4)
		`, p.ID, p.ElectionID, p.Title, p.CreatedAt)
		if err != nil {
			slog.Error("failed to insert position", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
			return
		}
		positions = append(positions, p)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	slog.Info("election created", "election_id", election.ID, "positions", len(positions))

	middleware.JSONResponse(w, http.StatusCreated, models.ElectionResponse{
		Success:   true,
		Message:   "Election created successfully",
		Election:  election,
		Positions: positions,
	})
}

// List handles GET|POST /api/election/get
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, title, description, start_at, end_at, created_at
		FROM election
		ORDER BY start_at DESC, id
	`)
	if err != nil {
		slog.Error("failed to query elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	now := time.Now().UTC()
	elections := []models.Election{}
	for rows.Next() {
		var e models.Election
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.CreatedAt); err != nil {
			slog.Error("failed to scan election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		e.Status = models.DeriveStatus(now, e.StartDate, e.EndDate)
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionListResponse{
		Success:   true,
		Elections: elections,
	})
}
