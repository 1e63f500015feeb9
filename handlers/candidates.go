// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/media"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
)

// MaxImageSize is the largest accepted candidate image.
const MaxImageSize = 5 << 20

type CandidateHandler struct {
	db    *sql.DB
	cfg   cliparse.Config
	media media.Store
}

func NewCandidateHandler(db *sql.DB, cfg cliparse.Config, store media.Store) *CandidateHandler {
	return &CandidateHandler{db: db, cfg: cfg, media: store}
}

// Create handles POST /api/candidate/create (admin)
func (h *CandidateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ElectionID == "" || req.PositionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "electionId and positionId are required")
		return
	}

	// The position must belong to the named election
	var positionElection string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT election_id FROM election_position WHERE id = $1
	`, req.PositionID).Scan(&positionElection)
	if err == sql.ErrNoRows || (err == nil && positionElection != req.ElectionID) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found in this election")
		return
	}
	if err != nil {
		slog.Error("failed to query position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	candidate := models.Candidate{
		ID:         auth.NewID(),
		Name:       req.Name,
		Manifesto:  req.Manifesto,
		Image:      req.Image,
		PositionID: req.PositionID,
		ElectionID: req.ElectionID,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO candidate (id, position_id, election_id, name, manifesto, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, candidate.ID, candidate.PositionID, candidate.ElectionID, candidate.Name,
		candidate.Manifesto, candidate.Image, candidate.CreatedAt)
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register candidate")
		return
	}

	slog.Info("candidate registered", "candidate_id", candidate.ID, "position_id", candidate.PositionID)

	middleware.JSONResponse(w, http.StatusCreated, models.CandidateResponse{
		Success:   true,
		Message:   "Candidate registered successfully",
		Candidate: candidate,
	})
}

// List handles GET|POST /api/candidate/allCandidate
// Optional query filters: positionId, electionId.
func (h *CandidateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	candidates, err := queryCandidates(r.Context(), h.db, q.Get("positionId"), q.Get("electionId"))
	if err != nil {
		slog.Error("failed to query candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.CandidateListResponse{
		Success:    true,
		Candidates: candidates,
	})
}

// UploadImage handles POST /api/candidate/uploadImage (admin, multipart field my_file)
func (h *CandidateHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Room for multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Image must be 5 MB or smaller")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Expected multipart form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("my_file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "my_file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		slog.Error("failed to read upload", "error", err)
		middleware.ErrorResponse(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(data) > MaxImageSize {
		middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Image must be 5 MB or smaller")
		return
	}

	contentType := uploadContentType(header, data)
	if !strings.HasPrefix(contentType, "image/") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Only image uploads are allowed")
		return
	}

	url, err := h.media.Save(r.Context(), header.Filename, contentType, data)
	if err != nil {
		slog.Error("failed to store image", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	slog.Info("image uploaded", "url", url, "bytes", len(data))

	middleware.JSONResponse(w, http.StatusOK, models.UploadImageResponse{
		Success: true,
		URL:     url,
	})
}

func uploadContentType(header *multipart.FileHeader, data []byte) string {
	ct := header.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

// queryCandidates lists candidates in registration order. Empty filters match all.
func queryCandidates(ctx context.Context, conn *sql.DB, positionID, electionID string) ([]models.Candidate, error) {
	rows, err := conn.QueryContext(ctx, `
		SELECT id, name, manifesto, image, position_id, election_id, created_at
		FROM candidate
		WHERE ($1 = '' OR position_id = $1) AND ($2 = '' OR election_id = $2)
		ORDER BY created_at, id
	`, positionID, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Manifesto, &c.Image, &c.PositionID, &c.ElectionID, &c.CreatedAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
