// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/db"
	"github.com/danielhkuo/campus-vote/middleware"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/otp"
)

type AuthHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	otp     *otp.Service
	tokens  *auth.TokenManager
	authn   *middleware.Authenticator
	limiter *middleware.RateLimiter
}

func NewAuthHandler(db *sql.DB, cfg cliparse.Config, otpService *otp.Service, tokens *auth.TokenManager,
	authn *middleware.Authenticator, limiter *middleware.RateLimiter) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, otp: otpService, tokens: tokens, authn: authn, limiter: limiter}
}

// RequestOTP handles POST /api/auth/request-otp
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req models.RequestOTPRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email := models.NormalizeEmail(req.Email)
	if err := models.ValidateEmail(email); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	if !h.limiter.Allow("email:" + email) {
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "Too many code requests, try again in a minute")
		return
	}

	err := h.otp.Request(r.Context(), email)
	if errors.Is(err, otp.ErrUnknownEmail) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No account is registered with this email")
		return
	}
	if err != nil {
		slog.Error("failed to issue login code", "error", err, "email", email)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send OTP")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "OTP sent to your email",
	})
}

// VerifyOTP handles POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email and otp are required")
		return
	}

	acct, err := h.otp.Verify(r.Context(), req.Email, req.OTP)
	if errors.Is(err, otp.ErrInvalidCode) || errors.Is(err, otp.ErrUnknownEmail) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired OTP")
		return
	}
	if err != nil {
		slog.Error("failed to verify login code", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}

	token, _, err := h.tokens.Issue(acct.ID, acct.Role, acct.Email)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to verify OTP")
		return
	}

	slog.Info("login succeeded", "account_id", acct.ID, "role", acct.Role)

	middleware.JSONResponse(w, http.StatusOK, models.VerifyOTPResponse{
		Success: true,
		Message: "Login successful",
		User:    acct,
		Token:   token,
	})
}

// CheckAuth handles GET /api/auth/check-auth
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	p, err := h.authn.Principal(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	acct, err := loadAccount(r, h.db, p.AccountID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if err != nil {
		slog.Error("failed to load account", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.AuthResponse{Success: true, User: acct})
}

// Logout handles POST /api/auth/logout. A valid bearer token is revoked;
// the call succeeds either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// TODO: prune revoked_token rows whose expires_at has passed
	if p, err := h.authn.Principal(r); err == nil {
		expiresAt := p.ExpiresAt
		if expiresAt.IsZero() {
			expiresAt = time.Now().Add(h.cfg.TokenTTL)
		}
		_, err := h.db.ExecContext(r.Context(), `
			INSERT INTO revoked_token (jti, expires_at) VALUES ($1, $2)
			ON CONFLICT (jti) DO NOTHING
		`, p.TokenID, expiresAt.UTC())
		if err != nil {
			slog.Warn("failed to revoke token", "error", err, "account_id", p.AccountID)
		} else {
			slog.Info("logged out", "account_id", p.AccountID)
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Logged out",
	})
}

// Register handles POST /api/auth/register (admin)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.MatricNumber = strings.ToUpper(strings.TrimSpace(req.MatricNumber))
	email := models.NormalizeEmail(req.Email)

	if req.FullName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "fullName is required")
		return
	}
	if err := models.ValidateMatricNumber(req.MatricNumber); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := models.ValidateEmail(email); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	acct := models.Account{
		ID:           auth.NewID(),
		FullName:     req.FullName,
		Email:        email,
		Role:         models.RoleStudent,
		MatricNumber: &req.MatricNumber,
		CreatedAt:    time.Now().UTC(),
	}

	_, err := h.db.ExecContext(r.Context(), `
		INSERT INTO account (id, full_name, email, role, matric_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, acct.ID, acct.FullName, acct.Email, acct.Role, acct.MatricNumber, acct.CreatedAt)
	if db.IsUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "A student with this email or matric number already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert account", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register student")
		return
	}

	slog.Info("student registered", "account_id", acct.ID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterResponse{
		Success: true,
		Message: "Student registered successfully",
		User:    acct,
	})
}

func loadAccount(r *http.Request, conn *sql.DB, id string) (models.Account, error) {
	var a models.Account
	err := conn.QueryRowContext(r.Context(), `
		SELECT id, full_name, email, role, matric_number, created_at
		FROM account WHERE id = $1
	`, id).Scan(&a.ID, &a.FullName, &a.Email, &a.Role, &a.MatricNumber, &a.CreatedAt)
	return a, err
}
