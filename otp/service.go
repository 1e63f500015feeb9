// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package otp issues and verifies one-time login codes.
//
// A code is six digits, delivered by mail and stored only as a bcrypt hash.
// Requesting a new code replaces the pending one. Verification consumes the
// pending code whether or not it matches, so every code admits a single
// attempt.
package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/mailer"
	"github.com/danielhkuo/campus-vote/metrics"
	"github.com/danielhkuo/campus-vote/models"
)

var (
	ErrUnknownEmail = errors.New("no account registered with this email")
	ErrInvalidCode  = errors.New("invalid or expired code")
)

type Service struct {
	db    *sql.DB
	store Store
	mail  mailer.Mailer
	ttl   time.Duration
	now   func() time.Time
}

func NewService(db *sql.DB, store Store, mail mailer.Mailer, ttl time.Duration) *Service {
	return &Service{db: db, store: store, mail: mail, ttl: ttl, now: time.Now}
}

// Request sends a fresh code to a registered email.
func (s *Service) Request(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if err := models.ValidateEmail(email); err != nil {
		return err
	}

	if _, err := s.account(ctx, email); err != nil {
		return err
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	hash, err := auth.HashOTP(code)
	if err != nil {
		return err
	}

	expiresAt := s.now().Add(s.ttl)
	if err := s.store.Put(ctx, email, hash, expiresAt); err != nil {
		return err
	}

	body := fmt.Sprintf("Your login code is %s.\n\nIt expires in %d minutes. If you did not ask for it, ignore this message.",
		code, int(s.ttl.Minutes()))
	if err := s.mail.Send(ctx, email, "Your campus vote login code", body); err != nil {
		return err
	}

	metrics.RecordOTPIssued(ctx)
	slog.Info("login code issued", "email", email, "expires_at", expiresAt)
	return nil
}

// Verify consumes the pending code for email and returns the account when it matches.
func (s *Service) Verify(ctx context.Context, email, code string) (models.Account, error) {
	email = models.NormalizeEmail(email)

	hash, expiresAt, err := s.store.Take(ctx, email)
	if errors.Is(err, ErrNoCode) {
		metrics.RecordOTPVerified(ctx, false)
		return models.Account{}, ErrInvalidCode
	}
	if err != nil {
		return models.Account{}, err
	}

	if s.now().After(expiresAt) || auth.CompareOTP(hash, code) != nil {
		metrics.RecordOTPVerified(ctx, false)
		return models.Account{}, ErrInvalidCode
	}

	acct, err := s.account(ctx, email)
	if err != nil {
		return models.Account{}, err
	}

	metrics.RecordOTPVerified(ctx, true)
	return acct, nil
}

func (s *Service) account(ctx context.Context, email string) (models.Account, error) {
	var a models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, role, matric_number, created_at
		FROM account WHERE email = $1
	`, email).Scan(&a.ID, &a.FullName, &a.Email, &a.Role, &a.MatricNumber, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Account{}, ErrUnknownEmail
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return a, nil
}
