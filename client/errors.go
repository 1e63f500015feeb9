// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAuth        = errors.New("not authenticated")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")

	// ErrDuplicateVote is a conflict on vote cast: the earlier vote stands.
	ErrDuplicateVote = fmt.Errorf("%w: already voted for this position", ErrConflict)

	// Raised locally, before any request is sent
	ErrNoPendingEmail = errors.New("no login code has been requested")
	ErrAlreadyVoted   = errors.New("this session has already voted for the position")
)

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// APIError is a non-2xx response. errors.Is matches it against the
// sentinel for its status, so callers can branch on ErrNotFound and still
// read the server's message.
type APIError struct {
	Status  int
	Message string

	kind error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %d: %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, message string) *APIError {
	e := &APIError{Status: status, Message: message}
	switch status {
	case http.StatusUnauthorized:
		e.kind = ErrAuth
	case http.StatusForbidden:
		e.kind = ErrForbidden
	case http.StatusConflict:
		e.kind = ErrConflict
	case http.StatusNotFound:
		e.kind = ErrNotFound
	case http.StatusTooManyRequests:
		e.kind = ErrRateLimited
	}
	return e
}
