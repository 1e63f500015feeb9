// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidMatricNumber = errors.New("matric number should be 3 letters followed by 7 digits, like MED1907564")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidDate         = errors.New("invalid date")
)

var matricPattern = regexp.MustCompile(`^[A-Za-z]{3}[0-9]{7}$`)

// ValidateMatricNumber checks the student matriculation number format
func ValidateMatricNumber(s string) error {
	if !matricPattern.MatchString(s) {
		return ErrInvalidMatricNumber
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateEmail accepts a bare address (no display name)
func ValidateEmail(s string) error {
	if s == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// datetime-local inputs submit minutes precision without a zone
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses an election boundary. Zone-less values are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
