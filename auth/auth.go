// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// OTPLength is the number of digits in a one-time passcode
const OTPLength = 6

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrCodeMismatch = errors.New("one-time code mismatch")
)

// otpCost is a variable so tests can lower it
var otpCost = bcrypt.DefaultCost

// NewID creates a random identifier for database records
func NewID() string {
	return uuid.NewString()
}

// GenerateOTP creates a uniformly random, zero-padded 6-digit code
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate one-time code: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n.Int64()), nil
}

// HashOTP hashes a code for storage. Plaintext codes are never persisted.
func HashOTP(code string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(code), otpCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash one-time code: %w", err)
	}
	return string(h), nil
}

// CompareOTP checks code against a hash produced by HashOTP
func CompareOTP(hash, code string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return ErrCodeMismatch
	}
	return nil
}
