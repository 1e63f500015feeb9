// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNoCode is returned by Store.Take when no code is pending for the email.
var ErrNoCode = errors.New("no pending code")

// Store keeps at most one pending code hash per email.
type Store interface {
	// Put replaces any pending code for email.
	Put(ctx context.Context, email, codeHash string, expiresAt time.Time) error
	// Take removes the pending code and returns it. Concurrent callers for
	// the same email see at most one success.
	Take(ctx context.Context, email string) (codeHash string, expiresAt time.Time, err error)
}

// SQLStore keeps codes in the otp_code table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Put(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO otp_code (email, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO UPDATE
		SET code_hash = excluded.code_hash,
		    expires_at = excluded.expires_at,
		    created_at = excluded.created_at
	`, email, codeHash, expiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *SQLStore) Take(ctx context.Context, email string) (string, time.Time, error) {
	var (
		codeHash  string
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT code_hash, expires_at FROM otp_code WHERE email = $1
	`, email).Scan(&codeHash, &expiresAt)
	if err == sql.ErrNoRows {
		return "", time.Time{}, ErrNoCode
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to load code: %w", err)
	}

	// Conditional delete: only the caller that removes this exact hash wins
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM otp_code WHERE email = $1 AND code_hash = $2
	`, email, codeHash)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to consume code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to consume code: %w", err)
	}
	if n == 0 {
		return "", time.Time{}, ErrNoCode
	}

	return codeHash, expiresAt, nil
}

// RedisStore keeps codes under otp:<email> with a matching TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects using a redis:// URL.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts), prefix: "otp:"}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Put(ctx context.Context, email, codeHash string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("code already expired")
	}
	// bcrypt hashes never contain ':'
	value := strconv.FormatInt(expiresAt.UnixNano(), 10) + ":" + codeHash
	if err := s.client.Set(ctx, s.prefix+email, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, email string) (string, time.Time, error) {
	value, err := s.client.GetDel(ctx, s.prefix+email).Result()
	if err == redis.Nil {
		return "", time.Time{}, ErrNoCode
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to consume code: %w", err)
	}

	ts, codeHash, ok := strings.Cut(value, ":")
	if !ok {
		return "", time.Time{}, fmt.Errorf("malformed code entry for %s", email)
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed code expiry for %s: %w", email, err)
	}

	return codeHash, time.Unix(0, nanos).UTC(), nil
}
