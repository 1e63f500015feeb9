// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := Open("sqlite", "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := CreateSchema(conn); err != nil {
		t.Fatalf("CreateSchema() error = %v", err)
	}
	return conn
}

func TestCreateSchemaIdempotent(t *testing.T) {
	conn := openTestDB(t)

	// Second run must succeed thanks to IF NOT EXISTS
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("second CreateSchema() error = %v", err)
	}

	for _, table := range []string{"account", "otp_code", "revoked_token", "election", "election_position", "candidate", "vote"} {
		var n int
		if err := conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Errorf("table %s not queryable: %v", table, err)
		}
	}
}

func TestOpenUnsupported(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("expected error for unsupported database type")
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"file:a.db", "file:a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file:a.db?mode=rwc", "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"file:a.db?_pragma=foreign_keys(0)&_pragma=busy_timeout(10)", "file:a.db?_pragma=foreign_keys(0)&_pragma=busy_timeout(10)"},
	}
	for _, tt := range tests {
		if got := sqliteDSN(tt.in); got != tt.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := openTestDB(t)

	insert := `INSERT INTO account (id, full_name, email, role, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := conn.Exec(insert, "a1", "Jane", "jane@uni.edu", "student", time.Now().UTC()); err != nil {
		t.Fatalf("first insert error = %v", err)
	}

	_, err := conn.Exec(insert, "a2", "Jane Again", "jane@uni.edu", "student", time.Now().UTC())
	if err == nil {
		t.Fatal("expected duplicate email to fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}

	_, err = conn.Exec(insert, "a1", "Other", "other@uni.edu", "student", time.Now().UTC())
	if !IsUniqueViolation(err) {
		t.Errorf("duplicate primary key should count as unique violation: %v", err)
	}

	// CHECK constraint is not a uniqueness failure
	_, err = conn.Exec(insert, "a3", "Bad Role", "bad@uni.edu", "superuser", time.Now().UTC())
	if err == nil || IsUniqueViolation(err) {
		t.Errorf("check constraint error misclassified: %v", err)
	}

	if !IsUniqueViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})) {
		t.Error("postgres unique violation not recognised")
	}
	if IsUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Error("postgres foreign key violation misclassified")
	}
	if IsUniqueViolation(errors.New("UNIQUE constraint failed")) {
		t.Error("plain errors must not be classified by message")
	}
}

func TestSeed(t *testing.T) {
	conn := openTestDB(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `
accounts:
  - fullName: Election Office
    email: Elections@Uni.edu
    role: admin
    matricNumber: ADMIN001
  - fullName: Jane Doe
    email: jane@uni.edu
    role: student
    matricNumber: MED1907564
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if len(seed.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(seed.Accounts))
	}

	created, err := ApplySeed(context.Background(), conn, seed)
	if err != nil {
		t.Fatalf("ApplySeed() error = %v", err)
	}
	if created != 2 {
		t.Errorf("expected 2 created, got %d", created)
	}

	// Re-applying is a no-op
	created, err = ApplySeed(context.Background(), conn, seed)
	if err != nil {
		t.Fatalf("second ApplySeed() error = %v", err)
	}
	if created != 0 {
		t.Errorf("expected 0 created on re-apply, got %d", created)
	}

	var role string
	if err := conn.QueryRow(`SELECT role FROM account WHERE email = $1`, "elections@uni.edu").Scan(&role); err != nil {
		t.Fatalf("seeded admin not found: %v", err)
	}
	if role != "admin" {
		t.Errorf("expected admin role, got %s", role)
	}
}

func TestLoadSeedValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "accounts: [this is: not"},
		{"missing name", "accounts:\n  - email: a@uni.edu\n    role: admin\n"},
		{"bad email", "accounts:\n  - fullName: A\n    email: nope\n    role: admin\n"},
		{"bad role", "accounts:\n  - fullName: A\n    email: a@uni.edu\n    role: dean\n"},
		{"student without matric", "accounts:\n  - fullName: A\n    email: a@uni.edu\n    role: student\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSeed(path); err == nil {
				t.Error("expected LoadSeed() to fail")
			}
		})
	}

	if _, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
