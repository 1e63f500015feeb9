// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/models"
)

// Seed lists accounts created on startup. Existing emails are skipped.
//
//	accounts:
//	  - fullName: Election Office
//	    email: elections@uni.edu
//	    role: admin
//	    matricNumber: ADMIN001
type Seed struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

type SeedAccount struct {
	FullName     string `yaml:"fullName"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	MatricNumber string `yaml:"matricNumber"`
}

// LoadSeed parses a YAML seed file
func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, a := range seed.Accounts {
		if a.FullName == "" {
			return nil, fmt.Errorf("seed account %d: fullName is required", i)
		}
		if err := models.ValidateEmail(models.NormalizeEmail(a.Email)); err != nil {
			return nil, fmt.Errorf("seed account %d: %w", i, err)
		}
		switch a.Role {
		case models.RoleAdmin:
		case models.RoleStudent:
			if err := models.ValidateMatricNumber(a.MatricNumber); err != nil {
				return nil, fmt.Errorf("seed account %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("seed account %d: role must be admin or student", i)
		}
	}

	return &seed, nil
}

// ApplySeed inserts seed accounts that do not exist yet and returns how
// many were created.
func ApplySeed(ctx context.Context, conn *sql.DB, seed *Seed) (int, error) {
	created := 0
	for _, a := range seed.Accounts {
		email := models.NormalizeEmail(a.Email)

		var exists bool
		err := conn.QueryRowContext(ctx, `
			SELECT EXISTS(SELECT 1 FROM account WHERE email = $1)
		`, email).Scan(&exists)
		if err != nil {
			return created, fmt.Errorf("failed to check seed account: %w", err)
		}
		if exists {
			continue
		}

		var matric *string
		if a.MatricNumber != "" {
			m := a.MatricNumber
			matric = &m
		}

		_, err = conn.ExecContext(ctx, `
			INSERT INTO account (id, full_name, email, role, matric_number, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, auth.NewID(), a.FullName, email, a.Role, matric, time.Now().UTC())
		if err != nil {
			return created, fmt.Errorf("failed to insert seed account %s: %w", email, err)
		}

		slog.Info("seed account created", "email", email, "role", a.Role)
		created++
	}

	return created, nil
}
