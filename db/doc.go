// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database, creates the schema and applies seed data.

# Connecting

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections get foreign keys and a busy timeout, and are limited to
a single open connection.

# Schema Creation

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - account: students and admins, unique email and matric number
  - otp_code: at most one pending login code per email
  - revoked_token: token ids invalidated by logout
  - election: title and voting window
  - election_position: offices contested within an election
  - candidate: people standing for a position
  - vote: one row per student per position

# Relationships

	election 1──* election_position 1──* candidate
	account 1──* vote *──1 candidate

UNIQUE(student_id, position_id) on vote is the final guard against double
voting. IsUniqueViolation recognises that failure from either driver.

# Seeding

	seed, err := db.LoadSeed("seed.yaml")
	created, err := db.ApplySeed(ctx, conn, seed)
*/
package db
