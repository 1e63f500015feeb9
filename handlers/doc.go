// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the campus vote API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - AuthHandler: OTP login, session check, logout and student registration
  - ElectionHandler: Election creation and listing
  - PositionHandler: Positions and the per-voter position view
  - CandidateHandler: Candidate registration, listing and image upload
  - VoteHandler: Casting votes and vote history
  - UserHandler: Account listing
  - ResultsHandler: Per-position tallies

Handlers are created via constructor functions that accept *sql.DB and Config,
plus whatever service they front:

	voteHandler := handlers.NewVoteHandler(db, cfg, ledger.New(db))

# Authentication

Apart from request-otp, verify-otp, check-auth and logout, every handler
expects the router to have run middleware.Authenticator.Require first, so the
caller is available through auth.GetPrincipal. Handlers still enforce
ownership themselves: a student may only vote as, or read the votes of,
themselves.

# Election Status

Status is never stored. It is derived on every read from the election's
start and end instants:

	now < start          → upcoming
	start <= now <= end  → active
	now > end            → completed

Votes are accepted only while active. Students see results only once
completed; admins see them at any time.

# Responses

Every response is a JSON envelope with a success flag. Errors carry the
HTTP status text and a human readable message:

	{"success": false, "error": "Conflict", "message": "You have already voted for this position"}
*/
package handlers
