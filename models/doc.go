// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

JSON field names follow the web client: camelCase, with entity ids
serialised as "_id".

# Domain Types

  - Account: student or admin identity
  - Election: voting window; Status is derived, never stored
  - Position: office within one election
  - Candidate: contender for one position
  - Vote: one student's choice for one position
  - PositionResult, CandidateResult: tallies for a position

# Derived Status

Every consumer computes election status through one function:

	status := models.DeriveStatus(time.Now(), e.StartDate, e.EndDate)
	action := models.ActionFor(status) // vote, disabled, view-results

# Validation

	models.ValidateMatricNumber("MED1907564") // nil
	models.ValidateEmail(models.NormalizeEmail(input))
	start, err := models.ParseDate("2025-08-15T22:01")

# Constants

Roles:

	RoleStudent = "student"
	RoleAdmin   = "admin"

Status values:

	StatusUpcoming  = "upcoming"
	StatusActive    = "active"
	StatusCompleted = "completed"
*/
package models
