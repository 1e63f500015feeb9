// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the campus vote API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, router.Services{Media: store})

Services carries the swappable backends: the OTP store (SQL table or Redis),
the mailer (log or SMTP) and the image store (disk or S3).

# Endpoints

Health:

	GET /health

Authentication (public, rate limited by IP and email):

	POST /api/auth/request-otp - Mail a login code
	POST /api/auth/verify-otp  - Exchange the code for a bearer token
	GET  /api/auth/check-auth  - Validate the bearer token
	POST /api/auth/logout      - Revoke the bearer token
	POST /api/auth/register    - Register a student (admin)

Catalog (authenticated; create routes are admin only):

	GET|POST /api/election/get          - List elections
	POST     /api/election/create       - Create election
	GET|POST /api/position/get          - List positions
	POST     /api/position/create       - Create position
	GET      /api/position/{id}         - Position with the caller's vote
	GET|POST /api/candidate/allCandidate - List candidates
	POST     /api/candidate/create      - Register candidate
	POST     /api/candidate/uploadImage - Upload candidate image

Voting:

	POST /api/vote/cast                   - Cast a vote (student)
	GET  /api/vote/getVoteByStudent/{id}  - A student's votes (self or admin)
	GET  /api/vote/all                    - Every vote (admin)

Users and results:

	GET /api/user/all                - List accounts (admin)
	GET /api/results/{positionId}    - Tally for one position

When images are stored on disk they are served under GET /uploads/.
*/
package router
