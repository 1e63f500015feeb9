// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the campus vote API server.

Campus vote runs student elections: admins register students and set up
elections, positions and candidates; students log in with a one-time code
sent to their email and cast one vote per position while the election is
open; results are tallied per position.

# Starting the Server

The server reads a .env file if present, then environment variables or CLI flags:

	DATABASE_URL=file:campus-vote.db JWT_SECRET=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." --jwt-secret ...

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file URL or PostgreSQL connection string
  - JWT_SECRET (--jwt-secret): Secret for signing bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - TOKEN_TTL, OTP_TTL, OTP_RATE_PER_MINUTE: session and login code limits
  - REDIS_URL: keep login codes in Redis instead of the database
  - SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM: mail codes over
    SMTP; without SMTP_HOST codes are written to the log
  - UPLOAD_DIR, PUBLIC_URL: local image storage and the URL it is served from
  - S3_BUCKET, S3_REGION, S3_ENDPOINT: store images in S3 instead
  - SEED_FILE (--seed): YAML file of accounts to create at startup
  - ALLOWED_ORIGIN: CORS origin (default: echo the request origin)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (auth, catalog, votes, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Authentication, rate limiting, CORS, logging, JSON helpers
  - ledger: Vote casting and vote queries
  - otp: Login code issue and verification
  - tally: Result computation
  - models: Request/response types, status derivation, validation
  - auth: Tokens, OTP hashing, request principal
  - db: Connection, schema and seeding
  - mailer, media, metrics: Pluggable mail, image storage and counters
  - cliparse: Configuration parsing

The client package and cmd/campusvote provide a Go client and terminal client.

See package documentation for each component.
*/
package main
