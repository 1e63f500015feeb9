// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

LoadEnvFile reads an optional .env file, then ParseFlags returns a Config:

	_ = cliparse.LoadEnvFile(".env")
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type (sqlite or postgres)
	--jwt-secret  Token signing secret
	--seed        YAML seed file

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p (default 3318)
	DATABASE_URL  → -d (required)
	DATABASE_TYPE → -t (default sqlite)
	JWT_SECRET    → --jwt-secret (required)
	SEED_FILE     → --seed

Environment only:

	TOKEN_TTL, OTP_TTL, OTP_RATE_PER_MINUTE
	REDIS_URL                       Redis OTP store
	SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASSWORD, SMTP_FROM
	UPLOAD_DIR, PUBLIC_URL          local image storage
	S3_BUCKET, S3_REGION, S3_ENDPOINT
	ALLOWED_ORIGIN                  CORS origin

CLI flags take precedence over environment variables.
*/
package cliparse
