// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, one-time codes and bearer tokens.

# IDs

Record ids are random UUIDs:

	id := auth.NewID()

# One-Time Codes

Codes are six random digits. Only the bcrypt hash is stored:

	code, err := auth.GenerateOTP()
	hash, err := auth.HashOTP(code)
	err = auth.CompareOTP(hash, submitted) // ErrCodeMismatch on failure

# Bearer Tokens

TokenManager signs HS256 JWTs carrying the account id (sub), role, email
and a unique token id (jti) used for revocation on logout:

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	token, claims, err := tm.Issue(account.ID, account.Role, account.Email)
	claims, err = tm.Parse(token) // wraps ErrInvalidToken

# Request Principal

Middleware stores the authenticated caller in the request context:

	ctx = auth.WithPrincipal(ctx, auth.PrincipalFromClaims(claims))
	p, err := auth.GetPrincipal(r.Context())
*/
package auth
