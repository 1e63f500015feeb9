// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms), and records the duration histogram.

# Authentication

Authenticator checks the bearer token, its signature and expiry, and that it
was not revoked by logout:

	authn := middleware.NewAuthenticator(db, tokens)
	mux.HandleFunc("GET /api/user/all", middleware.WithLogging(
		authn.Require(userHandler.All, models.RoleAdmin)))

Missing or invalid tokens get 401; a wrong role gets 403. Handlers read the
caller with auth.GetPrincipal.

# Rate Limiting

RateLimiter keeps a token bucket per key:

	limiter := middleware.NewRateLimiter(cfg.OTPRatePerMinute, 3)
	if !limiter.Allow("email:" + email) { ... }
	mux.HandleFunc("POST /api/auth/verify-otp", limiter.ByIP(handler))

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux, cfg.AllowedOrigin),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Errors are written as {"success":false,"error":"Bad Request","message":"..."}.

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
*/
package middleware
