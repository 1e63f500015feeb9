// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"database/sql"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/danielhkuo/campus-vote/auth"
)

// BearerToken returns the token from an "Authorization: Bearer ..." header
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticator validates bearer tokens and rejects revoked ones.
type Authenticator struct {
	db     *sql.DB
	tokens *auth.TokenManager
}

func NewAuthenticator(db *sql.DB, tokens *auth.TokenManager) *Authenticator {
	return &Authenticator{db: db, tokens: tokens}
}

// Principal resolves the caller of r, or returns an error suitable for a 401.
func (a *Authenticator) Principal(r *http.Request) (auth.Principal, error) {
	token, ok := BearerToken(r)
	if !ok {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return auth.Principal{}, err
	}

	var revoked bool
	err = a.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM revoked_token WHERE jti = $1)
	`, claims.ID).Scan(&revoked)
	if err != nil {
		return auth.Principal{}, err
	}
	if revoked {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	return auth.PrincipalFromClaims(claims), nil
}

// Require admits authenticated callers holding one of roles. With no roles
// any authenticated caller is admitted.
func (a *Authenticator) Require(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := a.Principal(r)
		if err != nil {
			slog.Debug("authentication failed", "path", r.URL.Path, "error", err)
			ErrorResponse(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, p.Role) {
			ErrorResponse(w, http.StatusForbidden, "You do not have access to this resource")
			return
		}

		next(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	}
}
