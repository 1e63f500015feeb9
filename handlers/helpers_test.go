// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/campus-vote/auth"
	"github.com/danielhkuo/campus-vote/models"
	"github.com/danielhkuo/campus-vote/testutil"
)

// asAccount attaches the account as the request principal, as the
// authentication middleware would.
func asAccount(req *http.Request, acct models.Account) *http.Request {
	return req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{
		AccountID: acct.ID,
		Role:      acct.Role,
		Email:     acct.Email,
	}))
}

// request builds a JSON request made by acct
func request(method, path string, body interface{}, acct models.Account) *http.Request {
	return asAccount(testutil.MakeRequest(method, path, body, nil), acct)
}
