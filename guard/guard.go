// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package guard decides whether a client may show a route or must be sent
// elsewhere, given who is signed in.
package guard

import "strings"

type Decision int

const (
	Render Decision = iota
	RedirectAdmin
	RedirectStudent
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case RedirectAdmin:
		return "redirect-admin"
	case RedirectStudent:
		return "redirect-student"
	case RedirectLogin:
		return "redirect-login"
	default:
		return "render"
	}
}

// Target is the path to redirect to, or "" for Render.
func (d Decision) Target() string {
	switch d {
	case RedirectAdmin:
		return "/admin"
	case RedirectStudent:
		return "/student"
	case RedirectLogin:
		return "/"
	default:
		return ""
	}
}

// Decide classifies path and applies the access rules. Protected areas are
// checked before public ones.
func Decide(path string, authenticated bool, role string) Decision {
	isAdmin := role == "admin"

	admin := inArea(path, "/admin")
	if admin || inArea(path, "/student") {
		switch {
		case !authenticated:
			return RedirectLogin
		case admin && !isAdmin:
			return RedirectStudent
		case !admin && isAdmin:
			return RedirectAdmin
		default:
			return Render
		}
	}

	if inArea(path, "/otp") {
		return Render
	}

	if path == "/" || inArea(path, "/login") || inArea(path, "/register") {
		if !authenticated {
			return Render
		}
		if isAdmin {
			return RedirectAdmin
		}
		return RedirectStudent
	}

	return Render
}

func inArea(path, area string) bool {
	return path == area || strings.HasPrefix(path, area+"/")
}
