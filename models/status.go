// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"fmt"
	"time"
)

// Vote actions offered for an election in a given status
const (
	ActionVote        = "vote"
	ActionDisabled    = "disabled"
	ActionViewResults = "view-results"
)

// DeriveStatus computes an election's status at now.
// Both window bounds are inclusive.
func DeriveStatus(now, start, end time.Time) string {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusCompleted
	default:
		return StatusActive
	}
}

// ActionFor maps an election status to what a student may do with it
func ActionFor(status string) string {
	switch status {
	case StatusActive:
		return ActionVote
	case StatusCompleted:
		return ActionViewResults
	default:
		return ActionDisabled
	}
}

// TimeRemaining renders the time left until end as "2 days left" or
// "5 hours left", or "Ended" once end has passed.
func TimeRemaining(now, end time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "Ended"
	}

	days := int(diff / (24 * time.Hour))
	hours := int((diff % (24 * time.Hour)) / time.Hour)

	if days > 0 {
		return fmt.Sprintf("%d day%s left", days, plural(days))
	}
	return fmt.Sprintf("%d hour%s left", hours, plural(hours))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
