// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package tally turns per-candidate vote counts into ranked results.
package tally

import (
	"math"
	"sort"

	"github.com/danielhkuo/campus-vote/models"
)

// Count is one candidate's raw tally. Counts are passed in registration order.
type Count struct {
	CandidateID string
	Name        string
	Image       string
	Votes       int
}

// Summary is the computed outcome for one position.
type Summary struct {
	TotalVotesCast    int
	ParticipationRate int
	WinnerTie         bool
	Candidates        []models.CandidateResult
}

// Compute ranks candidates by votes, keeping registration order among equal
// counts. Percentages and participation round half up; both are 0 when
// their denominator is 0.
func Compute(counts []Count, totalVoters int) Summary {
	total := 0
	for _, c := range counts {
		total += c.Votes
	}

	results := make([]models.CandidateResult, len(counts))
	for i, c := range counts {
		results[i] = models.CandidateResult{
			ID:         c.CandidateID,
			Name:       c.Name,
			Image:      c.Image,
			Votes:      c.Votes,
			Percentage: percent(c.Votes, total),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})

	return Summary{
		TotalVotesCast:    total,
		ParticipationRate: percent(total, totalVoters),
		WinnerTie:         len(results) > 1 && results[0].Votes > 0 && results[0].Votes == results[1].Votes,
		Candidates:        results,
	}
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
