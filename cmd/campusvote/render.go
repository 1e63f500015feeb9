// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/danielhkuo/campus-vote/models"
)

var (
	activeColor    = color.New(color.FgGreen, color.Bold)
	upcomingColor  = color.New(color.FgYellow)
	completedColor = color.New(color.FgHiBlack)
	winnerColor    = color.New(color.FgGreen, color.Bold)
)

func statusLabel(status string) string {
	switch status {
	case models.StatusActive:
		return activeColor.Sprint(status)
	case models.StatusUpcoming:
		return upcomingColor.Sprint(status)
	default:
		return completedColor.Sprint(status)
	}
}

// when describes an election window relative to now
func when(now, start, end time.Time) string {
	switch models.DeriveStatus(now, start, end) {
	case models.StatusUpcoming:
		return "opens " + humanize.RelTime(start, now, "ago", "from now")
	case models.StatusActive:
		return models.TimeRemaining(now, end)
	default:
		return "closed " + humanize.RelTime(end, now, "ago", "from now")
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func renderElections(w io.Writer, elections []models.Election, now time.Time) {
	if len(elections) == 0 {
		fmt.Fprintln(w, "No elections.")
		return
	}

	table := newTable(w, "ID", "Title", "Status", "When", "Action")
	for _, e := range elections {
		table.Append([]string{e.ID, e.Title, statusLabel(e.Status), when(now, e.StartDate, e.EndDate), models.ActionFor(e.Status)})
	}
	table.Render()
}

func renderPositions(w io.Writer, positions []models.Position) {
	if len(positions) == 0 {
		fmt.Fprintln(w, "No positions.")
		return
	}

	table := newTable(w, "ID", "Position", "Election", "Status")
	for _, p := range positions {
		election, status := p.ElectionID, ""
		if p.Election != nil {
			election, status = p.Election.Title, statusLabel(p.Election.Status)
		}
		table.Append([]string{p.ID, p.Title, election, status})
	}
	table.Render()
}

func renderPositionDetail(w io.Writer, p models.PositionDetail, now time.Time) {
	fmt.Fprintf(w, "%s [%s] %s\n", p.Title, statusLabel(p.Status), when(now, p.StartDate, p.EndDate))
	if p.Description != "" {
		fmt.Fprintln(w, p.Description)
	}

	if len(p.Candidates) == 0 {
		fmt.Fprintln(w, "No candidates yet.")
		return
	}

	table := newTable(w, "ID", "Candidate", "Manifesto", "")
	for _, c := range p.Candidates {
		mark := ""
		if p.VotedCandidate != nil && *p.VotedCandidate == c.ID {
			mark = winnerColor.Sprint("your vote")
		}
		table.Append([]string{c.ID, c.Name, c.Manifesto, mark})
	}
	table.Render()

	if !p.HasVoted && models.ActionFor(p.Status) == models.ActionVote {
		fmt.Fprintf(w, "Run: campusvote vote %s <candidateId>\n", p.ID)
	}
}

func renderHistory(w io.Writer, entries []models.PositionVoted) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No positions.")
		return
	}

	table := newTable(w, "Position", "Title", "Voted", "Candidate")
	for _, e := range entries {
		voted, candidate := "no", ""
		if e.HasVoted {
			voted = "yes"
		}
		if e.VotedCandidate != nil {
			candidate = *e.VotedCandidate
		}
		table.Append([]string{e.ID, e.Title, voted, candidate})
	}
	table.Render()
}

func renderResults(w io.Writer, r models.PositionResult) {
	fmt.Fprintf(w, "%s [%s]\n", r.PositionTitle, statusLabel(r.Status))
	fmt.Fprintf(w, "%s of %s students voted (%d%%)\n",
		humanize.Comma(int64(r.TotalVotesCast)), humanize.Comma(int64(r.TotalVoters)), r.ParticipationRate)

	if len(r.Candidates) == 0 {
		fmt.Fprintln(w, "No candidates.")
		return
	}

	table := newTable(w, "#", "Candidate", "Votes", "Share")
	for i, c := range r.Candidates {
		name := c.Name
		if i == 0 && c.Votes > 0 {
			name = winnerColor.Sprint(name)
		}
		table.Append([]string{strconv.Itoa(i + 1), name, humanize.Comma(int64(c.Votes)), strconv.Itoa(c.Percentage) + "%"})
	}
	table.Render()

	if r.WinnerTie {
		fmt.Fprintln(w, "The lead is tied.")
	}
}

func renderUsers(w io.Writer, users []models.Account, now time.Time) {
	table := newTable(w, "ID", "Name", "Email", "Role", "Matric", "Joined")
	for _, u := range users {
		matric := ""
		if u.MatricNumber != nil {
			matric = *u.MatricNumber
		}
		table.Append([]string{u.ID, u.FullName, u.Email, u.Role, matric, humanize.RelTime(u.CreatedAt, now, "ago", "from now")})
	}
	table.Render()
}

func renderVotes(w io.Writer, votes []models.VoteRecord, now time.Time) {
	if len(votes) == 0 {
		fmt.Fprintln(w, "No votes cast.")
		return
	}

	table := newTable(w, "Student", "Candidate", "Position", "Cast")
	for _, v := range votes {
		table.Append([]string{v.StudentID, v.Candidate.Name, v.PositionID, humanize.RelTime(v.CreatedAt, now, "ago", "from now")})
	}
	table.Render()
}
