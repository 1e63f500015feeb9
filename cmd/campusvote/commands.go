// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/danielhkuo/campus-vote/client"
	"github.com/danielhkuo/campus-vote/models"
)

var errUsage = errors.New("wrong arguments")

func wantArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("%w: usage: campusvote %s", errUsage, usage)
	}
	return nil
}

var commands = map[string]command{
	"login": {
		usage: "login <email>",
		about: "Mail a login code",
		route: fixed("/"),
		run:   runLogin,
	},
	"otp": {
		usage: "otp [code]",
		about: "Enter the mailed code (prompts when omitted)",
		route: fixed("/otp"),
		run:   runOTP,
	},
	"logout": {
		usage: "logout",
		about: "Sign out and forget the session",
		route: fixed(""),
		run: func(ctx context.Context, a *app, args []string) error {
			if err := a.client.Logout(ctx); err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintln(a.out, "Signed out.")
			return nil
		},
	},
	"whoami": {
		usage: "whoami",
		about: "Show the signed-in account",
		route: fixed(""),
		run:   runWhoami,
	},
	"elections": {
		usage: "elections [-past]",
		about: "List elections with their status",
		route: func(args []string) string {
			for _, a := range args {
				if strings.TrimLeft(a, "-") == "past" {
					return "/elections/past"
				}
			}
			return "/elections/active"
		},
		run: runElections,
	},
	"positions": {
		usage: "positions",
		about: "List positions across elections",
		route: fixed("/elections/active"),
		run:   runPositions,
	},
	"position": {
		usage: "position <positionId>",
		about: "Show candidates and your vote",
		route: func(args []string) string { return "/student/positions/" + first(args) },
		run:   runPosition,
	},
	"vote": {
		usage: "vote <positionId> <candidateId>",
		about: "Cast your vote for a position",
		route: fixed("/student/vote"),
		run:   runVote,
	},
	"history": {
		usage: "history",
		about: "Positions you have and have not voted for",
		route: fixed("/student/dashboard"),
		run:   runHistory,
	},
	"results": {
		usage: "results <positionId>",
		about: "Show the tally for a position",
		route: fixed("/elections/past"),
		run:   runResults,
	},
	"users": {
		usage: "users",
		about: "List accounts (admin)",
		route: fixed("/admin/users"),
		run:   runUsers,
	},
	"votes": {
		usage: "votes",
		about: "List every vote cast (admin)",
		route: fixed("/admin/dashboard"),
		run:   runVotes,
	},
	"register": {
		usage: "register <fullName> <matricNumber> <email>",
		about: "Register a student (admin)",
		route: fixed("/admin/users"),
		run:   runRegister,
	},
	"create-election": {
		usage: "create-election -title T -start S -end E [-position P]...",
		about: "Create an election (admin)",
		route: fixed("/admin/create-election"),
		run:   runCreateElection,
	},
	"add-position": {
		usage: "add-position <electionId> <title>",
		about: "Add a position to an election (admin)",
		route: fixed("/admin/create-election"),
		run:   runAddPosition,
	},
	"add-candidate": {
		usage: "add-candidate -election E -position P -name N [-image FILE]",
		about: "Register a candidate (admin)",
		route: fixed("/admin/register-candidate"),
		run:   runAddCandidate,
	},
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func runLogin(ctx context.Context, a *app, args []string) error {
	if err := wantArgs(args, 1, "login <email>"); err != nil {
		return err
	}
	if err := a.client.RequestOTP(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "A login code was sent to %s. Run: campusvote otp <code>\n", a.client.Session().PendingEmail)
	return nil
}

func runOTP(ctx context.Context, a *app, args []string) error {
	if a.client.Session().State() != client.OTPRequested {
		return client.ErrNoPendingEmail
	}

	code := first(args)
	if code == "" {
		fmt.Fprint(a.out, "Code: ")
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		code = strings.TrimSpace(line)
	}

	user, err := a.client.VerifyOTP(ctx, code)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "Signed in as %s (%s).\n", user.FullName, user.Role)
	return nil
}

func runWhoami(ctx context.Context, a *app, args []string) error {
	s := a.client.Session()
	switch s.State() {
	case client.Authenticated:
		fmt.Fprintf(a.out, "%s <%s> %s\n", s.User.FullName, s.User.Email, s.User.Role)
	case client.OTPRequested:
		fmt.Fprintf(a.out, "Waiting for the code sent to %s\n", s.PendingEmail)
	default:
		fmt.Fprintln(a.out, "Not signed in")
	}
	return nil
}

func runElections(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("elections", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	past := fs.Bool("past", false, "Only completed elections")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	elections, err := a.client.Elections(ctx)
	if err != nil {
		return err
	}

	var shown []models.Election
	for _, e := range elections {
		if *past == (e.Status == models.StatusCompleted) {
			shown = append(shown, e)
		}
	}
	renderElections(a.out, shown, a.now())
	return nil
}

func runPositions(ctx context.Context, a *app, args []string) error {
	positions, err := a.client.Positions(ctx)
	if err != nil {
		return err
	}
	renderPositions(a.out, positions)
	return nil
}

func runPosition(ctx context.Context, a *app, args []string) error {
	if err := wantArgs(args, 1, "position <positionId>"); err != nil {
		return err
	}
	detail, err := a.client.Position(ctx, args[0], "")
	if err != nil {
		return err
	}
	renderPositionDetail(a.out, detail, a.now())
	return nil
}

func runVote(ctx context.Context, a *app, args []string) error {
	if err := wantArgs(args, 2, "vote <positionId> <candidateId>"); err != nil {
		return err
	}
	positionID, candidateID := args[0], args[1]

	detail, err := a.client.Position(ctx, positionID, "")
	if err != nil {
		return err
	}
	if action := models.ActionFor(detail.Status); action != models.ActionVote {
		return fmt.Errorf("voting for %s is closed (%s)", detail.Title, detail.Status)
	}

	var name string
	for _, c := range detail.Candidates {
		if c.ID == candidateID {
			name = c.Name
		}
	}
	if name == "" {
		return fmt.Errorf("%s is not a candidate for %s", candidateID, detail.Title)
	}

	if _, err := a.client.CastVote(ctx, candidateID, positionID, detail.ElectionID); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "Vote cast for %s as %s.\n", name, detail.Title)
	return nil
}

func runHistory(ctx context.Context, a *app, args []string) error {
	s := a.client.Session()
	entries, err := a.client.VotesByStudent(ctx, s.User.ID)
	if err != nil {
		return err
	}
	renderHistory(a.out, entries)
	return nil
}

func runResults(ctx context.Context, a *app, args []string) error {
	if err := wantArgs(args, 1, "results <positionId>"); err != nil {
		return err
	}
	result, err := a.client.Results(ctx, args[0])
	if err != nil {
		return err
	}
	renderResults(a.out, result)
	return nil
}

func runUsers(ctx context.Context, a *app, args []string) error {
	users, err := a.client.Users(ctx)
	if err != nil {
		return err
	}
	renderUsers(a.out, users, a.now())
	return nil
}

func runVotes(ctx context.Context, a *app, args []string) error {
	votes, err := a.client.AllVotes(ctx)
	if err != nil {
		return err
	}
	renderVotes(a.out, votes, a.now())
	return nil
}

func runRegister(ctx context.Context, a *app, args []string) error {
	if err := wantArgs(args, 3, "register <fullName> <matricNumber> <email>"); err != nil {
		return err
	}
	user, err := a.client.Register(ctx, models.RegisterRequest{
		FullName:     args[0],
		MatricNumber: args[1],
		Email:        args[2],
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s) as %s\n", user.FullName, args[1], user.ID)
	return nil
}

// stringList collects a repeated flag
type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func runCreateElection(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create-election", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "Election title")
	desc := fs.String("description", "", "Description")
	start := fs.String("start", "", "Start, RFC 3339 or YYYY-MM-DDTHH:MM (UTC)")
	end := fs.String("end", "", "End, RFC 3339 or YYYY-MM-DDTHH:MM (UTC)")
	var positions stringList
	fs.Var(&positions, "position", "Position title (repeatable)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	resp, err := a.client.CreateElection(ctx, models.CreateElectionRequest{
		Title:       *title,
		Description: *desc,
		StartDate:   *start,
		EndDate:     *end,
		Positions:   positions,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created election %s (%s), %s\n", resp.Election.Title, resp.Election.ID, resp.Election.Status)
	for _, p := range resp.Positions {
		fmt.Fprintf(a.out, "  position %s (%s)\n", p.Title, p.ID)
	}
	return nil
}

func runAddPosition(ctx context.Context, a *app, args []string) error {
	if err := wantArgs(args, 2, "add-position <electionId> <title>"); err != nil {
		return err
	}
	p, err := a.client.CreatePosition(ctx, models.CreatePositionRequest{ElectionID: args[0], Title: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added position %s (%s)\n", p.Title, p.ID)
	return nil
}

func runAddCandidate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("add-candidate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	electionID := fs.String("election", "", "Election ID")
	positionID := fs.String("position", "", "Position ID")
	name := fs.String("name", "", "Candidate name")
	manifesto := fs.String("manifesto", "", "Manifesto")
	image := fs.String("image", "", "Image file to upload")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	req := models.CreateCandidateRequest{
		Name:       *name,
		Manifesto:  *manifesto,
		ElectionID: *electionID,
		PositionID: *positionID,
	}

	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return err
		}
		defer f.Close()

		req.Image, err = a.client.UploadImage(ctx, filepath.Base(*image), f)
		if err != nil {
			return err
		}
	}

	c, err := a.client.CreateCandidate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered candidate %s (%s)\n", c.Name, c.ID)
	return nil
}
