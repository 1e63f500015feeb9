// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command campusvote is a terminal client for the campus vote API.
//
//	campusvote login jane@uni.edu
//	campusvote otp 123456
//	campusvote elections
//	campusvote vote <positionId> <candidateId>
//
// The session is kept in a file between runs. Every command names the page
// of the web client it stands in for, and the same route guard decides
// whether it may run for the signed-in role.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danielhkuo/campus-vote/client"
	"github.com/danielhkuo/campus-vote/cliparse"
	"github.com/danielhkuo/campus-vote/guard"
)

const defaultAPI = "http://localhost:3318"

type app struct {
	client *client.Client
	in     *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

type command struct {
	usage string
	about string
	// route is the web client page this command stands in for
	route func(args []string) string
	run   func(ctx context.Context, a *app, args []string) error
}

func fixed(route string) func([]string) string {
	return func([]string) string { return route }
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	fs := flag.NewFlagSet("campusvote", flag.ContinueOnError)
	fs.SetOutput(stderr)
	api := fs.String("api", envOr("CAMPUSVOTE_API", defaultAPI), "API base URL")
	sessionPath := fs.String("session", defaultSessionPath(), "Session file")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr, fs)
		return 2
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr, fs)
		return 2
	}

	a := &app{
		client: client.New(*api, client.WithSessionStore(client.NewFileSessionStore(*sessionPath))),
		in:     bufio.NewReader(stdin),
		out:    stdout,
		now:    time.Now,
	}
	if err := a.client.Init(ctx); err != nil {
		fmt.Fprintf(stderr, "warning: could not restore session: %v\n", err)
	}

	s := a.client.Session()
	route := cmd.route(rest)
	switch d := guard.Decide(route, s.State() == client.Authenticated, s.Role()); d {
	case guard.Render:
	case guard.RedirectLogin:
		fmt.Fprintln(stderr, "Not signed in. Run: campusvote login <email>")
		return 1
	case guard.RedirectStudent:
		if publicRoute(route) {
			fmt.Fprintf(stderr, "Already signed in as %s. Run campusvote logout first.\n", s.User.Email)
		} else {
			fmt.Fprintln(stderr, "That command needs an admin account.")
		}
		return 1
	case guard.RedirectAdmin:
		if publicRoute(route) {
			fmt.Fprintf(stderr, "Already signed in as %s. Run campusvote logout first.\n", s.User.Email)
		} else {
			fmt.Fprintln(stderr, "That command is for students; admins cannot vote.")
		}
		return 1
	}

	if err := cmd.run(ctx, a, rest); err != nil {
		fmt.Fprintln(stderr, explain(err))
		return 1
	}
	return 0
}

func publicRoute(route string) bool {
	return route == "/" || route == "/otp"
}

// explain turns a client error into a line for the terminal
func explain(err error) string {
	var verr *client.ValidationError
	var apiErr *client.APIError

	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, client.ErrDuplicateVote), errors.Is(err, client.ErrAlreadyVoted):
		return "You have already voted for this position. Your earlier vote stands."
	case errors.Is(err, client.ErrNoPendingEmail):
		return "No code requested yet. Run: campusvote login <email>"
	case errors.Is(err, client.ErrRateLimited):
		return "Too many attempts. Wait a minute and try again."
	case errors.Is(err, client.ErrAuth) && errors.As(err, &apiErr) && apiErr.Message != "Authentication required":
		return apiErr.Message
	case errors.Is(err, client.ErrAuth):
		return "Session expired. Run: campusvote login <email>"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return err.Error()
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: campusvote [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-44s %s\n", commands[name].usage, commands[name].about)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.PrintDefaults()
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "campusvote", "session.json")
}
