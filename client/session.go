// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/danielhkuo/campus-vote/models"
)

// State is where a session sits in the login flow.
type State int

const (
	Unauthenticated State = iota
	OTPRequested
	Authenticated
)

func (s State) String() string {
	switch s {
	case OTPRequested:
		return "otp-requested"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is the client side of a login. Voted maps position id to the
// candidate this session voted for.
type Session struct {
	Token        string            `json:"token,omitempty"`
	User         *models.Account   `json:"user,omitempty"`
	PendingEmail string            `json:"pendingEmail,omitempty"`
	Voted        map[string]string `json:"voted,omitempty"`
}

func (s Session) State() State {
	switch {
	case s.Token != "" && s.User != nil:
		return Authenticated
	case s.PendingEmail != "":
		return OTPRequested
	default:
		return Unauthenticated
	}
}

// Role is the signed-in role, or "" when not authenticated.
func (s Session) Role() string {
	if s.State() != Authenticated {
		return ""
	}
	return s.User.Role
}

func (s Session) clone() Session {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Voted != nil {
		out.Voted = make(map[string]string, len(s.Voted))
		for k, v := range s.Voted {
			out.Voted[k] = v
		}
	}
	return out
}

// SessionStore persists a session between runs.
type SessionStore interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileSessionStore keeps the session as JSON in a file readable only by
// its owner. A missing file is an empty session.
type FileSessionStore struct {
	Path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{Path: path}
}

func (f *FileSessionStore) Load() (Session, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

func (f *FileSessionStore) Save(s Session) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (f *FileSessionStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// MemorySessionStore holds the session in memory.
type MemorySessionStore struct {
	mu      sync.Mutex
	session Session
}

func (m *MemorySessionStore) Load() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.clone(), nil
}

func (m *MemorySessionStore) Save(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = s.clone()
	return nil
}

func (m *MemorySessionStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
	return nil
}
