// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailerSend(t *testing.T) {
	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)

	m := NewSMTPMailer(SMTPConfig{
		Host:     "smtp.uni.edu",
		Port:     587,
		User:     "mailer",
		Password: "secret",
		From:     "elections@uni.edu",
	})
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), "jane@uni.edu", "Your login code", "Code: 123456\nExpires in 5 minutes")
	require.NoError(t, err)

	assert.Equal(t, "smtp.uni.edu:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "elections@uni.edu", gotFrom)
	assert.Equal(t, []string{"jane@uni.edu"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Your login code\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\nCode: 123456\r\nExpires in 5 minutes")
}

func TestSMTPMailerNoAuth(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25, From: "noreply@uni.edu"})

	called := false
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		called = true
		assert.Nil(t, a)
		return nil
	}

	require.NoError(t, m.Send(context.Background(), "a@uni.edu", "s", "b"))
	assert.True(t, called)
}

func TestSMTPMailerErrors(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 25, From: "noreply@uni.edu"})
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := m.Send(context.Background(), "a@uni.edu", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "a@uni.edu", "s", "b"), context.Canceled)
}

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	msg := string(buildMessage("a@uni.edu", "b@uni.edu", "hi\r\nBcc: evil@x.com", "body", time.Unix(0, 0)))

	headers := msg[:strings.Index(msg, "\r\n\r\n")]
	for _, line := range strings.Split(headers, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), "injected header: %q", line)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, "a@uni.edu", "first", "1"))
	require.NoError(t, r.Send(ctx, "b@uni.edu", "other", "2"))
	require.NoError(t, r.Send(ctx, "a@uni.edu", "second", "3"))

	last, ok := r.Last("a@uni.edu")
	require.True(t, ok)
	assert.Equal(t, "second", last.Subject)
	assert.Equal(t, 3, r.Count())

	_, ok = r.Last("nobody@uni.edu")
	assert.False(t, ok)

	r.Err = errors.New("down")
	assert.Error(t, r.Send(ctx, "a@uni.edu", "x", "y"))
	assert.Equal(t, 3, r.Count())
}

func TestLogMailer(t *testing.T) {
	assert.NoError(t, LogMailer{}.Send(context.Background(), "a@uni.edu", "s", "b"))
}
