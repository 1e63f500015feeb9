// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the OpenTelemetry instruments recorded by the
// server. Instruments come from the global meter provider, so nothing is
// exported until main installs a real provider.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "campus-vote"

// Outcome labels
const (
	OutcomeAccepted  = "accepted"
	OutcomeDuplicate = "duplicate"
	OutcomeNotFound  = "not_found"
	OutcomeClosed    = "closed"
	OutcomeError     = "error"
)

type instruments struct {
	votes        metric.Int64Counter
	otpIssued    metric.Int64Counter
	otpVerified  metric.Int64Counter
	requestTimer metric.Float64Histogram
}

var (
	once sync.Once
	inst instruments
)

func get() *instruments {
	once.Do(func() {
		meter := otel.Meter(meterName)

		var err error
		inst.votes, err = meter.Int64Counter("campusvote.votes.total",
			metric.WithDescription("Vote cast attempts by outcome"),
			metric.WithUnit("{vote}"),
		)
		if err != nil {
			slog.Warn("failed to create vote counter", "error", err)
		}

		inst.otpIssued, err = meter.Int64Counter("campusvote.otp.issued",
			metric.WithDescription("One-time codes sent"),
			metric.WithUnit("{code}"),
		)
		if err != nil {
			slog.Warn("failed to create otp issued counter", "error", err)
		}

		inst.otpVerified, err = meter.Int64Counter("campusvote.otp.verified",
			metric.WithDescription("One-time code verification attempts by result"),
			metric.WithUnit("{attempt}"),
		)
		if err != nil {
			slog.Warn("failed to create otp verified counter", "error", err)
		}

		inst.requestTimer, err = meter.Float64Histogram("campusvote.http.duration",
			metric.WithDescription("HTTP request duration in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			slog.Warn("failed to create request histogram", "error", err)
		}
	})
	return &inst
}

// RecordVote counts a cast attempt for a position.
func RecordVote(ctx context.Context, positionID, outcome string) {
	if c := get().votes; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(
			attribute.String("position_id", positionID),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordOTPIssued(ctx context.Context) {
	if c := get().otpIssued; c != nil {
		c.Add(ctx, 1)
	}
}

func RecordOTPVerified(ctx context.Context, ok bool) {
	if c := get().otpVerified; c != nil {
		c.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
	}
}

// RecordRequest records the duration of one HTTP request.
func RecordRequest(ctx context.Context, method, route string, d time.Duration) {
	if h := get().requestTimer; h != nil {
		h.Record(ctx, d.Seconds(), metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		))
	}
}
