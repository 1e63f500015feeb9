package models

import (
	"testing"
	"time"
)

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 15, 22, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before start", start.Add(-time.Second), StatusUpcoming},
		{"at start", start, StatusActive},
		{"midway", start.Add(72 * time.Hour), StatusActive},
		{"at end", end, StatusActive},
		{"after end", end.Add(time.Second), StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.now, start, end); got != tt.want {
				t.Errorf("DeriveStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestActionFor(t *testing.T) {
	now := time.Now()

	// Future start: voting disabled
	upcoming := DeriveStatus(now, now.Add(time.Hour), now.Add(2*time.Hour))
	if upcoming != StatusUpcoming || ActionFor(upcoming) != ActionDisabled {
		t.Errorf("future election: status %s action %s", upcoming, ActionFor(upcoming))
	}

	// Past end: results only
	completed := DeriveStatus(now, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if completed != StatusCompleted || ActionFor(completed) != ActionViewResults {
		t.Errorf("past election: status %s action %s", completed, ActionFor(completed))
	}

	if ActionFor(StatusActive) != ActionVote {
		t.Errorf("active election should allow voting")
	}
}

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		end  time.Time
		want string
	}{
		{now.Add(-time.Minute), "Ended"},
		{now, "Ended"},
		{now.Add(90 * time.Minute), "1 hour left"},
		{now.Add(5 * time.Hour), "5 hours left"},
		{now.Add(25 * time.Hour), "1 day left"},
		{now.Add(50 * time.Hour), "2 days left"},
	}

	for _, tt := range tests {
		if got := TimeRemaining(now, tt.end); got != tt.want {
			t.Errorf("TimeRemaining(%s) = %q, want %q", tt.end.Sub(now), got, tt.want)
		}
	}
}

func TestValidateMatricNumber(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"MED1907564", true},
		{"med1907564", true},
		{"ME1907564", false},   // 2 letters
		{"MED190756", false},   // 6 digits
		{"MED19075640", false}, // 8 digits
		{"MEDI907564", false},
		{"", false},
		{" MED1907564", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateMatricNumber(tt.in)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateMatricNumber(%q) error = %v, valid %v", tt.in, err, tt.valid)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"jane@uni.edu", "a.b+c@example.org"}
	invalid := []string{"", "jane", "Jane <jane@uni.edu>", "@", "jane@"}

	for _, s := range valid {
		if err := ValidateEmail(s); err != nil {
			t.Errorf("ValidateEmail(%q) unexpected error %v", s, err)
		}
	}
	for _, s := range invalid {
		if err := ValidateEmail(s); err == nil {
			t.Errorf("ValidateEmail(%q) expected error", s)
		}
	}

	if got := NormalizeEmail("  Jane@Uni.EDU "); got != "jane@uni.edu" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 8, 15, 22, 1, 0, 0, time.UTC)

	for _, in := range []string{"2025-08-15T22:01", "2025-08-15T22:01:00", "2025-08-15T22:01:00Z", "2025-08-16T00:01:00+02:00"} {
		got, err := ParseDate(in)
		if err != nil {
			t.Errorf("ParseDate(%q) error = %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseDate("next tuesday"); err == nil {
		t.Error("expected error for unparseable date")
	}
}
