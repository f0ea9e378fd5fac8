package models

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse time %q: %v", value, err)
	}
	return parsed
}

func TestIntervalsOverlap(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		e1   string
		s2   string
		e2   string
		want bool
	}{
		{
			name: "partial overlap",
			s1:   "2025-03-01T10:00:00Z", e1: "2025-03-01T11:00:00Z",
			s2: "2025-03-01T10:30:00Z", e2: "2025-03-01T11:30:00Z",
			want: true,
		},
		{
			name: "touching boundaries do not overlap",
			s1:   "2025-03-01T10:00:00Z", e1: "2025-03-01T11:00:00Z",
			s2: "2025-03-01T11:00:00Z", e2: "2025-03-01T12:00:00Z",
			want: false,
		},
		{
			name: "second ends where first starts",
			s1:   "2025-03-01T11:00:00Z", e1: "2025-03-01T12:00:00Z",
			s2: "2025-03-01T10:00:00Z", e2: "2025-03-01T11:00:00Z",
			want: false,
		},
		{
			name: "contained interval",
			s1:   "2025-03-01T09:00:00Z", e1: "2025-03-01T17:00:00Z",
			s2: "2025-03-01T10:00:00Z", e2: "2025-03-01T11:00:00Z",
			want: true,
		},
		{
			name: "identical intervals",
			s1:   "2025-03-01T10:00:00Z", e1: "2025-03-01T11:00:00Z",
			s2: "2025-03-01T10:00:00Z", e2: "2025-03-01T11:00:00Z",
			want: true,
		},
		{
			name: "disjoint intervals",
			s1:   "2025-03-01T08:00:00Z", e1: "2025-03-01T09:00:00Z",
			s2: "2025-03-01T10:00:00Z", e2: "2025-03-01T11:00:00Z",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s1, e1 := mustTime(t, tt.s1), mustTime(t, tt.e1)
			s2, e2 := mustTime(t, tt.s2), mustTime(t, tt.e2)

			if got := IntervalsOverlap(s1, e1, s2, e2); got != tt.want {
				t.Errorf("IntervalsOverlap(%s) = %v, want %v", tt.name, got, tt.want)
			}
			// The predicate is symmetric
			if got := IntervalsOverlap(s2, e2, s1, e1); got != tt.want {
				t.Errorf("IntervalsOverlap reversed (%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestBookingOverlapsRange(t *testing.T) {
	booking := Booking{
		StartTime: mustTime(t, "2025-03-01T10:00:00Z"),
		EndTime:   mustTime(t, "2025-03-01T12:00:00Z"),
	}

	if !booking.OverlapsRange(mustTime(t, "2025-03-01T11:00:00Z"), mustTime(t, "2025-03-01T13:00:00Z")) {
		t.Error("expected overlap with partially intersecting range")
	}
	if booking.OverlapsRange(mustTime(t, "2025-03-01T12:00:00Z"), mustTime(t, "2025-03-01T13:00:00Z")) {
		t.Error("expected no overlap with range starting exactly at booking end")
	}
}

func TestBookingStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from BookingStatus
		to   BookingStatus
		want bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusPending, BookingStatusPending, false},
		{BookingStatusConfirmed, BookingStatusCompleted, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusPending, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusCompleted, BookingStatusConfirmed, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestBookingStatusIsTerminal(t *testing.T) {
	if BookingStatusPending.IsTerminal() || BookingStatusConfirmed.IsTerminal() {
		t.Error("pending and confirmed must not be terminal")
	}
	if !BookingStatusCancelled.IsTerminal() || !BookingStatusCompleted.IsTerminal() {
		t.Error("cancelled and completed must be terminal")
	}
}

func TestBookingIsActive(t *testing.T) {
	for _, status := range []BookingStatus{BookingStatusPending, BookingStatusConfirmed} {
		b := Booking{Status: status}
		if !b.IsActive() {
			t.Errorf("booking with status %s should be active", status)
		}
	}
	for _, status := range []BookingStatus{BookingStatusCancelled, BookingStatusCompleted} {
		b := Booking{Status: status}
		if b.IsActive() {
			t.Errorf("booking with status %s should not be active", status)
		}
	}
}
