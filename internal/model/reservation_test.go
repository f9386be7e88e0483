package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want ReservationStatus
		ok   bool
	}{
		{in: "PLANNING", want: StatusPlanning, ok: true},
		{in: "planning", want: StatusPlanning, ok: true},
		{in: " Seated ", want: StatusSeated, ok: true},
		{in: "CANCELLED", want: StatusCancelled, ok: true},
		{in: "canceled", want: StatusCancelled, ok: true},
		{in: "done", want: StatusDone, ok: true},
		{in: "confirmed", want: StatusConfirmed, ok: true},
		{in: "NO_SHOW", ok: false},
		{in: "", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseStatus(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPlanning.Terminal())
	assert.False(t, StatusConfirmed.Terminal())
	assert.False(t, StatusSeated.Terminal())
}

func TestReservationValid(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	ok := Reservation{ID: "r1", StartTime: start, EndTime: start.Add(time.Hour)}
	assert.True(t, ok.Valid())

	assert.False(t, Reservation{StartTime: start, EndTime: start.Add(time.Hour)}.Valid(), "missing id")
	assert.False(t, Reservation{ID: "r1", EndTime: start}.Valid(), "zero start")
	assert.False(t, Reservation{ID: "r1", StartTime: start, EndTime: start}.Valid(), "empty interval")
	assert.False(t, Reservation{ID: "r1", StartTime: start.Add(time.Hour), EndTime: start}.Valid(), "inverted interval")
}
