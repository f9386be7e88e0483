package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{name: "24h", in: "14:30", want: 14*60 + 30},
		{name: "24hWithSeconds", in: "14:30:00", want: 14*60 + 30},
		{name: "midnight", in: "00:00", want: 0},
		{name: "12hPM", in: "2:30 PM", want: 14*60 + 30},
		{name: "12hAM", in: "9:15 AM", want: 9*60 + 15},
		{name: "12hNoonPM", in: "12:00 PM", want: 12 * 60},
		{name: "12hMidnightAM", in: "12:00 AM", want: 0},
		{name: "lowercaseNoSpace", in: "7:05pm", want: 19*60 + 5},
		{name: "empty", in: "", wantErr: true},
		{name: "hourOutOfRange", in: "25:00", wantErr: true},
		{name: "minuteOutOfRange", in: "10:61", wantErr: true},
		{name: "meridiemHourZero", in: "0:30 PM", wantErr: true},
		{name: "garbage", in: "dinner", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "09:05", FormatClock(9*60+5))
	assert.Equal(t, "00:00", FormatClock(-10))
	assert.Equal(t, "23:59", FormatClock(MinutesPerDay+5))
}

func TestFormatClock12(t *testing.T) {
	assert.Equal(t, "12:00 AM", FormatClock12(0))
	assert.Equal(t, "12:30 PM", FormatClock12(12*60+30))
	assert.Equal(t, "7:05 PM", FormatClock12(19*60+5))
	assert.Equal(t, "11:59 AM", FormatClock12(11*60+59))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, raw := range []string{"00:00", "09:30", "18:45", "23:59"} {
		minute, err := ParseClock(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, FormatClock(minute))
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{name: "disjoint", aStart: 0, aEnd: 60, bStart: 120, bEnd: 180, want: false},
		{name: "touchingEndpoints", aStart: 0, aEnd: 60, bStart: 60, bEnd: 120, want: false},
		{name: "partialOverlap", aStart: 0, aEnd: 90, bStart: 60, bEnd: 120, want: true},
		{name: "contained", aStart: 0, aEnd: 180, bStart: 60, bEnd: 120, want: true},
		{name: "identical", aStart: 60, aEnd: 120, bStart: 60, bEnd: 120, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestServiceDate(t *testing.T) {
	// 23:30 UTC stays on the same service date no matter the viewer's zone.
	stamp := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-14", ServiceDate(stamp))

	eastern := time.FixedZone("UTC+3", 3*3600)
	assert.Equal(t, "2026-03-14", ServiceDate(stamp.In(eastern)))
	assert.True(t, SameServiceDate(stamp, stamp.In(eastern)))
}

func TestMinuteOfDay(t *testing.T) {
	stamp := time.Date(2026, 3, 14, 18, 45, 59, 0, time.UTC)
	assert.Equal(t, 18*60+45, MinuteOfDay(stamp))
}

func TestClockWindowMidnightSpan(t *testing.T) {
	start := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)
	s, e := clockWindow(start, end)
	assert.Equal(t, 23*60, s)
	assert.Equal(t, MinutesPerDay, e)
}
