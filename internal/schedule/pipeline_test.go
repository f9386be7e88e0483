package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

func dayReservation(id, date string, status model.ReservationStatus, startMin, endMin int) model.Reservation {
	day, err := time.ParseInLocation("2006-01-02", date, ServiceLocation)
	if err != nil {
		panic(err)
	}
	return model.Reservation{
		ID:        id,
		Guests:    2,
		Status:    status,
		StartTime: day.Add(time.Duration(startMin) * time.Minute),
		EndTime:   day.Add(time.Duration(endMin) * time.Minute),
	}
}

func intPtr(v int) *int { return &v }

func TestFilterAndSortDate(t *testing.T) {
	input := []model.Reservation{
		dayReservation("a", "2026-03-14", model.StatusPlanning, 18*60, 19*60),
		dayReservation("b", "2026-03-15", model.StatusPlanning, 18*60, 19*60),
	}
	out := FilterAndSort(input, Query{Date: "2026-03-14"})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestFilterAndSortTimeWindowOverlap(t *testing.T) {
	input := []model.Reservation{
		dayReservation("early", "2026-03-14", model.StatusPlanning, 10*60, 11*60),
		dayReservation("spansStart", "2026-03-14", model.StatusPlanning, 17*60+30, 18*60+30),
		dayReservation("inside", "2026-03-14", model.StatusPlanning, 18*60, 19*60),
		dayReservation("touchesEnd", "2026-03-14", model.StatusPlanning, 20*60, 21*60),
	}
	// Overlap, not containment: a booking poking into the window matches.
	out := FilterAndSort(input, Query{StartMinute: intPtr(18 * 60), EndMinute: intPtr(20 * 60)})
	require.Len(t, out, 2)
	assert.Equal(t, "spansStart", out[0].ID)
	assert.Equal(t, "inside", out[1].ID)
}

func TestFilterAndSortStatus(t *testing.T) {
	input := []model.Reservation{
		dayReservation("a", "2026-03-14", model.StatusSeated, 18*60, 19*60),
		dayReservation("b", "2026-03-14", model.StatusPlanning, 18*60, 19*60),
	}
	out := FilterAndSort(input, Query{Status: "seated"})
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)

	// Unknown status matches nothing rather than everything.
	assert.Empty(t, FilterAndSort(input, Query{Status: "WAITLISTED"}))
}

func TestFilterAndSortDateAndStatusCompose(t *testing.T) {
	// Ten reservations, five on the queried date, three of those in
	// planning; filtering by date and status together returns exactly
	// the intersection, in chronological order.
	input := []model.Reservation{
		dayReservation("d1-plan-late", "2026-03-01", model.StatusPlanning, 20*60, 21*60),
		dayReservation("d1-seated", "2026-03-01", model.StatusSeated, 12*60, 13*60),
		dayReservation("d2-plan-a", "2026-03-02", model.StatusPlanning, 12*60, 13*60),
		dayReservation("d1-plan-early", "2026-03-01", model.StatusPlanning, 11*60, 12*60),
		dayReservation("d2-seated", "2026-03-02", model.StatusSeated, 18*60, 19*60),
		dayReservation("d1-done", "2026-03-01", model.StatusDone, 10*60, 11*60),
		dayReservation("d2-plan-b", "2026-03-02", model.StatusPlanning, 19*60, 20*60),
		dayReservation("d1-plan-mid", "2026-03-01", model.StatusPlanning, 14*60, 15*60),
		dayReservation("d2-cancelled", "2026-03-02", model.StatusCancelled, 18*60, 19*60),
		dayReservation("d2-done", "2026-03-02", model.StatusDone, 11*60, 12*60),
	}
	out := FilterAndSort(input, Query{Date: "2026-03-01", Status: "planning"})
	require.Len(t, out, 3)
	assert.Equal(t, "d1-plan-early", out[0].ID)
	assert.Equal(t, "d1-plan-mid", out[1].ID)
	assert.Equal(t, "d1-plan-late", out[2].ID)
}

func TestFilterAndSortDropsMalformed(t *testing.T) {
	bad := dayReservation("bad", "2026-03-14", model.StatusPlanning, 19*60, 18*60) // end before start
	input := []model.Reservation{
		bad,
		{ID: "", Status: model.StatusPlanning},
		dayReservation("ok", "2026-03-14", model.StatusPlanning, 18*60, 19*60),
	}
	out := FilterAndSort(input, Query{})
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].ID)
}

func TestFilterAndSortChronological(t *testing.T) {
	input := []model.Reservation{
		dayReservation("late", "2026-03-14", model.StatusPlanning, 21*60, 22*60),
		dayReservation("early", "2026-03-14", model.StatusPlanning, 9*60, 10*60),
		dayReservation("mid", "2026-03-14", model.StatusPlanning, 15*60, 16*60),
	}
	out := FilterAndSort(input, Query{})
	require.Len(t, out, 3)
	assert.Equal(t, []string{"early", "mid", "late"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestFilterAndSortStableForEqualStarts(t *testing.T) {
	input := []model.Reservation{
		dayReservation("first", "2026-03-14", model.StatusPlanning, 18*60, 19*60),
		dayReservation("second", "2026-03-14", model.StatusPlanning, 18*60, 20*60),
	}
	out := FilterAndSort(input, Query{})
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
}

func TestFilterAndSortDoesNotMutateInput(t *testing.T) {
	input := []model.Reservation{
		dayReservation("late", "2026-03-14", model.StatusPlanning, 21*60, 22*60),
		dayReservation("early", "2026-03-14", model.StatusPlanning, 9*60, 10*60),
	}
	_ = FilterAndSort(input, Query{})
	assert.Equal(t, "late", input[0].ID)
	assert.Equal(t, "early", input[1].ID)
}
