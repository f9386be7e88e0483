package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

func slotTable(id uint64, seats int, schedule ...model.Reservation) model.Table {
	return model.Table{ID: id, TableNumber: uint32(id), Seats: seats, IsActive: true, Schedule: schedule}
}

func slotDay() time.Time {
	return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
}

func TestComputeSlotsRange(t *testing.T) {
	slots := ComputeSlots(SlotParams{
		OpenMinute:  17 * 60,
		CloseMinute: 22 * 60,
		Tables:      []model.Table{slotTable(1, 4)},
		Guests:      2,
		Date:        slotDay(),
		Now:         slotDay().AddDate(0, 0, -1), // future date, no lead-time cut
	})
	// 17:00 .. 20:30 inclusive: last slot must still fit the 90-minute booking.
	require.Len(t, slots, 8)
	assert.Equal(t, "17:00", slots[0].Time)
	assert.Equal(t, "20:30", slots[len(slots)-1].Time)
	for _, s := range slots {
		assert.True(t, s.Bookable)
		assert.Equal(t, 1, s.AvailableCount)
	}
}

func TestComputeSlotsClosedDay(t *testing.T) {
	slots := ComputeSlots(SlotParams{
		OpenMinute:  0,
		CloseMinute: 0,
		Tables:      []model.Table{slotTable(1, 4)},
		Guests:      2,
		Date:        slotDay(),
		Now:         slotDay(),
	})
	assert.Empty(t, slots)
}

func TestComputeSlotsLeadTimeOnlyToday(t *testing.T) {
	now := slotDay().Add(19 * time.Hour) // 19:00 on the requested date
	params := SlotParams{
		OpenMinute:  17 * 60,
		CloseMinute: 22 * 60,
		Tables:      []model.Table{slotTable(1, 4)},
		Guests:      2,
		Date:        slotDay(),
		Now:         now,
	}
	slots := ComputeSlots(params)
	// Slots before 19:30 are excluded entirely, not flagged.
	require.NotEmpty(t, slots)
	assert.Equal(t, "19:30", slots[0].Time)

	// The same wall clock on a different date applies no cut.
	params.Date = slotDay().AddDate(0, 0, 1)
	slots = ComputeSlots(params)
	assert.Equal(t, "17:00", slots[0].Time)
}

func TestComputeSlotsFullyBookedKept(t *testing.T) {
	busy := model.Reservation{
		ID:        "r1",
		Guests:    2,
		Status:    model.StatusConfirmed,
		StartTime: slotDay().Add(18 * time.Hour),
		EndTime:   slotDay().Add(20 * time.Hour),
	}
	slots := ComputeSlots(SlotParams{
		OpenMinute:  17 * 60,
		CloseMinute: 22 * 60,
		Tables:      []model.Table{slotTable(1, 4, busy)},
		Guests:      2,
		Date:        slotDay(),
		Now:         slotDay().AddDate(0, 0, -1),
	})
	bySlot := map[string]Slot{}
	for _, s := range slots {
		bySlot[s.Time] = s
	}
	// 17:00 + 90min ends 18:30, overlapping the booking: fully booked but listed.
	require.Contains(t, bySlot, "17:00")
	assert.False(t, bySlot["17:00"].Bookable)
	assert.Equal(t, 0, bySlot["17:00"].AvailableCount)
	// 20:00 starts exactly when the booking ends; half-open intervals do not collide.
	require.Contains(t, bySlot, "20:00")
	assert.True(t, bySlot["20:00"].Bookable)
}

func TestComputeSlotsCancelledDoesNotBlock(t *testing.T) {
	cancelled := model.Reservation{
		ID:        "r1",
		Guests:    2,
		Status:    model.StatusCancelled,
		StartTime: slotDay().Add(18 * time.Hour),
		EndTime:   slotDay().Add(20 * time.Hour),
	}
	slots := ComputeSlots(SlotParams{
		OpenMinute:  17 * 60,
		CloseMinute: 22 * 60,
		Tables:      []model.Table{slotTable(1, 4, cancelled)},
		Guests:      2,
		Date:        slotDay(),
		Now:         slotDay().AddDate(0, 0, -1),
	})
	for _, s := range slots {
		assert.True(t, s.Bookable, "slot %s should be free", s.Time)
	}
}

func TestComputeSlotsCapacityAndActiveFilter(t *testing.T) {
	tables := []model.Table{
		slotTable(1, 2),
		slotTable(2, 6),
		{ID: 3, TableNumber: 3, Seats: 8, IsActive: false},
	}
	slots := ComputeSlots(SlotParams{
		OpenMinute:  17 * 60,
		CloseMinute: 20 * 60,
		Tables:      tables,
		Guests:      4,
		Date:        slotDay(),
		Now:         slotDay().AddDate(0, 0, -1),
	})
	require.NotEmpty(t, slots)
	// Only the six-seater counts: the two-seater is too small and the
	// eight-seater is inactive.
	assert.Equal(t, 1, slots[0].AvailableCount)
}

func TestClosestSlots(t *testing.T) {
	slots := ComputeSlots(SlotParams{
		OpenMinute:  17 * 60,
		CloseMinute: 22 * 60,
		Tables:      []model.Table{slotTable(1, 4)},
		Guests:      2,
		Date:        slotDay(),
		Now:         slotDay().AddDate(0, 0, -1),
	})
	closest := ClosestSlots(slots, 19*60, 3)
	require.Len(t, closest, 3)
	assert.Equal(t, "19:00", closest[0].Time)
	// Equal distance ties break toward the earlier slot.
	assert.Equal(t, "18:30", closest[1].Time)
	assert.Equal(t, "19:30", closest[2].Time)
}

func TestClosestSlotsBounds(t *testing.T) {
	assert.Empty(t, ClosestSlots(nil, 19*60, 3))
	one := []Slot{{Minute: 17 * 60, Time: "17:00"}}
	assert.Len(t, ClosestSlots(one, 19*60, 5), 1)
	assert.Empty(t, ClosestSlots(one, 19*60, 0))
}
