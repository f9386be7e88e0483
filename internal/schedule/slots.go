package schedule

import (
	"sort"
	"time"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// Defaults for slot generation.  Booking duration is the interval a
// new reservation is assumed to block; lead time is the minimum gap
// between "now" and the earliest offered slot.
const (
	DefaultGranularityMinutes = 30
	DefaultBookingMinutes     = 90
	DefaultLeadMinutes        = 30
)

// Slot is one candidate reservation start time on a given date,
// annotated with how many suitable tables remain free for the full
// booking duration starting there.  Fully booked slots are kept in
// the list (Bookable=false) so the UI can render "fully booked"
// instead of silently hiding the time.
type Slot struct {
	Minute         int    `json:"-"`
	Time           string `json:"time"`
	Display        string `json:"display"`
	AvailableCount int    `json:"available_count"`
	Bookable       bool   `json:"bookable"`
}

// SlotParams bundles the inputs of ComputeSlots.  Zero values for the
// minute-based tunables fall back to the package defaults.
//
// Fields:
//  OpenMinute/CloseMinute – the restaurant's service window for Date.
//  Granularity            – minutes between candidate slot starts.
//  BookingMinutes         – duration a booking is assumed to block.
//  LeadMinutes            – minimum gap between now and a bookable slot.
//  Tables                 – the floor's tables with day-scoped schedules.
//  Guests                 – requested party size.
//  Date                   – the requested calendar date.
//  Now                    – current time, used for lead-time exclusion.
type SlotParams struct {
	OpenMinute     int
	CloseMinute    int
	Granularity    int
	BookingMinutes int
	LeadMinutes    int
	Tables         []model.Table
	Guests         int
	Date           time.Time
	Now            time.Time
}

// ComputeSlots generates the candidate slot list for a booking flow.
// Candidates run from opening time to closing time minus the booking
// duration, stepping by the granularity.  A table counts as free for
// a slot when its seat capacity covers the party and no active
// reservation overlaps [slot, slot+duration).  On the current date,
// slots earlier than now plus the lead time are excluded from the
// list entirely, never merely flagged.  A closed day (CloseMinute not
// after OpenMinute) yields an empty list.
func ComputeSlots(p SlotParams) []Slot {
	granularity := p.Granularity
	if granularity <= 0 {
		granularity = DefaultGranularityMinutes
	}
	booking := p.BookingMinutes
	if booking <= 0 {
		booking = DefaultBookingMinutes
	}
	lead := p.LeadMinutes
	if lead <= 0 {
		lead = DefaultLeadMinutes
	}
	if p.CloseMinute <= p.OpenMinute {
		return []Slot{}
	}

	minMinute := -1
	if SameServiceDate(p.Date, p.Now) {
		minMinute = MinuteOfDay(p.Now) + lead
	}

	slots := make([]Slot, 0)
	for start := p.OpenMinute; start+booking <= p.CloseMinute; start += granularity {
		if minMinute >= 0 && start < minMinute {
			continue
		}
		count := 0
		for _, table := range p.Tables {
			if !table.IsActive || table.Seats < p.Guests {
				continue
			}
			if tableFreeWithin(table, start, start+booking) {
				count++
			}
		}
		slots = append(slots, Slot{
			Minute:         start,
			Time:           FormatClock(start),
			Display:        FormatClock12(start),
			AvailableCount: count,
			Bookable:       count > 0,
		})
	}
	return slots
}

// tableFreeWithin reports whether no active reservation on the table
// overlaps the half-open minute window [startMinute, endMinute).
func tableFreeWithin(table model.Table, startMinute, endMinute int) bool {
	for _, res := range table.Schedule {
		if !res.Valid() || !res.Active() {
			continue
		}
		resStart, resEnd := clockWindow(res.StartTime, res.EndTime)
		if Overlaps(resStart, resEnd, startMinute, endMinute) {
			return false
		}
	}
	return true
}

// ClosestSlots returns the n slots nearest to the target minute of
// day, for the "times around your requested time" cards.  Ties in
// distance are broken by the earlier slot.  The input slice is not
// reordered.
func ClosestSlots(slots []Slot, targetMinute, n int) []Slot {
	if n <= 0 || len(slots) == 0 {
		return []Slot{}
	}
	ranked := make([]Slot, len(slots))
	copy(ranked, slots)
	sort.SliceStable(ranked, func(i, j int) bool {
		di := absInt(ranked[i].Minute - targetMinute)
		dj := absInt(ranked[j].Minute - targetMinute)
		if di != dj {
			return di < dj
		}
		return ranked[i].Minute < ranked[j].Minute
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
