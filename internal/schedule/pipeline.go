package schedule

import (
	"log"
	"sort"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// Query carries the optional filters applied to a reservation
// collection by FilterAndSort.  Zero values mean "not filtered".
//
// Fields:
//  Date        – calendar date (YYYY-MM-DD, service timezone) to match exactly.
//  StartMinute – lower bound of a time-of-day window, minutes since midnight.
//  EndMinute   – upper bound of the window.  A reservation matches the
//                window when its own interval overlaps it at all; strict
//                containment is not required.
//  Status      – status to match, compared case-insensitively.
type Query struct {
	Date        string
	StartMinute *int
	EndMinute   *int
	Status      string
}

// FilterAndSort applies the query's predicates to a reservation
// collection and returns a new, chronologically ordered slice.  Each
// predicate is independent and applied in sequence: structural
// validity, date equality, time-of-day overlap, then status equality.
// Invalid records are dropped with a logged warning rather than
// aborting the batch.  The input slice is never mutated.
func FilterAndSort(reservations []model.Reservation, q Query) []model.Reservation {
	wantStatus, haveStatus := model.ParseStatus(q.Status)
	if q.Status != "" && !haveStatus {
		log.Printf("schedule: unknown status filter %q, no reservations will match", q.Status)
	}

	out := make([]model.Reservation, 0, len(reservations))
	for _, res := range reservations {
		if !res.Valid() {
			log.Printf("schedule: dropping malformed reservation %q from listing", res.ID)
			continue
		}
		if q.Date != "" && ServiceDate(res.StartTime) != q.Date {
			continue
		}
		if q.StartMinute != nil || q.EndMinute != nil {
			windowStart := 0
			windowEnd := MinutesPerDay
			if q.StartMinute != nil {
				windowStart = *q.StartMinute
			}
			if q.EndMinute != nil {
				windowEnd = *q.EndMinute
			}
			resStart, resEnd := clockWindow(res.StartTime, res.EndTime)
			if !Overlaps(resStart, resEnd, windowStart, windowEnd) {
				continue
			}
		}
		if q.Status != "" && res.Status != wantStatus {
			continue
		}
		out = append(out, res)
	}

	// Stable sort keeps the relative order of records whose start
	// times compare equal instead of reshuffling them.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
