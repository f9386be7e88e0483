package schedule

import (
	"log"
	"sort"
	"time"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

// TableStatus is the derived occupancy state of a table at a point in
// time.  It is never stored; it is recomputed from the table's
// day-scoped schedule whenever the underlying data changes.
type TableStatus string

// Status values rendered on the floor view.
const (
	TableAvailable TableStatus = "AVAILABLE" // no active reservation now or later today
	TableReserved  TableStatus = "RESERVED"  // active reservation pending or upcoming
	TableOccupied  TableStatus = "OCCUPIED"  // seated party at the table right now
)

// ResolveStatus derives a table's occupancy status from its schedule
// and the current time.  Active reservations are examined in
// ascending start order and the first matching rule wins:
//
//   - an interval containing now with status SEATED    -> OCCUPIED
//   - an interval containing now with any other status -> RESERVED
//     (a lapsed PLANNING booking whose guest never arrived does not
//     occupy the table; occupancy requires SEATED, not mere overlap)
//   - the first interval starting after now             -> RESERVED
//
// When no active reservation intersects or follows now the table is
// AVAILABLE.  Terminal (cancelled/done) reservations are ignored
// entirely, and structurally invalid records are skipped with a
// logged warning so one bad row never hides the whole table.
func ResolveStatus(table model.Table, now time.Time) TableStatus {
	active := make([]model.Reservation, 0, len(table.Schedule))
	for _, res := range table.Schedule {
		if !res.Valid() {
			log.Printf("schedule: skipping malformed reservation %q on table %d", res.ID, table.ID)
			continue
		}
		if !res.Active() {
			continue
		}
		active = append(active, res)
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].StartTime.Before(active[j].StartTime)
	})

	for _, res := range active {
		contains := !now.Before(res.StartTime) && now.Before(res.EndTime)
		if contains {
			if res.Status == model.StatusSeated {
				return TableOccupied
			}
			return TableReserved
		}
		if res.StartTime.After(now) {
			// Chronological scan: the first future interval decides.
			return TableReserved
		}
	}
	return TableAvailable
}
