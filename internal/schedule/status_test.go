package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

var statusNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

func makeReservation(id string, status model.ReservationStatus, startMin, endMin int) model.Reservation {
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return model.Reservation{
		ID:        id,
		Guests:    2,
		Status:    status,
		StartTime: day.Add(time.Duration(startMin) * time.Minute),
		EndTime:   day.Add(time.Duration(endMin) * time.Minute),
	}
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name     string
		schedule []model.Reservation
		want     TableStatus
	}{
		{
			name: "emptySchedule",
			want: TableAvailable,
		},
		{
			name: "seatedNow",
			schedule: []model.Reservation{
				makeReservation("r1", model.StatusSeated, 18*60, 20*60),
			},
			want: TableOccupied,
		},
		{
			name: "lapsedPlanningDoesNotOccupy",
			// The interval contains now but the guest never arrived;
			// the table shows reserved, not occupied.
			schedule: []model.Reservation{
				makeReservation("r1", model.StatusPlanning, 18*60, 20*60),
			},
			want: TableReserved,
		},
		{
			name: "confirmedNow",
			schedule: []model.Reservation{
				makeReservation("r1", model.StatusConfirmed, 18*60, 20*60),
			},
			want: TableReserved,
		},
		{
			name: "upcomingLaterToday",
			schedule: []model.Reservation{
				makeReservation("r1", model.StatusPlanning, 21*60, 22*60),
			},
			want: TableReserved,
		},
		{
			name: "onlyPastBookings",
			schedule: []model.Reservation{
				makeReservation("r1", model.StatusDone, 12*60, 13*60),
				makeReservation("r2", model.StatusSeated, 14*60, 15*60),
			},
			want: TableAvailable,
		},
		{
			name: "cancelledOverlapIgnored",
			schedule: []model.Reservation{
				makeReservation("r1", model.StatusCancelled, 18*60, 20*60),
			},
			want: TableAvailable,
		},
		{
			name: "seatedWinsOverUpcoming",
			// Out-of-order input; the resolver sorts before scanning.
			schedule: []model.Reservation{
				makeReservation("r2", model.StatusPlanning, 21*60, 22*60),
				makeReservation("r1", model.StatusSeated, 18*60, 20*60),
			},
			want: TableOccupied,
		},
		{
			name: "malformedRecordSkipped",
			schedule: []model.Reservation{
				{ID: "", Status: model.StatusSeated},
				makeReservation("r2", model.StatusPlanning, 21*60, 22*60),
			},
			want: TableReserved,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := model.Table{ID: 7, Seats: 4, IsActive: true, Schedule: tt.schedule}
			assert.Equal(t, tt.want, ResolveStatus(table, statusNow))
		})
	}
}

func TestResolveStatusBoundaryInstants(t *testing.T) {
	// Half-open interval: the start instant is inside, the end is not.
	table := model.Table{ID: 1, Schedule: []model.Reservation{
		makeReservation("r1", model.StatusSeated, 19*60, 20*60),
	}}
	assert.Equal(t, TableOccupied, ResolveStatus(table, statusNow))

	atEnd := statusNow.Add(time.Hour)
	assert.Equal(t, TableAvailable, ResolveStatus(table, atEnd))
}
