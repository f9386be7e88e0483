package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgeniBursov/table-whispers/internal/model"
)

func strPtr(s string) *string { return &s }

func u64Ptr(v uint64) *uint64 { return &v }

func TestNormalizeTableAliases(t *testing.T) {
	tests := []struct {
		name  string
		patch ReservationPatch
		want  *uint64
	}{
		{name: "canonicalWins", patch: ReservationPatch{TableID: u64Ptr(1), Table: u64Ptr(2)}, want: u64Ptr(1)},
		{name: "legacyTable", patch: ReservationPatch{Table: u64Ptr(2)}, want: u64Ptr(2)},
		{name: "legacyTableNumber", patch: ReservationPatch{TableNumber: u64Ptr(3)}, want: u64Ptr(3)},
		{name: "tableBeatsTableNumber", patch: ReservationPatch{Table: u64Ptr(2), TableNumber: u64Ptr(3)}, want: u64Ptr(2)},
		{name: "noneSet", patch: ReservationPatch{}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.patch.Normalize()
			if tt.want == nil {
				assert.Nil(t, tt.patch.TableID)
				return
			}
			require.NotNil(t, tt.patch.TableID)
			assert.Equal(t, *tt.want, *tt.patch.TableID)
		})
	}
}

func TestNormalizeSplitName(t *testing.T) {
	p := ReservationPatch{FirstName: strPtr("Dana"), LastName: strPtr("Levi")}
	p.Normalize()
	require.NotNil(t, p.ClientName)
	assert.Equal(t, "Dana Levi", *p.ClientName)

	// A canonical client_name is never overwritten by the split form.
	p = ReservationPatch{ClientName: strPtr("Existing"), FirstName: strPtr("Dana")}
	p.Normalize()
	assert.Equal(t, "Existing", *p.ClientName)

	// A lone last name still produces a usable display name.
	p = ReservationPatch{LastName: strPtr("Levi")}
	p.Normalize()
	require.NotNil(t, p.ClientName)
	assert.Equal(t, "Levi", *p.ClientName)
}

func TestNormalizedStatus(t *testing.T) {
	p := ReservationPatch{Status: strPtr("canceled")} // US spelling on the wire
	status, ok := p.NormalizedStatus()
	require.True(t, ok)
	assert.Equal(t, model.StatusCancelled, status)

	p = ReservationPatch{Status: strPtr("TELEPORTED")}
	_, ok = p.NormalizedStatus()
	assert.False(t, ok)

	p = ReservationPatch{}
	_, ok = p.NormalizedStatus()
	assert.False(t, ok)
}

func TestDecodeLegacyWirePayload(t *testing.T) {
	raw := []byte(`{
		"event_id": "ev-1",
		"type": "reservationUpdated",
		"restaurant_id": 7,
		"reservation": {"id": "res-1", "table": 4, "first_name": "Dana", "last_name": "Levi"}
	}`)
	var ev DeltaEvent
	require.NoError(t, json.Unmarshal(raw, &ev))
	ev.Reservation.Normalize()

	assert.Equal(t, ReservationUpdated, ev.Type)
	assert.Equal(t, uint64(7), ev.RestaurantID)
	require.NotNil(t, ev.Reservation.TableID)
	assert.Equal(t, uint64(4), *ev.Reservation.TableID)
	require.NotNil(t, ev.Reservation.ClientName)
	assert.Equal(t, "Dana Levi", *ev.Reservation.ClientName)
}

func TestNewDeltaEventStamps(t *testing.T) {
	a := NewDeltaEvent(ReservationCreated, 7)
	b := NewDeltaEvent(ReservationCreated, 7)
	assert.NotEmpty(t, a.EventID)
	assert.NotEqual(t, a.EventID, b.EventID)
	assert.NotEmpty(t, a.EmittedAt)
	assert.Equal(t, uint64(7), a.RestaurantID)
}
