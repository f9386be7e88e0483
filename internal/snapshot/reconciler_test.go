package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/queue"
)

const testDate = "2026-03-14"

var testKey = Key{RestaurantID: 1, Date: testDate}

// fakeFetcher is an in-memory Fetcher whose floor can be swapped
// between fetches.  It counts calls so tests can assert when a full
// refresh or a targeted refetch happened.
type fakeFetcher struct {
	mu          sync.Mutex
	floor       []model.Table
	records     map[string]model.Reservation
	floorErr    error
	floorCalls  int
	recordCalls int
	gate        chan struct{} // blocks the next floor fetch until closed
	gateEntered chan struct{} // closed once the gated fetch has started
}

func (f *fakeFetcher) FetchFloor(ctx context.Context, key Key) ([]model.Table, error) {
	f.mu.Lock()
	f.floorCalls++
	gate, entered := f.gate, f.gateEntered
	f.gate, f.gateEntered = nil, nil
	if f.floorErr != nil {
		err := f.floorErr
		f.mu.Unlock()
		return nil, err
	}
	out := make([]model.Table, len(f.floor))
	for i, t := range f.floor {
		sched := make([]model.Reservation, len(t.Schedule))
		copy(sched, t.Schedule)
		t.Schedule = sched
		out[i] = t
	}
	f.mu.Unlock()
	// A gated fetch captures the floor as of its start, then stalls
	// until released, standing in for a slow response.
	if gate != nil {
		if entered != nil {
			close(entered)
		}
		<-gate
	}
	return out, nil
}

func (f *fakeFetcher) FetchReservation(ctx context.Context, restaurantID uint64, id string) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recordCalls++
	res, ok := f.records[id]
	if !ok {
		return model.Reservation{}, errors.New("not found")
	}
	return res, nil
}

func (f *fakeFetcher) setFloor(tables []model.Table) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.floor = tables
}

// gateNextFetch makes the next FetchFloor block until the returned
// channel is closed; the second channel closes once that fetch is in
// flight.
func (f *fakeFetcher) gateNextFetch() (release chan struct{}, entered chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.gateEntered = make(chan struct{})
	return f.gate, f.gateEntered
}

func dayTime(minute int) time.Time {
	return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

func testReservation(id string, tableID uint64, startMin, endMin int) model.Reservation {
	res := model.Reservation{
		ID:           id,
		RestaurantID: 1,
		Guests:       2,
		Status:       model.StatusPlanning,
		StartTime:    dayTime(startMin),
		EndTime:      dayTime(endMin),
	}
	if tableID != 0 {
		res.TableID = &tableID
	}
	return res
}

func testFloor() []model.Table {
	return []model.Table{
		{ID: 10, RestaurantID: 1, TableNumber: 1, Seats: 4, IsActive: true,
			Schedule: []model.Reservation{testReservation("res-a", 10, 18*60, 19*60+30)}},
		{ID: 11, RestaurantID: 1, TableNumber: 2, Seats: 2, IsActive: true},
	}
}

func loadedReconciler(t *testing.T) (*Reconciler, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{records: map[string]model.Reservation{}}
	f.setFloor(testFloor())
	rec := NewReconciler(f, nil)
	require.NoError(t, rec.Load(context.Background(), testKey))
	return rec, f
}

func createEvent(res model.Reservation) queue.DeltaEvent {
	ev := queue.NewDeltaEvent(queue.ReservationCreated, res.RestaurantID)
	status := string(res.Status)
	start := res.StartTime.UTC().Format(time.RFC3339)
	end := res.EndTime.UTC().Format(time.RFC3339)
	guests := res.Guests
	ev.Reservation = &queue.ReservationPatch{
		ID:        res.ID,
		Status:    &status,
		Guests:    &guests,
		StartTime: &start,
		EndTime:   &end,
		TableID:   res.TableID,
	}
	return ev
}

func TestLoadBuildsView(t *testing.T) {
	rec, _ := loadedReconciler(t)
	view := rec.View()

	assert.Equal(t, Ready, view.State)
	assert.Equal(t, testKey, view.Key)
	require.Len(t, view.Tables, 2)
	assert.Equal(t, uint32(1), view.Tables[0].TableNumber)
	require.Len(t, view.Tables[0].Schedule, 1)
	assert.Equal(t, "res-a", view.Tables[0].Schedule[0].ID)
	assert.Empty(t, view.Unassigned)
	assert.False(t, view.FetchedAt.IsZero())
	assert.Empty(t, view.LastError)
}

func TestLoadFailureKeepsLastSnapshot(t *testing.T) {
	rec, f := loadedReconciler(t)

	f.mu.Lock()
	f.floorErr = errors.New("db is down")
	f.mu.Unlock()
	require.NoError(t, rec.Refresh(context.Background()))

	view := rec.View()
	assert.Equal(t, Ready, view.State)
	assert.Equal(t, "db is down", view.LastError)
	// The previous snapshot is still served.
	require.Len(t, view.Tables, 2)
	require.Len(t, view.Tables[0].Schedule, 1)
}

func TestApplyCreateAndDuplicate(t *testing.T) {
	rec, _ := loadedReconciler(t)
	ev := createEvent(testReservation("res-b", 11, 20*60, 21*60))

	rec.Apply(context.Background(), ev)
	rec.Apply(context.Background(), ev) // exact redelivery

	view := rec.View()
	require.Len(t, view.Tables[1].Schedule, 1)
	assert.Equal(t, "res-b", view.Tables[1].Schedule[0].ID)
	assert.False(t, view.LastEventAt.IsZero())
}

func TestApplyCreateReplayedWithNewEventID(t *testing.T) {
	rec, _ := loadedReconciler(t)
	res := testReservation("res-b", 11, 20*60, 21*60)

	// Same reservation announced twice under distinct event ids; the
	// merge stays idempotent on the record id.
	rec.Apply(context.Background(), createEvent(res))
	rec.Apply(context.Background(), createEvent(res))

	view := rec.View()
	assert.Len(t, view.Tables[1].Schedule, 1)
}

func TestApplyCreateOtherDateIgnored(t *testing.T) {
	rec, _ := loadedReconciler(t)
	res := testReservation("res-tomorrow", 11, 20*60, 21*60)
	res.StartTime = res.StartTime.AddDate(0, 0, 1)
	res.EndTime = res.EndTime.AddDate(0, 0, 1)

	rec.Apply(context.Background(), createEvent(res))

	view := rec.View()
	assert.Empty(t, view.Tables[1].Schedule)
	assert.Empty(t, view.Unassigned)
}

func TestApplyOtherRestaurantIgnored(t *testing.T) {
	rec, _ := loadedReconciler(t)
	foreign := testReservation("res-x", 11, 20*60, 21*60)
	foreign.RestaurantID = 99

	rec.Apply(context.Background(), createEvent(foreign))

	view := rec.View()
	assert.Empty(t, view.Tables[1].Schedule)
	assert.True(t, view.LastEventAt.IsZero())
}

func TestApplyPartialPatch(t *testing.T) {
	rec, _ := loadedReconciler(t)

	ev := queue.NewDeltaEvent(queue.ReservationDetailsChanged, 1)
	guests := 5
	ev.Reservation = &queue.ReservationPatch{ID: "res-a", Guests: &guests}
	rec.Apply(context.Background(), ev)

	view := rec.View()
	got := view.Tables[0].Schedule[0]
	assert.Equal(t, 5, got.Guests)
	// Everything the patch did not mention stays intact.
	assert.Equal(t, model.StatusPlanning, got.Status)
	assert.Equal(t, dayTime(18*60), got.StartTime)
}

func TestApplyUnknownStatusSkipped(t *testing.T) {
	rec, _ := loadedReconciler(t)

	ev := queue.NewDeltaEvent(queue.ReservationStatusChanged, 1)
	bogus := "TELEPORTED"
	ev.Reservation = &queue.ReservationPatch{ID: "res-a", Status: &bogus}
	rec.Apply(context.Background(), ev)

	view := rec.View()
	assert.Equal(t, model.StatusPlanning, view.Tables[0].Schedule[0].Status)
}

func TestApplyLegacyTableAlias(t *testing.T) {
	rec, _ := loadedReconciler(t)

	res := testReservation("res-legacy", 0, 20*60, 21*60)
	ev := createEvent(res)
	// Simulate the legacy wire shape: table instead of table_id.
	table := uint64(11)
	ev.Reservation.TableID = nil
	ev.Reservation.Table = &table
	ev.Reservation.Normalize()
	rec.Apply(context.Background(), ev)

	view := rec.View()
	require.Len(t, view.Tables[1].Schedule, 1)
	assert.Equal(t, "res-legacy", view.Tables[1].Schedule[0].ID)
}

func TestMissedCreateTriggersTargetedRefetch(t *testing.T) {
	rec, f := loadedReconciler(t)
	record := testReservation("res-missed", 11, 20*60, 21*60)
	f.mu.Lock()
	f.records["res-missed"] = record
	f.mu.Unlock()

	// A status change for a record the snapshot has never seen.
	ev := queue.NewDeltaEvent(queue.ReservationStatusChanged, 1)
	status := string(model.StatusConfirmed)
	ev.Reservation = &queue.ReservationPatch{ID: "res-missed", Status: &status}
	rec.Apply(context.Background(), ev)

	f.mu.Lock()
	calls := f.recordCalls
	f.mu.Unlock()
	assert.Equal(t, 1, calls)

	view := rec.View()
	require.Len(t, view.Tables[1].Schedule, 1)
	assert.Equal(t, "res-missed", view.Tables[1].Schedule[0].ID)
}

func TestClientCancellationForcesStatus(t *testing.T) {
	rec, _ := loadedReconciler(t)

	ev := queue.NewDeltaEvent(queue.ClientCancelledReservation, 1)
	ev.Reservation = &queue.ReservationPatch{ID: "res-a"}
	rec.Apply(context.Background(), ev)

	view := rec.View()
	assert.Equal(t, model.StatusCancelled, view.Tables[0].Schedule[0].Status)
	// The forced status is applied to the snapshot, not written back
	// into the caller's payload.
	assert.Nil(t, ev.Reservation.Status)
}

func TestTablePositionPatchedInPlace(t *testing.T) {
	rec, f := loadedReconciler(t)

	ev := queue.NewDeltaEvent(queue.TablePositionUpdated, 1)
	x, y := 120, 340
	ev.Table = &queue.TablePatch{ID: 10, X: &x, Y: &y}
	rec.Apply(context.Background(), ev)

	view := rec.View()
	assert.Equal(t, 120, view.Tables[0].X)
	assert.Equal(t, 340, view.Tables[0].Y)
	// A position patch never costs a full re-fetch.
	f.mu.Lock()
	calls := f.floorCalls
	f.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestCoarseLayoutEventTriggersRefresh(t *testing.T) {
	rec, f := loadedReconciler(t)
	newFloor := append(testFloor(), model.Table{ID: 12, RestaurantID: 1, TableNumber: 3, Seats: 6, IsActive: true})
	f.setFloor(newFloor)

	ev := queue.NewDeltaEvent(queue.TableAdded, 1)
	ev.Table = &queue.TablePatch{ID: 12}
	rec.Apply(context.Background(), ev)

	view := rec.View()
	require.Len(t, view.Tables, 3)
	assert.Equal(t, uint32(3), view.Tables[2].TableNumber)
	f.mu.Lock()
	calls := f.floorCalls
	f.mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestRefreshReconcilesSelection(t *testing.T) {
	rec, f := loadedReconciler(t)
	rec.Select("res-a")
	_, ok := rec.Selection()
	require.True(t, ok)

	// The selected record survives a wholesale refresh that still has it.
	require.NoError(t, rec.Refresh(context.Background()))
	_, ok = rec.Selection()
	assert.True(t, ok)

	// Once the record disappears from the fetched data the selection clears.
	f.setFloor([]model.Table{{ID: 10, RestaurantID: 1, TableNumber: 1, Seats: 4, IsActive: true}})
	require.NoError(t, rec.Refresh(context.Background()))
	_, ok = rec.Selection()
	assert.False(t, ok)
}

func TestUnassignedReservations(t *testing.T) {
	f := &fakeFetcher{records: map[string]model.Reservation{}}
	floor := testFloor()
	// The fetch carries unassigned bookings on a zero-id entry.
	floor = append(floor, model.Table{Schedule: []model.Reservation{testReservation("res-queue", 0, 19*60, 20*60)}})
	f.setFloor(floor)
	rec := NewReconciler(f, nil)
	require.NoError(t, rec.Load(context.Background(), testKey))

	view := rec.View()
	require.Len(t, view.Tables, 2, "the carrier entry must not render as a table")
	require.Len(t, view.Unassigned, 1)
	assert.Equal(t, "res-queue", view.Unassigned[0].ID)

	// Assigning it via an event moves it onto the table.
	ev := queue.NewDeltaEvent(queue.ReservationAssigned, 1)
	table := uint64(11)
	ev.Reservation = &queue.ReservationPatch{ID: "res-queue", TableID: &table}
	rec.Apply(context.Background(), ev)

	view = rec.View()
	assert.Empty(t, view.Unassigned)
	require.Len(t, view.Tables[1].Schedule, 1)
}

func TestNotificationsAppendAndClear(t *testing.T) {
	rec, _ := loadedReconciler(t)
	rec.Apply(context.Background(), createEvent(testReservation("res-b", 11, 20*60, 21*60)))

	view := rec.View()
	require.NotEmpty(t, view.Notifications)
	assert.Equal(t, string(queue.ReservationCreated), view.Notifications[0].Kind)

	rec.ClearNotifications()
	assert.Empty(t, rec.View().Notifications)
}

func TestContextSwitchResetsSnapshot(t *testing.T) {
	rec, f := loadedReconciler(t)
	rec.Select("res-a")

	otherKey := Key{RestaurantID: 1, Date: "2026-03-15"}
	f.setFloor([]model.Table{{ID: 10, RestaurantID: 1, TableNumber: 1, Seats: 4, IsActive: true}})
	require.NoError(t, rec.Load(context.Background(), otherKey))

	view := rec.View()
	assert.Equal(t, otherKey, view.Key)
	assert.Empty(t, view.Tables[0].Schedule)
	_, ok := rec.Selection()
	assert.False(t, ok)
}

func TestStaleFetchDiscardedAfterContextSwitch(t *testing.T) {
	f := &fakeFetcher{records: map[string]model.Reservation{}}
	f.setFloor(testFloor())
	rec := NewReconciler(f, nil)

	release, entered := f.gateNextFetch()
	done := make(chan error, 1)
	go func() { done <- rec.Load(context.Background(), testKey) }()
	<-entered

	// Switch dates while the first fetch is still in flight.
	otherKey := Key{RestaurantID: 1, Date: "2026-03-15"}
	f.setFloor([]model.Table{{ID: 20, RestaurantID: 1, TableNumber: 9, Seats: 6, IsActive: true}})
	require.NoError(t, rec.Load(context.Background(), otherKey))

	// Release the superseded response; it carries the old floor and
	// must be discarded, not installed over the new context.
	close(release)
	require.NoError(t, <-done)

	view := rec.View()
	assert.Equal(t, otherKey, view.Key)
	require.Len(t, view.Tables, 1)
	assert.Equal(t, uint64(20), view.Tables[0].ID)
}

// recordingSource notes the restaurant id of every subscription and
// blocks until its stream is cancelled.
type recordingSource struct {
	mu  sync.Mutex
	ids []uint64
}

func (s *recordingSource) Run(ctx context.Context, restaurantID uint64, handler queue.Handler) {
	s.mu.Lock()
	s.ids = append(s.ids, restaurantID)
	s.mu.Unlock()
	<-ctx.Done()
}

func (s *recordingSource) subscribed() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.ids))
	copy(out, s.ids)
	return out
}

func TestRestaurantSwitchResubscribes(t *testing.T) {
	f := &fakeFetcher{records: map[string]model.Reservation{}}
	f.setFloor(testFloor())
	src := &recordingSource{}
	rec := NewReconciler(f, src)
	defer rec.Teardown()

	require.NoError(t, rec.Load(context.Background(), testKey))
	require.Eventually(t, func() bool { return len(src.subscribed()) == 1 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1}, src.subscribed())

	// A date change within the same restaurant keeps the stream.
	require.NoError(t, rec.Load(context.Background(), Key{RestaurantID: 1, Date: "2026-03-15"}))
	assert.Equal(t, []uint64{1}, src.subscribed())

	// A restaurant change cuts the old stream and subscribes to the
	// new restaurant's queue.
	require.NoError(t, rec.Load(context.Background(), Key{RestaurantID: 2, Date: "2026-03-15"}))
	require.Eventually(t, func() bool { return len(src.subscribed()) == 2 },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, []uint64{1, 2}, src.subscribed())
}

func TestTeardown(t *testing.T) {
	rec, _ := loadedReconciler(t)
	rec.Teardown()

	view := rec.View()
	assert.Equal(t, TornDown, view.State)
	assert.Empty(t, view.Tables)

	// Events and loads after teardown are rejected.
	rec.Apply(context.Background(), createEvent(testReservation("res-b", 11, 20*60, 21*60)))
	assert.Empty(t, rec.View().Tables)
	assert.Error(t, rec.Load(context.Background(), testKey))
}

func TestHubSharesReconcilers(t *testing.T) {
	f := &fakeFetcher{records: map[string]model.Reservation{}}
	f.setFloor(testFloor())
	hub := NewHub(f, nil)
	defer hub.Close()

	a, err := hub.Acquire(context.Background(), testKey)
	require.NoError(t, err)
	b, err := hub.Acquire(context.Background(), testKey)
	require.NoError(t, err)
	assert.Same(t, a, b)

	f.mu.Lock()
	calls := f.floorCalls
	f.mu.Unlock()
	assert.Equal(t, 1, calls, "second acquire must reuse the loaded snapshot")

	hub.Release(testKey)
	assert.Equal(t, TornDown, a.View().State)
}
