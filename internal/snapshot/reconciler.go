// Package snapshot maintains the live, authoritative client-side copy
// of a restaurant's tables and reservations for one query date.  The
// reconciler merges full fetches and broker delta events into the
// snapshot idempotently: replayed events, duplicate deliveries and
// refreshes that re-deliver already-applied data never duplicate or
// corrupt state.
package snapshot

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/queue"
	"github.com/EvgeniBursov/table-whispers/internal/schedule"
)

// seenWindowCapacity bounds the recently-seen event-id set.  The
// original sources kept every id for the session lifetime; a capped
// window keeps long-lived dashboards from growing without bound.
const seenWindowCapacity = 512

// Key identifies the query context a snapshot belongs to: one
// restaurant on one service date.  A late response for a superseded
// key is discarded, never merged.
type Key struct {
	RestaurantID uint64
	Date         string // YYYY-MM-DD in the service timezone
}

// State is the reconciler lifecycle state.
type State int

// Lifecycle states.
const (
	Uninitialized State = iota
	Loading
	Ready
	TornDown
)

// String renders the state for logs and the dashboard health view.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case TornDown:
		return "torn-down"
	}
	return "unknown"
}

// Fetcher is the authoritative read side the reconciler refreshes
// from.  FetchFloor returns the tables with their day-scoped
// schedules; FetchReservation is the targeted lookup used when an
// update event references a record the snapshot has never seen.
type Fetcher interface {
	FetchFloor(ctx context.Context, key Key) ([]model.Table, error)
	FetchReservation(ctx context.Context, restaurantID uint64, reservationID string) (model.Reservation, error)
}

// View is the consistent, fully-formed copy handed to readers.  The
// reconciler never exposes its internal maps, so no caller can
// observe a half-applied merge or mutate the snapshot directly.
type View struct {
	Key           Key
	State         State
	Tables        []model.Table       // schedules attached, chronologically ordered
	Unassigned    []model.Reservation // reservations without a table
	FetchedAt     time.Time
	LastEventAt   time.Time
	LastError     string
	Notifications []Notification
}

// Reconciler owns the snapshot for one (restaurant, date) context.
// All mutations funnel through Load, Apply and Refresh; each merge
// runs to completion under the lock, so readers always see a fully
// formed snapshot.
type Reconciler struct {
	mu           sync.Mutex
	state        State
	key          Key
	gen          uint64 // bumped on context switch; stale-response guard
	tables       map[uint64]model.Table
	reservations map[string]model.Reservation
	fetchedAt    time.Time
	lastEventAt  time.Time
	lastError    string
	selectedID   string

	fetcher Fetcher
	seen    *seenWindow
	notes   *notificationList
	sub     *subscription
}

// NewReconciler returns an uninitialized reconciler.  The source may
// be nil when no realtime stream is wanted (tests, one-shot tools);
// Load then relies on polling refreshes alone.
func NewReconciler(fetcher Fetcher, source Source) *Reconciler {
	return &Reconciler{
		state:        Uninitialized,
		tables:       make(map[uint64]model.Table),
		reservations: make(map[string]model.Reservation),
		fetcher:      fetcher,
		seen:         newSeenWindow(seenWindowCapacity),
		notes:        &notificationList{},
		sub:          &subscription{source: source},
	}
}

// Load performs the initial fetch for a query context, or switches
// the reconciler to a new context (date or restaurant change).  The
// snapshot is replaced wholesale on success.  On failure the state
// still becomes Ready with the error recorded and the last good
// snapshot retained, so a transient error never blanks the view.
func (r *Reconciler) Load(ctx context.Context, key Key) error {
	r.mu.Lock()
	if r.state == TornDown {
		r.mu.Unlock()
		return fmt.Errorf("snapshot: reconciler is torn down")
	}
	if key != r.key {
		// Context switch: supersede any in-flight fetch and drop the
		// dedup window, which only has meaning within one context.
		r.gen++
		r.key = key
		r.seen = newSeenWindow(seenWindowCapacity)
		r.tables = make(map[uint64]model.Table)
		r.reservations = make(map[string]model.Reservation)
		r.selectedID = ""
	}
	r.state = Loading
	gen := r.gen
	r.mu.Unlock()

	r.sub.start(context.Background(), key.RestaurantID, func(ev queue.DeltaEvent) {
		r.Apply(context.Background(), ev)
	})

	tables, err := r.fetcher.FetchFloor(ctx, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen || r.state == TornDown {
		// The response belongs to a superseded context; discard it.
		return nil
	}
	r.state = Ready
	if err != nil {
		r.lastError = err.Error()
		return nil
	}
	r.replaceLocked(tables)
	return nil
}

// Refresh re-fetches the current context (polling tick or manual
// refresh).  The snapshot is replaced wholesale, but the in-flight
// selection is reconciled by id against the new data instead of
// being blown away.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	if r.state == TornDown || r.state == Uninitialized {
		r.mu.Unlock()
		return fmt.Errorf("snapshot: refresh in state %s", r.state)
	}
	key := r.key
	gen := r.gen
	r.mu.Unlock()

	tables, err := r.fetcher.FetchFloor(ctx, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen || r.state == TornDown {
		return nil
	}
	if err != nil {
		r.lastError = err.Error()
		return nil
	}
	r.replaceLocked(tables)
	return nil
}

// replaceLocked installs a freshly fetched floor wholesale.  Caller
// holds the lock.
func (r *Reconciler) replaceLocked(tables []model.Table) {
	r.tables = make(map[uint64]model.Table, len(tables))
	r.reservations = make(map[string]model.Reservation)
	for _, table := range tables {
		res := table.Schedule
		table.Schedule = nil
		if table.ID != 0 {
			// A zero-id entry is the fetcher's carrier for unassigned
			// reservations, not a real table.
			r.tables[table.ID] = table
		}
		for _, record := range res {
			if !record.Valid() {
				log.Printf("snapshot: dropping malformed reservation %q from fetch", record.ID)
				continue
			}
			r.reservations[record.ID] = record
		}
	}
	r.fetchedAt = time.Now().UTC()
	r.lastError = ""
	if r.selectedID != "" {
		if _, ok := r.reservations[r.selectedID]; !ok {
			r.selectedID = ""
		}
	}
}

// Apply merges one delta event into the snapshot.  Events for other
// restaurants are ignored, duplicates are absorbed via the bounded
// seen-id window, and a malformed event can never corrupt the
// snapshot: each merge is validated before application.  Events whose
// granularity is too coarse to patch (layout edits, table lifecycle)
// trigger a full refresh instead.
func (r *Reconciler) Apply(ctx context.Context, ev queue.DeltaEvent) {
	r.mu.Lock()
	if r.state == Uninitialized || r.state == TornDown {
		r.mu.Unlock()
		return
	}
	if ev.RestaurantID != r.key.RestaurantID {
		r.mu.Unlock()
		return
	}
	if !r.seen.Add(ev.EventID) {
		r.mu.Unlock()
		return // duplicate delivery, absorbed
	}
	r.lastEventAt = time.Now().UTC()

	needsRefresh := false
	missingID := ""
	switch ev.Type {
	case queue.ReservationCreated:
		missingID = r.applyCreateLocked(ev)
	case queue.ReservationUpdated, queue.ReservationDetailsChanged, queue.ReservationStatusChanged:
		missingID = r.applyPatchLocked(ev)
	case queue.ClientCancelledReservation:
		if ev.Reservation != nil {
			// Force the status on a copy; the incoming payload is the
			// caller's to keep.
			patch := *ev.Reservation
			status := string(model.StatusCancelled)
			patch.Status = &status
			ev.Reservation = &patch
			missingID = r.applyPatchLocked(ev)
		}
	case queue.ReservationAssigned:
		if ev.Reservation != nil && ev.Reservation.TableID != nil {
			if existing, ok := r.reservations[ev.Reservation.ID]; ok {
				existing.TableID = ev.Reservation.TableID
				existing.UpdatedAt = time.Now().UTC()
				r.reservations[existing.ID] = existing
				r.noteLocked(ev, fmt.Sprintf("reservation %s assigned to table %d", existing.ID, *existing.TableID))
			} else {
				missingID = ev.Reservation.ID
			}
		}
	case queue.TablePositionUpdated:
		if ev.Table != nil {
			if table, ok := r.tables[ev.Table.ID]; ok {
				if ev.Table.X != nil {
					table.X = *ev.Table.X
				}
				if ev.Table.Y != nil {
					table.Y = *ev.Table.Y
				}
				r.tables[table.ID] = table
			}
		}
	case queue.TableStatusUpdated:
		// Occupancy is derived from the schedule, not stored; the
		// event only signals that a recompute is worth rendering.
		r.noteLocked(ev, fmt.Sprintf("table %d status changed", tableIDOf(ev)))
	case queue.TableAdded, queue.TableDeleted, queue.TableDetailsUpdated, queue.FloorLayoutUpdated:
		needsRefresh = true
		r.noteLocked(ev, "floor layout changed, refreshing")
	default:
		log.Printf("snapshot: ignoring unknown event type %q", ev.Type)
	}
	r.mu.Unlock()

	if missingID != "" {
		// Missed create: the event referenced a record we have never
		// seen.  Re-fetch it rather than silently dropping the event.
		r.refetchReservation(ctx, ev.RestaurantID, missingID)
	}
	if needsRefresh {
		if err := r.Refresh(ctx); err != nil {
			log.Printf("snapshot: layout refresh failed: %v", err)
		}
	}
}

// applyCreateLocked inserts a new reservation if its id is absent.
// Duplicate creation events are no-ops.  Returns the reservation id
// when the payload is too thin to build a valid record, so the caller
// falls back to a targeted fetch.
func (r *Reconciler) applyCreateLocked(ev queue.DeltaEvent) string {
	patch := ev.Reservation
	if patch == nil || patch.ID == "" {
		return ""
	}
	if _, ok := r.reservations[patch.ID]; ok {
		return "" // idempotent: already applied
	}
	record, ok := reservationFromPatch(ev.RestaurantID, patch)
	if !ok {
		return patch.ID
	}
	if schedule.ServiceDate(record.StartTime) != r.key.Date {
		return "" // different service date, not part of this snapshot
	}
	r.reservations[record.ID] = record
	r.noteLocked(ev, fmt.Sprintf("new reservation %s for %d guests", record.ID, record.Guests))
	return ""
}

// applyPatchLocked merges a partial update into an existing record,
// field by field.  Only the fields the event specifies change; the
// rest of the record stays intact.  Returns the reservation id when
// the record is unknown (missed create).
func (r *Reconciler) applyPatchLocked(ev queue.DeltaEvent) string {
	patch := ev.Reservation
	if patch == nil || patch.ID == "" {
		return ""
	}
	existing, ok := r.reservations[patch.ID]
	if !ok {
		return patch.ID
	}
	if status, ok := patch.NormalizedStatus(); ok {
		existing.Status = status
	} else if patch.Status != nil {
		log.Printf("snapshot: ignoring unknown status %q in event %s", *patch.Status, ev.EventID)
	}
	if patch.Guests != nil && *patch.Guests > 0 {
		existing.Guests = *patch.Guests
	}
	if patch.StartTime != nil {
		if t, err := time.Parse(time.RFC3339, *patch.StartTime); err == nil {
			existing.StartTime = t.In(schedule.ServiceLocation)
		}
	}
	if patch.EndTime != nil {
		if t, err := time.Parse(time.RFC3339, *patch.EndTime); err == nil {
			existing.EndTime = t.In(schedule.ServiceLocation)
		}
	}
	if patch.TableID != nil {
		existing.TableID = patch.TableID
	}
	if patch.ClientName != nil {
		existing.ClientName = patch.ClientName
	}
	if patch.ClientEmail != nil {
		existing.ClientEmail = patch.ClientEmail
	}
	existing.UpdatedAt = time.Now().UTC()
	r.reservations[existing.ID] = existing
	r.noteLocked(ev, fmt.Sprintf("reservation %s %s", existing.ID, describe(ev.Type)))
	return ""
}

// refetchReservation performs the targeted lookup for a missed
// create and inserts the authoritative record if it still belongs to
// the current context.
func (r *Reconciler) refetchReservation(ctx context.Context, restaurantID uint64, id string) {
	record, err := r.fetcher.FetchReservation(ctx, restaurantID, id)
	if err != nil {
		log.Printf("snapshot: targeted refetch of %s failed: %v", id, err)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == TornDown || restaurantID != r.key.RestaurantID {
		return
	}
	if !record.Valid() {
		log.Printf("snapshot: refetched reservation %s is malformed, skipping", id)
		return
	}
	if schedule.ServiceDate(record.StartTime) != r.key.Date {
		return
	}
	r.reservations[record.ID] = record
}

// Select marks a reservation as the open detail view; refreshes keep
// it selected as long as the id survives in the new snapshot.
func (r *Reconciler) Select(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectedID = id
}

// Selection returns the currently selected reservation, if any.
func (r *Reconciler) Selection() (model.Reservation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.reservations[r.selectedID]
	return record, ok
}

// View assembles the consistent snapshot copy for readers: tables
// sorted by number with chronologically ordered day schedules
// attached, plus unassigned reservations.
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]model.Table, 0, len(r.tables))
	for _, table := range r.tables {
		tables = append(tables, table)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].TableNumber < tables[j].TableNumber
	})

	var unassigned []model.Reservation
	byTable := make(map[uint64][]model.Reservation)
	for _, record := range r.reservations {
		if record.TableID == nil {
			unassigned = append(unassigned, record)
			continue
		}
		byTable[*record.TableID] = append(byTable[*record.TableID], record)
	}
	for i := range tables {
		tables[i].Schedule = schedule.FilterAndSort(byTable[tables[i].ID], schedule.Query{})
	}
	unassigned = schedule.FilterAndSort(unassigned, schedule.Query{})

	return View{
		Key:           r.key,
		State:         r.state,
		Tables:        tables,
		Unassigned:    unassigned,
		FetchedAt:     r.fetchedAt,
		LastEventAt:   r.lastEventAt,
		LastError:     r.lastError,
		Notifications: r.notes.list(),
	}
}

// ClearNotifications empties the notification list.
func (r *Reconciler) ClearNotifications() {
	r.notes.clear()
}

// Teardown stops the event subscription, supersedes any in-flight
// fetch and discards the snapshot.  The reconciler cannot be reused
// afterwards.
func (r *Reconciler) Teardown() {
	r.sub.stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = TornDown
	r.gen++
	r.tables = make(map[uint64]model.Table)
	r.reservations = make(map[string]model.Reservation)
	r.selectedID = ""
}

func (r *Reconciler) noteLocked(ev queue.DeltaEvent, message string) {
	r.notes.append(string(ev.Type), message, time.Now().UTC())
}

func describe(t queue.EventType) string {
	switch t {
	case queue.ReservationStatusChanged:
		return "changed status"
	case queue.ReservationDetailsChanged:
		return "changed details"
	case queue.ClientCancelledReservation:
		return "was cancelled by the client"
	default:
		return "was updated"
	}
}

func tableIDOf(ev queue.DeltaEvent) uint64 {
	if ev.Table != nil {
		return ev.Table.ID
	}
	return 0
}

// reservationFromPatch builds a full record from a creation payload.
// It reports false when the payload lacks the fields required for a
// structurally valid reservation.
func reservationFromPatch(restaurantID uint64, patch *queue.ReservationPatch) (model.Reservation, bool) {
	record := model.Reservation{
		ID:           patch.ID,
		RestaurantID: restaurantID,
		Status:       model.StatusPlanning,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if status, ok := patch.NormalizedStatus(); ok {
		record.Status = status
	}
	if patch.Guests != nil {
		record.Guests = *patch.Guests
	}
	if patch.StartTime != nil {
		if t, err := time.Parse(time.RFC3339, *patch.StartTime); err == nil {
			record.StartTime = t.In(schedule.ServiceLocation)
		}
	}
	if patch.EndTime != nil {
		if t, err := time.Parse(time.RFC3339, *patch.EndTime); err == nil {
			record.EndTime = t.In(schedule.ServiceLocation)
		}
	}
	record.TableID = patch.TableID
	record.ClientName = patch.ClientName
	record.ClientEmail = patch.ClientEmail
	if !record.Valid() || record.Guests <= 0 {
		return model.Reservation{}, false
	}
	return record, true
}
