package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/schedule"
	"github.com/EvgeniBursov/table-whispers/internal/snapshot"
)

// liveView is the dashboard payload: the reconciled floor with
// derived statuses, the unassigned queue and snapshot health fields.
type liveView struct {
	RestaurantID  uint64                  `json:"restaurant_id"`
	Date          string                  `json:"date"`
	State         string                  `json:"state"`
	Tables        []tableView             `json:"tables"`
	Unassigned    []reservationView       `json:"unassigned"`
	Selection     *reservationView        `json:"selection,omitempty"`
	FetchedAt     time.Time               `json:"fetched_at"`
	LastEventAt   *time.Time              `json:"last_event_at,omitempty"`
	LastError     string                  `json:"last_error,omitempty"`
	Notifications []snapshot.Notification `json:"notifications"`
}

// liveKey resolves the (restaurant, date) context of a live endpoint.
// The date defaults to today in the service timezone.
func (h *OwnerHandler) liveKey(c echo.Context, restaurantID uint64) (snapshot.Key, bool) {
	date := c.QueryParam("date")
	if date == "" {
		date = schedule.ServiceDate(time.Now())
	} else if _, err := time.ParseInLocation("2006-01-02", date, schedule.ServiceLocation); err != nil {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
		return snapshot.Key{}, false
	}
	return snapshot.Key{RestaurantID: restaurantID, Date: date}, true
}

func (h *OwnerHandler) renderLive(c echo.Context, rec *snapshot.Reconciler) error {
	view := rec.View()
	now := time.Now().In(schedule.ServiceLocation)

	tables := make([]tableView, 0, len(view.Tables))
	for _, t := range view.Tables {
		tables = append(tables, toTableView(t, now))
	}
	unassigned := make([]reservationView, 0, len(view.Unassigned))
	for _, res := range view.Unassigned {
		unassigned = append(unassigned, toReservationView(res))
	}

	out := liveView{
		RestaurantID:  view.Key.RestaurantID,
		Date:          view.Key.Date,
		State:         view.State.String(),
		Tables:        tables,
		Unassigned:    unassigned,
		FetchedAt:     view.FetchedAt,
		LastError:     view.LastError,
		Notifications: view.Notifications,
	}
	if !view.LastEventAt.IsZero() {
		at := view.LastEventAt
		out.LastEventAt = &at
	}
	if selected, ok := rec.Selection(); ok {
		sel := toReservationView(selected)
		out.Selection = &sel
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "live": out})
}

// GetLiveFloor handles GET /v1/restaurants/:id/live.  The first call
// for a (restaurant, date) context loads the snapshot and starts the
// broker subscription; later calls serve the reconciled copy without
// touching the database.
func (h *OwnerHandler) GetLiveFloor(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	key, ok := h.liveKey(c, restaurantID)
	if !ok {
		return nil
	}
	rec, err := h.Hub.Acquire(c.Request().Context(), key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load live view"})
	}
	return h.renderLive(c, rec)
}

// RefreshLiveFloor handles POST /v1/restaurants/:id/live/refresh and
// forces a full re-fetch of the current context.
func (h *OwnerHandler) RefreshLiveFloor(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	key, ok := h.liveKey(c, restaurantID)
	if !ok {
		return nil
	}
	rec, err := h.Hub.Acquire(c.Request().Context(), key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load live view"})
	}
	if err := rec.Refresh(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return h.renderLive(c, rec)
}

// SelectLiveReservation handles POST /v1/restaurants/:id/live/selection
// and marks a reservation as the open detail view.  The selection
// survives refreshes as long as the record does.
func (h *OwnerHandler) SelectLiveReservation(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	key, ok := h.liveKey(c, restaurantID)
	if !ok {
		return nil
	}
	var body struct {
		ReservationID string `json:"reservation_id"`
	}
	if err := c.Bind(&body); err != nil || strings.TrimSpace(body.ReservationID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
	}
	rec, err := h.Hub.Acquire(c.Request().Context(), key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load live view"})
	}
	rec.Select(strings.TrimSpace(body.ReservationID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ClearLiveNotifications handles DELETE
// /v1/restaurants/:id/live/notifications.
func (h *OwnerHandler) ClearLiveNotifications(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	key, ok := h.liveKey(c, restaurantID)
	if !ok {
		return nil
	}
	rec, err := h.Hub.Acquire(c.Request().Context(), key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load live view"})
	}
	rec.ClearNotifications()
	return c.NoContent(http.StatusNoContent)
}

// CloseLiveFloor handles DELETE /v1/restaurants/:id/live and tears
// down the snapshot and its broker subscription for the context.
func (h *OwnerHandler) CloseLiveFloor(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	key, ok := h.liveKey(c, restaurantID)
	if !ok {
		return nil
	}
	h.Hub.Release(key)
	return c.NoContent(http.StatusNoContent)
}
