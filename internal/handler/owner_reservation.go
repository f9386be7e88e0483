package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/queue"
	"github.com/EvgeniBursov/table-whispers/internal/repository"
	"github.com/EvgeniBursov/table-whispers/internal/schedule"
)

// ListReservations handles GET /v1/restaurants/:id/reservations.
//
// Query parameters:
//
//	date   – service date, YYYY-MM-DD (defaults to today)
//	start  – wall-clock lower bound of a time-of-day window
//	end    – wall-clock upper bound; a reservation matches when its
//	         interval overlaps the window at all
//	status – lifecycle status, matched case-insensitively
//
// Results come back chronologically ordered; malformed rows are
// dropped from the listing rather than failing it.
func (h *OwnerHandler) ListReservations(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	date := c.QueryParam("date")
	if date == "" {
		date = schedule.ServiceDate(time.Now())
	} else if _, err := time.ParseInLocation("2006-01-02", date, schedule.ServiceLocation); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	query := schedule.Query{Status: c.QueryParam("status")}
	if raw := c.QueryParam("start"); raw != "" {
		minute, err := schedule.ParseClock(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start time"})
		}
		query.StartMinute = &minute
	}
	if raw := c.QueryParam("end"); raw != "" {
		minute, err := schedule.ParseClock(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end time"})
		}
		query.EndMinute = &minute
	}
	if query.Status != "" {
		if _, ok := model.ParseStatus(query.Status); !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
	}

	items, err := h.Reservations.ListByRestaurantAndDate(c.Request().Context(), restaurantID, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	filtered := schedule.FilterAndSort(items, query)
	views := make([]reservationView, 0, len(filtered))
	for _, res := range filtered {
		views = append(views, toReservationView(res))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views, "date": date, "success": true})
}

// ChangeReservationStatus handles PATCH
// /v1/restaurants/:id/reservations/:reservation_id/status.
func (h *OwnerHandler) ChangeReservationStatus(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	res, ok := h.reservationInRestaurant(c, restaurantID)
	if !ok {
		return nil
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status, known := model.ParseStatus(body.Status)
	if !known {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}
	if res.Status.Terminal() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is already closed"})
	}
	if err := h.Reservations.UpdateStatus(c.Request().Context(), res.ID, status); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	ev := queue.NewDeltaEvent(queue.ReservationStatusChanged, restaurantID)
	raw := string(status)
	ev.Reservation = &queue.ReservationPatch{ID: res.ID, Status: &raw}
	publishEvent(ev)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "status": raw})
}

// AssignReservationTable handles PATCH
// /v1/restaurants/:id/reservations/:reservation_id/table.  The
// overlap invariant is re-checked at assignment time; a 409 comes
// back when the target table is already booked for the interval.
func (h *OwnerHandler) AssignReservationTable(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	res, ok := h.reservationInRestaurant(c, restaurantID)
	if !ok {
		return nil
	}
	var body struct {
		TableID uint64 `json:"table_id"`
	}
	if err := c.Bind(&body); err != nil || body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
	}
	ctx := c.Request().Context()
	table, err := h.Tables.GetByID(ctx, body.TableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if table.RestaurantID != restaurantID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
	}
	if !table.IsActive || table.Seats < res.Guests {
		return c.JSON(http.StatusConflict, echo.Map{"error": "table cannot seat this party"})
	}
	if err := h.Reservations.AssignTable(ctx, res.ID, body.TableID); err != nil {
		switch err {
		case repository.ErrReservationNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "table is already booked for this time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
	}

	ev := queue.NewDeltaEvent(queue.ReservationAssigned, restaurantID)
	ev.Reservation = &queue.ReservationPatch{ID: res.ID, TableID: &body.TableID}
	publishEvent(ev)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "table_id": body.TableID})
}

// PatchReservationDetails handles PATCH
// /v1/restaurants/:id/reservations/:reservation_id.  Only the fields
// present in the body change; everything else stays intact, and the
// published delta carries exactly the changed fields.
func (h *OwnerHandler) PatchReservationDetails(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	res, ok := h.reservationInRestaurant(c, restaurantID)
	if !ok {
		return nil
	}
	var body struct {
		Guests      *int    `json:"guests"`
		Date        *string `json:"date"`
		Time        *string `json:"time"`
		EndTime     *string `json:"end_time"`
		ClientName  *string `json:"client_name"`
		ClientEmail *string `json:"client_email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	patch := repository.DetailsPatch{ClientName: body.ClientName, ClientEmail: body.ClientEmail}
	delta := &queue.ReservationPatch{ID: res.ID, ClientName: body.ClientName, ClientEmail: body.ClientEmail}
	if body.Guests != nil {
		if *body.Guests <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be a positive number"})
		}
		patch.Guests = body.Guests
		delta.Guests = body.Guests
	}
	if body.Date != nil || body.Time != nil {
		day := res.StartTime.In(schedule.ServiceLocation).Truncate(24 * time.Hour)
		if body.Date != nil {
			parsed, err := time.ParseInLocation("2006-01-02", *body.Date, schedule.ServiceLocation)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
			}
			day = parsed
		}
		minute := schedule.MinuteOfDay(res.StartTime)
		if body.Time != nil {
			parsed, err := schedule.ParseClock(*body.Time)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
			}
			minute = parsed
		}
		duration := res.EndTime.Sub(res.StartTime)
		start := day.Add(time.Duration(minute) * time.Minute)
		end := start.Add(duration)
		patch.StartTime = &start
		patch.EndTime = &end
		startWire := start.UTC().Format(time.RFC3339)
		endWire := end.UTC().Format(time.RFC3339)
		delta.StartTime = &startWire
		delta.EndTime = &endWire
	}
	if body.EndTime != nil {
		minute, err := schedule.ParseClock(*body.EndTime)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_time"})
		}
		base := res.StartTime
		if patch.StartTime != nil {
			base = *patch.StartTime
		}
		day := base.In(schedule.ServiceLocation).Truncate(24 * time.Hour)
		end := day.Add(time.Duration(minute) * time.Minute)
		if !end.After(base) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_time must be after start"})
		}
		patch.EndTime = &end
		endWire := end.UTC().Format(time.RFC3339)
		delta.EndTime = &endWire
	}
	if body.ClientName != nil && strings.TrimSpace(*body.ClientName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client_name cannot be empty"})
	}

	if err := h.Reservations.PatchDetails(c.Request().Context(), res.ID, patch); err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	ev := queue.NewDeltaEvent(queue.ReservationDetailsChanged, restaurantID)
	ev.Reservation = delta
	publishEvent(ev)

	updated, err := h.Reservations.GetByID(c.Request().Context(), res.ID)
	if err != nil {
		return c.JSON(http.StatusOK, echo.Map{"success": true})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "reservation": toReservationView(updated)})
}

// reservationInRestaurant loads the :reservation_id parameter and
// verifies the record belongs to the authorized restaurant, writing
// the error response itself on failure.
func (h *OwnerHandler) reservationInRestaurant(c echo.Context, restaurantID uint64) (model.Reservation, bool) {
	id := strings.TrimSpace(c.Param("reservation_id"))
	if id == "" {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
		return model.Reservation{}, false
	}
	res, err := h.Reservations.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return model.Reservation{}, false
	}
	if res.RestaurantID != restaurantID {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		return model.Reservation{}, false
	}
	return res, true
}
