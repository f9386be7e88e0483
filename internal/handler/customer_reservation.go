package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/queue"
	"github.com/EvgeniBursov/table-whispers/internal/repository"
	"github.com/EvgeniBursov/table-whispers/internal/schedule"
)

// createReservationReq is the booking request body.  Time accepts both
// 24-hour ("19:30") and 12-hour ("7:30 PM") forms since the booking
// cards render the latter.
type createReservationReq struct {
	Date            string  `json:"date"`             // YYYY-MM-DD
	Time            string  `json:"time"`             // wall-clock start
	Guests          int     `json:"guests"`           // party size
	DurationMinutes int     `json:"duration_minutes"` // optional, defaults to the standard booking length
	TableID         *uint64 `json:"table_id"`         // optional explicit table
	ClientName      string  `json:"client_name"`
	ClientEmail     string  `json:"client_email"`
}

// CreateReservation handles POST /v1/restaurants/:id/reservations.
// The reservation starts unassigned unless the client picked a table;
// an explicit table is checked for overlap and a 409 is returned when
// another active booking already occupies the interval.
func (h *CustomerHandler) CreateReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	restaurantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || restaurantID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	var body createReservationReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Guests <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be a positive number"})
	}
	date, err := time.ParseInLocation("2006-01-02", body.Date, schedule.ServiceLocation)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	startMinute, err := schedule.ParseClock(body.Time)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time"})
	}
	duration := body.DurationMinutes
	if duration <= 0 {
		duration = schedule.DefaultBookingMinutes
	}

	ctx := c.Request().Context()
	rest, err := h.Restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !rest.IsActive {
		return c.JSON(http.StatusConflict, echo.Map{"error": "restaurant is not accepting bookings"})
	}
	if body.TableID != nil {
		table, err := h.Tables.GetByID(ctx, *body.TableID)
		if err != nil {
			if err == repository.ErrTableNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if table.RestaurantID != restaurantID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "table belongs to another restaurant"})
		}
		if !table.IsActive || table.Seats < body.Guests {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table cannot seat this party"})
		}
	}

	start := date.Add(time.Duration(startMinute) * time.Minute)
	res := model.Reservation{
		RestaurantID: restaurantID,
		TableID:      body.TableID,
		UserID:       &userID,
		Guests:       body.Guests,
		Status:       model.StatusPlanning,
		StartTime:    start,
		EndTime:      start.Add(time.Duration(duration) * time.Minute),
	}
	if name := strings.TrimSpace(body.ClientName); name != "" {
		res.ClientName = &name
	}
	if email := strings.TrimSpace(body.ClientEmail); email != "" {
		res.ClientEmail = &email
	}
	if err := h.Reservations.Create(ctx, &res); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table is already booked for this time"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create reservation"})
	}

	ev := queue.NewDeltaEvent(queue.ReservationCreated, restaurantID)
	ev.Reservation = reservationPatchOf(res)
	publishEvent(ev)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "reservation": toReservationView(res)})
}

// CancelReservation handles POST /v1/reservations/:id/cancel.  Only
// the customer who made the booking may cancel it, and a finished or
// already-cancelled booking stays untouched.
func (h *CustomerHandler) CancelReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrReservationNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if res.UserID == nil || *res.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your reservation"})
	}
	if res.Status.Terminal() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is already closed"})
	}
	if err := h.Reservations.UpdateStatus(ctx, id, model.StatusCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	ev := queue.NewDeltaEvent(queue.ClientCancelledReservation, res.RestaurantID)
	status := string(model.StatusCancelled)
	ev.Reservation = &queue.ReservationPatch{ID: id, Status: &status}
	publishEvent(ev)

	return c.NoContent(http.StatusNoContent)
}

// ListMyReservations handles GET /v1/reservations and returns the
// authenticated customer's bookings, newest first.
func (h *CustomerHandler) ListMyReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	views := make([]reservationView, 0, len(items))
	for _, res := range items {
		views = append(views, toReservationView(res))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": views, "success": true})
}

// reservationPatchOf flattens a full record into the event payload
// shape so the reconciler can build the record without a refetch.
func reservationPatchOf(res model.Reservation) *queue.ReservationPatch {
	status := string(res.Status)
	start := res.StartTime.UTC().Format(time.RFC3339)
	end := res.EndTime.UTC().Format(time.RFC3339)
	guests := res.Guests
	return &queue.ReservationPatch{
		ID:          res.ID,
		Status:      &status,
		Guests:      &guests,
		StartTime:   &start,
		EndTime:     &end,
		TableID:     res.TableID,
		ClientName:  res.ClientName,
		ClientEmail: res.ClientEmail,
	}
}
