package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/repository"
	"github.com/EvgeniBursov/table-whispers/internal/schedule"
)

// GetAvailability handles GET /v1/restaurants/:id/availability.  It
// computes the bookable time slots for a restaurant on one date.
//
// Query parameters:
//
//	date    – service date, YYYY-MM-DD (required)
//	guests  – party size (required, positive)
//	closest – optional wall-clock time ("19:00" or "7:00 PM"); when
//	          present the response is trimmed to the slots nearest to
//	          this time
//	limit   – number of closest slots to return (default 5)
//
// Fully booked times stay in the list with bookable=false so the
// booking page can render them greyed out rather than dropping them.
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	rawDate := c.QueryParam("date")
	date, err := time.ParseInLocation("2006-01-02", rawDate, schedule.ServiceLocation)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	guests, err := strconv.Atoi(c.QueryParam("guests"))
	if err != nil || guests <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests must be a positive number"})
	}

	ctx := c.Request().Context()
	if _, err := h.Restaurants.GetByID(ctx, id); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	hours, err := h.Restaurants.OpeningHoursFor(ctx, id, int(date.Weekday()))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if hours.IsClosed {
		return c.JSON(http.StatusOK, echo.Map{
			"success": true,
			"date":    rawDate,
			"closed":  true,
			"slots":   []schedule.Slot{},
		})
	}

	tables, err := h.Tables.ListByRestaurant(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	tables, _, err = h.Reservations.AttachSchedules(ctx, tables, id, rawDate)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	slots := schedule.ComputeSlots(schedule.SlotParams{
		OpenMinute:  hours.OpenMinute,
		CloseMinute: hours.CloseMinute,
		Tables:      tables,
		Guests:      guests,
		Date:        date,
		Now:         time.Now().In(schedule.ServiceLocation),
	})

	if closest := c.QueryParam("closest"); closest != "" {
		target, err := schedule.ParseClock(closest)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid closest time"})
		}
		limit := 5
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
			}
			limit = n
		}
		slots = schedule.ClosestSlots(slots, target, limit)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"date":    rawDate,
		"closed":  false,
		"slots":   slots,
	})
}
