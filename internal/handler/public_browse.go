package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/repository"
	"github.com/EvgeniBursov/table-whispers/internal/schedule"
)

// tableView is the floor-plan representation of a single table, with
// the occupancy status derived from its schedule at render time.
type tableView struct {
	ID          uint64               `json:"id"`
	TableNumber uint32               `json:"table_number"`
	Shape       string               `json:"shape"`
	Seats       int                  `json:"seats"`
	Section     string               `json:"section,omitempty"`
	X           int                  `json:"x"`
	Y           int                  `json:"y"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	IsActive    bool                 `json:"is_active"`
	Status      schedule.TableStatus `json:"status"`
	Schedule    []reservationView    `json:"schedule"`
}

// reservationView is the JSON shape of a reservation in listings and
// floor schedules.
type reservationView struct {
	ID          string    `json:"id"`
	TableID     *uint64   `json:"table_id,omitempty"`
	Guests      int       `json:"guests"`
	Status      string    `json:"status"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	ClientName  string    `json:"client_name,omitempty"`
	ClientEmail string    `json:"client_email,omitempty"`
}

func toReservationView(res model.Reservation) reservationView {
	v := reservationView{
		ID:        res.ID,
		TableID:   res.TableID,
		Guests:    res.Guests,
		Status:    string(res.Status),
		StartTime: res.StartTime,
		EndTime:   res.EndTime,
	}
	if res.ClientName != nil {
		v.ClientName = *res.ClientName
	}
	if res.ClientEmail != nil {
		v.ClientEmail = *res.ClientEmail
	}
	return v
}

func toTableView(t model.Table, now time.Time) tableView {
	views := make([]reservationView, 0, len(t.Schedule))
	for _, res := range t.Schedule {
		views = append(views, toReservationView(res))
	}
	return tableView{
		ID:          t.ID,
		TableNumber: t.TableNumber,
		Shape:       t.Shape,
		Seats:       t.Seats,
		Section:     t.Section,
		X:           t.X,
		Y:           t.Y,
		Width:       t.Width,
		Height:      t.Height,
		IsActive:    t.IsActive,
		Status:      schedule.ResolveStatus(t, now),
		Schedule:    views,
	}
}

// ListRestaurants handles GET /v1/restaurants and returns every
// active restaurant for the public browse page.
func (h *PublicHandler) ListRestaurants(c echo.Context) error {
	items, err := h.Restaurants.ListActive(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "success": true})
}

// GetRestaurant handles GET /v1/restaurants/:id.
func (h *PublicHandler) GetRestaurant(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	rest, err := h.Restaurants.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"restaurant": rest, "success": true})
}

// GetFloorLayout handles GET /v1/restaurants/:id/layout.  It returns
// the restaurant's tables with their day-scoped schedules and derived
// occupancy status.  The optional ?date= parameter (YYYY-MM-DD)
// selects the service date; it defaults to today in the service
// timezone.
func (h *PublicHandler) GetFloorLayout(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
	}
	now := time.Now().In(schedule.ServiceLocation)
	date := c.QueryParam("date")
	if date == "" {
		date = schedule.ServiceDate(now)
	} else if _, err := time.ParseInLocation("2006-01-02", date, schedule.ServiceLocation); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	if _, err := h.Restaurants.GetByID(ctx, id); err != nil {
		if err == repository.ErrRestaurantNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	tables, err := h.Tables.ListByRestaurant(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	tables, _, err = h.Reservations.AttachSchedules(ctx, tables, id, date)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	layout := make([]tableView, 0, len(tables))
	for _, t := range tables {
		layout = append(layout, toTableView(t, now))
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "date": date, "layout": layout})
}
