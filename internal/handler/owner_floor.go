package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/model"
	"github.com/EvgeniBursov/table-whispers/internal/queue"
	"github.com/EvgeniBursov/table-whispers/internal/repository"
	"github.com/EvgeniBursov/table-whispers/internal/schedule"
)

// requireOwnership resolves and authorizes the :id restaurant path
// parameter for owner endpoints.  It writes the error response itself
// and returns ok=false when the caller must stop.
func (h *OwnerHandler) requireOwnership(c echo.Context) (restaurantID uint64, ok bool) {
	userID, err := getUserID(c)
	if err != nil {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return 0, false
	}
	restaurantID, err = strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || restaurantID == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid restaurant id"})
		return 0, false
	}
	owned, err := h.Restaurants.IsOwnedBy(c.Request().Context(), restaurantID, userID)
	if err != nil {
		if err == repository.ErrRestaurantNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "restaurant not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return 0, false
	}
	if !owned {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return 0, false
	}
	return restaurantID, true
}

type tableReq struct {
	TableNumber uint32 `json:"table_number"`
	Shape       string `json:"shape"`
	Seats       int    `json:"seats"`
	Section     string `json:"section"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	IsActive    *bool  `json:"is_active"`
}

// CreateTable handles POST /v1/restaurants/:id/tables.
func (h *OwnerHandler) CreateTable(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	var body tableReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_number is required"})
	}
	if body.Seats <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be positive"})
	}
	shape := strings.ToUpper(strings.TrimSpace(body.Shape))
	if shape == "" {
		shape = "SQUARE"
	}
	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	table := model.Table{
		RestaurantID: restaurantID,
		TableNumber:  body.TableNumber,
		Shape:        shape,
		Seats:        body.Seats,
		Section:      strings.TrimSpace(body.Section),
		X:            body.X,
		Y:            body.Y,
		Width:        body.Width,
		Height:       body.Height,
		IsActive:     active,
	}
	if err := h.Tables.Create(c.Request().Context(), &table); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "table number already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create table"})
	}

	ev := queue.NewDeltaEvent(queue.TableAdded, restaurantID)
	ev.Table = &queue.TablePatch{ID: table.ID, X: &table.X, Y: &table.Y, Seats: &table.Seats, Shape: &table.Shape}
	publishEvent(ev)

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "table": table})
}

// UpdateTablePosition handles PATCH
// /v1/restaurants/:id/tables/:table_id/position.  Layout drags are
// frequent, so the endpoint touches nothing but the coordinates and
// publishes a position-only delta the live view can patch in place.
func (h *OwnerHandler) UpdateTablePosition(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	tableID, ok := h.tableInRestaurant(c, restaurantID)
	if !ok {
		return nil
	}
	var body struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Tables.UpdatePosition(c.Request().Context(), tableID, body.X, body.Y); err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	ev := queue.NewDeltaEvent(queue.TablePositionUpdated, restaurantID)
	ev.Table = &queue.TablePatch{ID: tableID, X: &body.X, Y: &body.Y}
	publishEvent(ev)

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// UpdateTableDetails handles PUT /v1/restaurants/:id/tables/:table_id.
func (h *OwnerHandler) UpdateTableDetails(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	tableID, ok := h.tableInRestaurant(c, restaurantID)
	if !ok {
		return nil
	}
	var body tableReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Seats <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be positive"})
	}
	ctx := c.Request().Context()
	table, err := h.Tables.GetByID(ctx, tableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if shape := strings.ToUpper(strings.TrimSpace(body.Shape)); shape != "" {
		table.Shape = shape
	}
	table.Seats = body.Seats
	table.Section = strings.TrimSpace(body.Section)
	if body.Width > 0 {
		table.Width = body.Width
	}
	if body.Height > 0 {
		table.Height = body.Height
	}
	if body.IsActive != nil {
		table.IsActive = *body.IsActive
	}
	if err := h.Tables.UpdateDetails(ctx, table); err != nil {
		if err == repository.ErrTableNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	ev := queue.NewDeltaEvent(queue.TableDetailsUpdated, restaurantID)
	ev.Table = &queue.TablePatch{ID: tableID, Seats: &table.Seats, Shape: &table.Shape}
	publishEvent(ev)

	return c.JSON(http.StatusOK, echo.Map{"success": true, "table": table})
}

// DeleteTable handles DELETE /v1/restaurants/:id/tables/:table_id.
// Deletion is refused while active reservations reference the table.
func (h *OwnerHandler) DeleteTable(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	tableID, ok := h.tableInRestaurant(c, restaurantID)
	if !ok {
		return nil
	}
	if err := h.Tables.Delete(c.Request().Context(), tableID); err != nil {
		switch err {
		case repository.ErrTableNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "table has active reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	ev := queue.NewDeltaEvent(queue.TableDeleted, restaurantID)
	ev.Table = &queue.TablePatch{ID: tableID}
	publishEvent(ev)

	return c.NoContent(http.StatusNoContent)
}

// SaveLayout handles PUT /v1/restaurants/:id/layout and applies a
// batch of position updates in one go, the shape the floor editor
// sends on save.  A single coarse layout event is published instead
// of one delta per table.
func (h *OwnerHandler) SaveLayout(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	var body struct {
		Tables []struct {
			ID uint64 `json:"id"`
			X  int    `json:"x"`
			Y  int    `json:"y"`
		} `json:"tables"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Tables) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tables is required"})
	}
	ctx := c.Request().Context()
	for _, entry := range body.Tables {
		table, err := h.Tables.GetByID(ctx, entry.ID)
		if err != nil {
			if err == repository.ErrTableNotFound {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		if table.RestaurantID != restaurantID {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "table belongs to another restaurant"})
		}
		if err := h.Tables.UpdatePosition(ctx, entry.ID, entry.X, entry.Y); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	publishEvent(queue.NewDeltaEvent(queue.FloorLayoutUpdated, restaurantID))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "updated": len(body.Tables)})
}

// SetOpeningHours handles PUT /v1/restaurants/:id/hours.  The body
// carries one entry per weekday to change; omitted weekdays keep
// their stored window.
func (h *OwnerHandler) SetOpeningHours(c echo.Context) error {
	restaurantID, ok := h.requireOwnership(c)
	if !ok {
		return nil
	}
	var body struct {
		Hours []struct {
			Weekday  int    `json:"weekday"`
			Open     string `json:"open"`
			Close    string `json:"close"`
			IsClosed bool   `json:"is_closed"`
		} `json:"hours"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.Hours) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hours is required"})
	}
	ctx := c.Request().Context()
	for _, entry := range body.Hours {
		if entry.Weekday < 0 || entry.Weekday > 6 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "weekday out of range"})
		}
		hours := model.OpeningHours{
			RestaurantID: restaurantID,
			Weekday:      entry.Weekday,
			IsClosed:     entry.IsClosed,
		}
		if !entry.IsClosed {
			open, err := schedule.ParseClock(entry.Open)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid open time"})
			}
			closeMin, err := schedule.ParseClock(entry.Close)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid close time"})
			}
			if closeMin <= open {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "close must be after open"})
			}
			hours.OpenMinute = open
			hours.CloseMinute = closeMin
		}
		if err := h.Restaurants.UpsertOpeningHours(ctx, hours); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save hours"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// tableInRestaurant parses the :table_id parameter and verifies the
// table belongs to the authorized restaurant.  Like requireOwnership
// it writes the error response itself.
func (h *OwnerHandler) tableInRestaurant(c echo.Context, restaurantID uint64) (uint64, bool) {
	tableID, err := strconv.ParseUint(c.Param("table_id"), 10, 64)
	if err != nil || tableID == 0 {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
		return 0, false
	}
	table, err := h.Tables.GetByID(c.Request().Context(), tableID)
	if err != nil {
		if err == repository.ErrTableNotFound {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
		}
		return 0, false
	}
	if table.RestaurantID != restaurantID {
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "table not found"})
		return 0, false
	}
	return tableID, true
}
