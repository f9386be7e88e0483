package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/handler"    // owner handlers
	"github.com/EvgeniBursov/table-whispers/internal/middleware" // JWT + role middlewares
)

// RegisterOwner registers OWNER-scoped endpoints under /v1.
// All routes require a valid JWT and OWNER role, and every handler
// additionally verifies that the :id restaurant belongs to the caller.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("OWNER"),
	)

	// ---- Floor editing ----
	g.POST("/restaurants/:id/tables", o.CreateTable)
	g.PUT("/restaurants/:id/tables/:table_id", o.UpdateTableDetails)
	g.PATCH("/restaurants/:id/tables/:table_id/position", o.UpdateTablePosition)
	g.DELETE("/restaurants/:id/tables/:table_id", o.DeleteTable)
	// Batch position save from the floor editor; publishes one coarse
	// layout event instead of per-table deltas.
	g.PUT("/restaurants/:id/layout", o.SaveLayout)

	// ---- Opening hours ----
	g.PUT("/restaurants/:id/hours", o.SetOpeningHours)

	// ---- Reservation management ----
	g.GET("/restaurants/:id/reservations", o.ListReservations)
	g.PATCH("/restaurants/:id/reservations/:reservation_id", o.PatchReservationDetails)
	g.PATCH("/restaurants/:id/reservations/:reservation_id/status", o.ChangeReservationStatus)
	g.PATCH("/restaurants/:id/reservations/:reservation_id/table", o.AssignReservationTable)

	// ---- Live dashboard ----
	// The live view is a reconciled in-memory snapshot fed by broker
	// delta events; GET loads it on first use, DELETE tears it down.
	g.GET("/restaurants/:id/live", o.GetLiveFloor)
	g.POST("/restaurants/:id/live/refresh", o.RefreshLiveFloor)
	g.POST("/restaurants/:id/live/selection", o.SelectLiveReservation)
	g.DELETE("/restaurants/:id/live/notifications", o.ClearLiveNotifications)
	g.DELETE("/restaurants/:id/live", o.CloseLiveFloor)
}
