package router

import (
	"github.com/labstack/echo/v4"

	"github.com/EvgeniBursov/table-whispers/internal/handler"
	"github.com/EvgeniBursov/table-whispers/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the CUSTOMER role.  Customers can book
// a table at a restaurant, cancel their own bookings and list them.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Note: browsing restaurants, floor layouts and availability lives on
	// the public router so guests can look before registering.  The
	// customer surface starts at the actual booking.
	g.POST("/restaurants/:id/reservations", h.CreateReservation)
	g.POST("/reservations/:id/cancel", h.CancelReservation)
	g.GET("/reservations", h.ListMyReservations)
}
