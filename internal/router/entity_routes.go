package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/handler" // entity CRUD handlers
)

// RegisterEntities registers the CRUD endpoints for all six collections
// under /v1. Every collection exposes the same shape: create, filtered
// list, count, get, replace and delete. PATCH aliases PUT so clients
// that prefer semantic updates keep working.
func RegisterEntities(e *echo.Echo, h *handler.EntityHandler) {
	g := e.Group("/v1")

	// ---- Movies ----
	g.POST("/movies", h.CreateMovie)
	g.GET("/movies", h.ListMovies)
	g.GET("/movies/count", h.CountMovies)
	g.GET("/movies/:id", h.GetMovie)
	g.PUT("/movies/:id", h.UpdateMovie)
	g.PATCH("/movies/:id", h.UpdateMovie)
	g.DELETE("/movies/:id", h.DeleteMovie)

	// ---- Directors ----
	g.POST("/directors", h.CreateDirector)
	g.GET("/directors", h.ListDirectors)
	g.GET("/directors/count", h.CountDirectors)
	g.GET("/directors/:id", h.GetDirector)
	g.PUT("/directors/:id", h.UpdateDirector)
	g.PATCH("/directors/:id", h.UpdateDirector)
	g.DELETE("/directors/:id", h.DeleteDirector)

	// ---- Rooms ----
	g.POST("/rooms", h.CreateRoom)
	g.GET("/rooms", h.ListRooms)
	g.GET("/rooms/count", h.CountRooms)
	g.GET("/rooms/:id", h.GetRoom)
	g.PUT("/rooms/:id", h.UpdateRoom)
	g.PATCH("/rooms/:id", h.UpdateRoom)
	g.DELETE("/rooms/:id", h.DeleteRoom)

	// ---- Sessions ----
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/count", h.CountSessions)
	g.GET("/sessions/:id", h.GetSession)
	g.PUT("/sessions/:id", h.UpdateSession)
	g.PATCH("/sessions/:id", h.UpdateSession)
	g.DELETE("/sessions/:id", h.DeleteSession)

	// ---- Tickets ----
	g.POST("/tickets", h.CreateTicket)
	g.GET("/tickets", h.ListTickets)
	g.GET("/tickets/count", h.CountTickets)
	g.GET("/tickets/:id", h.GetTicket)
	g.PUT("/tickets/:id", h.UpdateTicket)
	g.PATCH("/tickets/:id", h.UpdateTicket)
	g.DELETE("/tickets/:id", h.DeleteTicket)

	// ---- Payments ----
	g.POST("/payments", h.CreatePayment)
	g.GET("/payments", h.ListPayments)
	g.GET("/payments/count", h.CountPayments)
	g.GET("/payments/:id", h.GetPayment)
	g.PUT("/payments/:id", h.UpdatePayment)
	g.PATCH("/payments/:id", h.UpdatePayment)
	g.DELETE("/payments/:id", h.DeletePayment)
}
