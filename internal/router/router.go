package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/Jaum1981/cinema-analytics-api/internal/handler" // import the handlers that implement business logic
)

// RegisterRoutes registers the operational routes on the provided Echo
// instance: the health check used by load balancers and monitoring
// systems, and the log inspection endpoints under /v1/logs.
func RegisterRoutes(e *echo.Echo, db *sql.DB, logs *handler.LogsHandler) {
	// Map the GET request at path "/healthz" to the Health handler.
	// The handler pings the database pool so a wedged pool reports as
	// degraded rather than ok.
	e.GET("/healthz", handler.Health(db))

	// ---- Logs ----
	g := e.Group("/v1/logs")
	g.GET("/files", logs.Files)   // list the log files on disk
	g.GET("/recent", logs.Recent) // tail today's file
	g.GET("/stats", logs.Stats)   // aggregate counts per level, endpoint and day
	e.DELETE("/v1/logs", logs.Clean)
}
