package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/handler" // report handlers
)

// RegisterReports registers the analytical report endpoints under
// /v1/reports. Reports walk the whole entity graph per request, so this
// is the one group that runs behind the response cache and the rate
// limiter; mw carries those, already configured, nil entries skipped.
func RegisterReports(e *echo.Echo, r *handler.ReportHandler, mw ...echo.MiddlewareFunc) {
	active := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			active = append(active, m)
		}
	}
	g := e.Group("/v1/reports", active...)

	// ---- Revenue ----
	g.GET("/revenue", r.Revenue)
	g.GET("/revenue/export", r.RevenueExport)

	// ---- Directors ----
	g.GET("/directors", r.Directors)
	g.GET("/directors/export", r.DirectorsExport)
}
