// Package handler contains the HTTP handlers for the analytics API:
// CRUD endpoints per entity collection, the two report endpoints with
// their XLSX export variants, and the log inspection endpoints. CRUD
// list endpoints run the same filter evaluator and pagination engine as
// the reports, so query parameters behave identically everywhere.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/logger"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/queue"
	"github.com/Jaum1981/cinema-analytics-api/internal/report"
	"github.com/Jaum1981/cinema-analytics-api/internal/repository"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// defaultPageSize applies when a list request carries no size parameter.
const defaultPageSize = 20

// EntityHandler bundles the repositories behind the CRUD endpoints. One
// instance serves all six collections; the per-entity methods live in
// their own files.
type EntityHandler struct {
	Movies    *repository.MovieRepo
	Directors *repository.DirectorRepo
	Rooms     *repository.RoomRepo
	Sessions  *repository.SessionRepo
	Tickets   *repository.TicketRepo
	Payments  *repository.PaymentRepo

	Schemas query.Registry
	Log     *logger.Logger
	MaxPage int

	// PublishSale is called when a payment reaches the completed
	// status. Nil disables event publishing.
	PublishSale func(ctx context.Context, ev queue.TicketSoldEvent) error
}

// NewEntityHandler constructs an EntityHandler and panics if a
// repository is missing.
func NewEntityHandler(movies *repository.MovieRepo, directors *repository.DirectorRepo,
	rooms *repository.RoomRepo, sessions *repository.SessionRepo,
	tickets *repository.TicketRepo, payments *repository.PaymentRepo,
	schemas query.Registry, lg *logger.Logger, maxPage int) *EntityHandler {
	if movies == nil || directors == nil || rooms == nil || sessions == nil || tickets == nil || payments == nil {
		panic("nil repository passed to NewEntityHandler")
	}
	if maxPage <= 0 {
		maxPage = query.DefaultMaxPageSize
	}
	return &EntityHandler{
		Movies:    movies,
		Directors: directors,
		Rooms:     rooms,
		Sessions:  sessions,
		Tickets:   tickets,
		Payments:  payments,
		Schemas:   schemas,
		Log:       lg,
		MaxPage:   maxPage,
	}
}

// parseID reads the numeric :id path parameter.
func parseID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// pageParams reads page/size with defaults. Values that are present but
// not numeric fail as invalid pagination; non-positive values are left
// for the pagination engine to reject so the rule lives in one place.
func pageParams(c echo.Context) (query.PageRequest, error) {
	req := query.PageRequest{Page: 1, Size: defaultPageSize}
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: page %q is not a number", query.ErrInvalidPagination, raw)
		}
		req.Page = n
	}
	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: size %q is not a number", query.ErrInvalidPagination, raw)
		}
		req.Size = n
	}
	return req, nil
}

// optionalPage is pageParams for the report endpoints, where omitting
// both parameters means "no pagination" rather than the first page.
func optionalPage(c echo.Context) (*query.PageRequest, error) {
	if c.QueryParam("page") == "" && c.QueryParam("size") == "" {
		return nil, nil
	}
	req, err := pageParams(c)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// filterParams copies the query string minus pagination and any extra
// reserved keys, leaving only filter expressions for the evaluator.
func filterParams(c echo.Context, reserved ...string) url.Values {
	skip := map[string]bool{"page": true, "size": true}
	for _, k := range reserved {
		skip[k] = true
	}
	out := url.Values{}
	for k, vs := range c.QueryParams() {
		if skip[k] {
			continue
		}
		out[k] = vs
	}
	return out
}

// writeError translates the error taxonomy into HTTP responses. The
// body always carries a stable machine-readable code next to the
// human-readable message.
func writeError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	kind := "internal_error"
	switch {
	case errors.Is(err, query.ErrInvalidFilter):
		code, kind = http.StatusBadRequest, "invalid_filter"
	case errors.Is(err, query.ErrInvalidPagination):
		code, kind = http.StatusBadRequest, "invalid_pagination"
	case errors.Is(err, report.ErrEmptyDataset):
		code, kind = http.StatusNotFound, "empty_dataset"
	case errors.Is(err, store.ErrNotFound):
		code, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		code, kind = http.StatusConflict, "conflict"
	case errors.Is(err, query.ErrDanglingReference):
		code, kind = http.StatusInternalServerError, "dangling_reference"
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		code, kind = http.StatusServiceUnavailable, "store_unavailable"
	}
	return c.JSON(code, echo.Map{"error": kind, "message": err.Error()})
}

// contextWithTimeout bounds the request context so a slow store cannot
// hold a report request open forever.
func contextWithTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// parseDate accepts a calendar date, with or without a time part.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseWhen accepts an RFC3339 timestamp or a bare datetime.
func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
