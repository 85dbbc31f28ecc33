package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/export"
	"github.com/Jaum1981/cinema-analytics-api/internal/logger"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/report"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the analytical reports and their XLSX exports.
// Every request assembles its report from live data under a store
// timeout; the response cache in front of these routes absorbs repeats.
type ReportHandler struct {
	Reports *report.Assembler
	Log     *logger.Logger
	Timeout time.Duration
}

// NewReportHandler constructs a ReportHandler and panics when the
// assembler is missing.
func NewReportHandler(reports *report.Assembler, lg *logger.Logger, timeout time.Duration) *ReportHandler {
	if reports == nil {
		panic("nil assembler passed to NewReportHandler")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReportHandler{Reports: reports, Log: lg, Timeout: timeout}
}

// intParam reads an optional non-negative integer query parameter.
func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q is not a non-negative number", query.ErrInvalidFilter, name, raw)
	}
	return n, nil
}

// revenueOptions reads the revenue report parameters off the query
// string: group_by, from, to, room_id, status, exclude_inactive, top,
// page, size.
func revenueOptions(c echo.Context, paged bool) (report.RevenueOptions, error) {
	var opts report.RevenueOptions
	opts.GroupBy = c.QueryParam("group_by")
	if raw := c.QueryParam("from"); raw != "" {
		t, err := parseWhen(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: from %q is not a timestamp", query.ErrInvalidFilter, raw)
		}
		opts.From = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := parseWhen(raw)
		if err != nil {
			return opts, fmt.Errorf("%w: to %q is not a timestamp", query.ErrInvalidFilter, raw)
		}
		opts.To = &t
	}
	if raw := c.QueryParam("room_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("%w: room_id %q is not an id", query.ErrInvalidFilter, raw)
		}
		opts.RoomID = id
	}
	opts.Status = c.QueryParam("status")
	opts.ExcludeInactive = c.QueryParam("exclude_inactive") == "true"
	top, err := intParam(c, "top")
	if err != nil {
		return opts, err
	}
	opts.Top = top
	if paged {
		page, err := optionalPage(c)
		if err != nil {
			return opts, err
		}
		opts.Page = page
	}
	return opts, nil
}

// directorOptions reads the director report parameters: year_from,
// year_to, min_movies, exclude_inactive, top, page, size.
func directorOptions(c echo.Context, paged bool) (report.DirectorOptions, error) {
	var opts report.DirectorOptions
	for name, dst := range map[string]*int{
		"year_from":  &opts.YearFrom,
		"year_to":    &opts.YearTo,
		"min_movies": &opts.MinMovies,
		"top":        &opts.Top,
	} {
		n, err := intParam(c, name)
		if err != nil {
			return opts, err
		}
		*dst = n
	}
	opts.ExcludeInactive = c.QueryParam("exclude_inactive") == "true"
	if paged {
		page, err := optionalPage(c)
		if err != nil {
			return opts, err
		}
		opts.Page = page
	}
	return opts, nil
}

// Revenue handles GET /v1/reports/revenue.
func (h *ReportHandler) Revenue(c echo.Context) error {
	opts, err := revenueOptions(c, true)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := contextWithTimeout(c, h.Timeout)
	defer cancel()
	rep, err := h.Reports.Revenue(ctx, opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// Directors handles GET /v1/reports/directors.
func (h *ReportHandler) Directors(c echo.Context) error {
	opts, err := directorOptions(c, true)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := contextWithTimeout(c, h.Timeout)
	defer cancel()
	rep, err := h.Reports.DirectorPerformance(ctx, opts)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// RevenueExport handles GET /v1/reports/revenue/export. The export
// always covers the whole report; pagination parameters are ignored.
func (h *ReportHandler) RevenueExport(c echo.Context) error {
	opts, err := revenueOptions(c, false)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := contextWithTimeout(c, h.Timeout)
	defer cancel()
	rep, err := h.Reports.Revenue(ctx, opts)
	if err != nil {
		return writeError(c, err)
	}
	return h.sendXLSX(c, "Cinema Revenue Report", "revenue_report", rep)
}

// DirectorsExport handles GET /v1/reports/directors/export.
func (h *ReportHandler) DirectorsExport(c echo.Context) error {
	opts, err := directorOptions(c, false)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := contextWithTimeout(c, h.Timeout)
	defer cancel()
	rep, err := h.Reports.DirectorPerformance(ctx, opts)
	if err != nil {
		return writeError(c, err)
	}
	return h.sendXLSX(c, "Director Performance Report", "director_report", rep)
}

// sendXLSX renders the report as a workbook and streams it back as a
// dated attachment.
func (h *ReportHandler) sendXLSX(c echo.Context, title, stem string, rep *report.Report) error {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, title, rep); err != nil {
		h.Log.Error("xlsx export failed: %v", err)
		return writeError(c, err)
	}
	name := fmt.Sprintf("%s_%s.xlsx", stem, time.Now().UTC().Format("2006_01_02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
