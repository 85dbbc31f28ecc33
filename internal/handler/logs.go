package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/logger"
)

// LogsHandler exposes the log files written by the application for
// inspection and cleanup, mirroring what an operator would otherwise do
// with tail and rm on the box.
type LogsHandler struct {
	Log *logger.Logger
}

// NewLogsHandler constructs a LogsHandler.
func NewLogsHandler(lg *logger.Logger) *LogsHandler {
	if lg == nil {
		panic("nil logger passed to NewLogsHandler")
	}
	return &LogsHandler{Log: lg}
}

// Files handles GET /v1/logs/files.
func (h *LogsHandler) Files(c echo.Context) error {
	files, err := h.Log.Files()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"log_files":      files,
		"total_files":    len(files),
		"logs_directory": h.Log.Dir(),
	})
}

// Recent handles GET /v1/logs/recent. lines defaults to 100 and is
// capped at 1000; log_type picks the error or general file; level
// keeps a single level.
func (h *LogsHandler) Recent(c echo.Context) error {
	lines := 100
	if raw := c.QueryParam("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "lines must be between 1 and 1000"})
		}
		lines = n
	}
	logType := c.QueryParam("log_type")
	level := c.QueryParam("level")
	entries, file, err := h.Log.Recent(lines, logType, level)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"logs":        entries,
		"total_lines": len(entries),
		"file_used":   file,
		"filters_applied": echo.Map{
			"lines":    lines,
			"log_type": logType,
			"level":    level,
		},
	})
}

// Stats handles GET /v1/logs/stats.
func (h *LogsHandler) Stats(c echo.Context) error {
	stats, err := h.Log.Statistics()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

// Clean handles DELETE /v1/logs. days_older_than defaults to a week;
// files modified today are always kept.
func (h *LogsHandler) Clean(c echo.Context) error {
	days := 7
	if raw := c.QueryParam("days_older_than"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "days_older_than must be at least 1"})
		}
		days = n
	}
	result, err := h.Log.Clean(days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
