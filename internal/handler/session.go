package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/repository"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

type sessionBody struct {
	MovieID          uint64          `json:"movie_id"`
	RoomID           uint64          `json:"room_id"`
	StartTime        string          `json:"start_time"`
	ExhibitionType   string          `json:"exhibition_type"`
	AudioLanguage    string          `json:"audio_language"`
	SubtitleLanguage string          `json:"subtitle_language"`
	Status           string          `json:"status"`
	BasePrice        decimal.Decimal `json:"base_price"`
}

func (b *sessionBody) validate() (*model.Session, string) {
	if b.MovieID == 0 {
		return nil, "movie_id is required"
	}
	if b.RoomID == 0 {
		return nil, "room_id is required"
	}
	start, err := parseWhen(b.StartTime)
	if err != nil {
		return nil, "start_time must be an RFC 3339 timestamp"
	}
	exhibition := strings.TrimSpace(b.ExhibitionType)
	if exhibition == "" {
		return nil, "exhibition_type is required"
	}
	status := strings.TrimSpace(b.Status)
	if status == "" {
		status = model.SessionScheduled // new sessions default to scheduled
	}
	switch status {
	case model.SessionScheduled, model.SessionCancelled, model.SessionFinished:
	default:
		return nil, "status must be one of scheduled, cancelled, finished"
	}
	if b.BasePrice.IsNegative() {
		return nil, "base_price cannot be negative"
	}
	return &model.Session{
		MovieID:          b.MovieID,
		RoomID:           b.RoomID,
		StartTime:        start,
		ExhibitionType:   exhibition,
		AudioLanguage:    strings.TrimSpace(b.AudioLanguage),
		SubtitleLanguage: strings.TrimSpace(b.SubtitleLanguage),
		Status:           status,
		BasePrice:        b.BasePrice,
	}, ""
}

// checkSessionRefs verifies the movie and room a session points at
// actually exist, so a dangling reference can never be written.
func (h *EntityHandler) checkSessionRefs(c echo.Context, s *model.Session) (error, bool) {
	ctx := c.Request().Context()
	if _, err := h.Movies.GetByID(ctx, s.MovieID); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"}), false
		}
		return writeError(c, err), false
	}
	if _, err := h.Rooms.GetByID(ctx, s.RoomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"}), false
		}
		return writeError(c, err), false
	}
	return nil, true
}

// CreateSession handles POST /v1/sessions.
func (h *EntityHandler) CreateSession(c echo.Context) error {
	var body sessionBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	session, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if resp, ok := h.checkSessionRefs(c, session); !ok {
		return resp
	}
	if err := h.Sessions.Create(c.Request().Context(), session); err != nil {
		h.Log.StoreOp("INSERT", "sessions", err, map[string]any{"movie_id": session.MovieID, "room_id": session.RoomID})
		return writeError(c, err)
	}
	h.Log.StoreOp("INSERT", "sessions", nil, map[string]any{"id": session.ID})
	return c.JSON(http.StatusCreated, session)
}

// GetSession handles GET /v1/sessions/:id.
func (h *EntityHandler) GetSession(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	session, err := h.Sessions.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// ListSessions handles GET /v1/sessions with filtering and pagination.
// Useful filters: status=scheduled, movie_id=3, after_start_time=...
func (h *EntityHandler) ListSessions(c echo.Context) error {
	sessions, err := h.Sessions.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if params := filterParams(c); len(params) > 0 {
		f, err := query.NewFilter(h.Schemas[store.Sessions], params)
		if err != nil {
			return writeError(c, err)
		}
		sessions = query.Select(f, sessions)
	}
	req, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	items, info, err := query.Paginate(sessions, req, h.MaxPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": info})
}

// CountSessions handles GET /v1/sessions/count.
func (h *EntityHandler) CountSessions(c echo.Context) error {
	n, err := h.Sessions.Count(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_sessions": n})
}

// UpdateSession handles PUT /v1/sessions/:id.
func (h *EntityHandler) UpdateSession(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body sessionBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	session, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if resp, ok := h.checkSessionRefs(c, session); !ok {
		return resp
	}
	session.ID = id
	if err := h.Sessions.Update(c.Request().Context(), session); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		h.Log.StoreOp("UPDATE", "sessions", err, map[string]any{"id": id})
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// DeleteSession handles DELETE /v1/sessions/:id. Sessions with sold
// tickets are kept for reporting; cancel them instead.
func (h *EntityHandler) DeleteSession(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Sessions.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			h.Log.RuleViolation("session_delete_blocked", "session still has tickets", map[string]any{"session_id": id})
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "session still has tickets"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
