package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/repository"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

type roomBody struct {
	Name        string `json:"name"`
	Capacity    uint32 `json:"capacity"`
	ScreenType  string `json:"screen_type"`
	AudioSystem string `json:"audio_system"`
	Accessible  bool   `json:"accessible"`
}

func (b *roomBody) validate() (*model.Room, string) {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return nil, "name is required"
	}
	// Capacity is the occupancy denominator in the revenue report, a
	// zero would make the rate undefined.
	if b.Capacity == 0 {
		return nil, "capacity must be positive"
	}
	return &model.Room{
		Name:        name,
		Capacity:    b.Capacity,
		ScreenType:  strings.TrimSpace(b.ScreenType),
		AudioSystem: strings.TrimSpace(b.AudioSystem),
		Accessible:  b.Accessible,
	}, ""
}

// CreateRoom handles POST /v1/rooms.
func (h *EntityHandler) CreateRoom(c echo.Context) error {
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	room, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Rooms.Create(c.Request().Context(), room); err != nil {
		h.Log.StoreOp("INSERT", "rooms", err, map[string]any{"name": room.Name})
		return writeError(c, err)
	}
	h.Log.StoreOp("INSERT", "rooms", nil, map[string]any{"id": room.ID, "name": room.Name})
	return c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /v1/rooms/:id.
func (h *EntityHandler) GetRoom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.Rooms.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// ListRooms handles GET /v1/rooms with filtering and pagination.
func (h *EntityHandler) ListRooms(c echo.Context) error {
	rooms, err := h.Rooms.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if params := filterParams(c); len(params) > 0 {
		f, err := query.NewFilter(h.Schemas[store.Rooms], params)
		if err != nil {
			return writeError(c, err)
		}
		rooms = query.Select(f, rooms)
	}
	req, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	items, info, err := query.Paginate(rooms, req, h.MaxPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": info})
}

// CountRooms handles GET /v1/rooms/count.
func (h *EntityHandler) CountRooms(c echo.Context) error {
	n, err := h.Rooms.Count(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_rooms": n})
}

// UpdateRoom handles PUT /v1/rooms/:id.
func (h *EntityHandler) UpdateRoom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body roomBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	room, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	room.ID = id
	if err := h.Rooms.Update(c.Request().Context(), room); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		h.Log.StoreOp("UPDATE", "rooms", err, map[string]any{"id": id})
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /v1/rooms/:id. Rooms with scheduled or past
// sessions cannot be removed.
func (h *EntityHandler) DeleteRoom(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Rooms.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			h.Log.RuleViolation("room_delete_blocked", "room still has sessions", map[string]any{"room_id": id})
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "room still has sessions"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
