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

type directorBody struct {
	Name        string  `json:"name"`
	Nationality string  `json:"nationality"`
	BirthDate   string  `json:"birth_date"`
	Biography   *string `json:"biography"`
	Website     *string `json:"website"`
}

func (b *directorBody) validate() (*model.Director, string) {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return nil, "name is required"
	}
	nationality := strings.TrimSpace(b.Nationality)
	if nationality == "" {
		return nil, "nationality is required"
	}
	born, err := parseDate(b.BirthDate)
	if err != nil {
		return nil, "birth_date must be a date like 2006-01-02"
	}
	return &model.Director{
		Name:        name,
		Nationality: nationality,
		BirthDate:   born,
		Biography:   b.Biography,
		Website:     b.Website,
	}, ""
}

// CreateDirector handles POST /v1/directors.
func (h *EntityHandler) CreateDirector(c echo.Context) error {
	var body directorBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	director, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if err := h.Directors.Create(c.Request().Context(), director); err != nil {
		h.Log.StoreOp("INSERT", "directors", err, map[string]any{"name": director.Name})
		return writeError(c, err)
	}
	h.Log.StoreOp("INSERT", "directors", nil, map[string]any{"id": director.ID, "name": director.Name})
	return c.JSON(http.StatusCreated, director)
}

// GetDirector handles GET /v1/directors/:id.
func (h *EntityHandler) GetDirector(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	director, err := h.Directors.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDirectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "director not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, director)
}

// ListDirectors handles GET /v1/directors with filtering and pagination.
func (h *EntityHandler) ListDirectors(c echo.Context) error {
	directors, err := h.Directors.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if params := filterParams(c); len(params) > 0 {
		f, err := query.NewFilter(h.Schemas[store.Directors], params)
		if err != nil {
			return writeError(c, err)
		}
		directors = query.Select(f, directors)
	}
	req, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	items, info, err := query.Paginate(directors, req, h.MaxPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": info})
}

// CountDirectors handles GET /v1/directors/count.
func (h *EntityHandler) CountDirectors(c echo.Context) error {
	n, err := h.Directors.Count(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_directors": n})
}

// UpdateDirector handles PUT /v1/directors/:id.
func (h *EntityHandler) UpdateDirector(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body directorBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	director, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	director.ID = id
	if err := h.Directors.Update(c.Request().Context(), director); err != nil {
		if errors.Is(err, repository.ErrDirectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "director not found"})
		}
		h.Log.StoreOp("UPDATE", "directors", err, map[string]any{"id": id})
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, director)
}

// DeleteDirector handles DELETE /v1/directors/:id. Directors with
// movies in the catalog cannot be removed.
func (h *EntityHandler) DeleteDirector(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Directors.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrDirectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "director not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			h.Log.RuleViolation("director_delete_blocked", "director still has movies", map[string]any{"director_id": id})
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "director still has movies"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
