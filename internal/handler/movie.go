package handler

import (
	"errors"      // errors.Is against repository sentinels
	"net/http"    // status code constants
	"strings"     // trimming and duplicate-key detection

	"github.com/labstack/echo/v4" // web framework used for handlers

	"github.com/Jaum1981/cinema-analytics-api/internal/model"      // entity structs
	"github.com/Jaum1981/cinema-analytics-api/internal/query"      // filter evaluator and pagination engine
	"github.com/Jaum1981/cinema-analytics-api/internal/repository" // repositories and their sentinels
	"github.com/Jaum1981/cinema-analytics-api/internal/store"      // entity type constants for schema lookup
)

// movieBody is the JSON payload for creating or replacing a movie.
type movieBody struct {
	Title           string  `json:"title"`            // film title, required
	Genre           string  `json:"genre"`            // genre label, required
	DurationMinutes uint32  `json:"duration_minutes"` // running time, must be positive
	ReleaseDate     string  `json:"release_date"`     // calendar date, 2006-01-02
	Rating          float64 `json:"rating"`           // review score 0..10
	Synopsis        *string `json:"synopsis"`         // optional plot summary
	DirectorID      uint64  `json:"director_id"`      // must reference an existing director
}

// validate checks the payload and converts the release date. It returns
// a user-facing message when something is off.
func (b *movieBody) validate() (*model.Movie, string) {
	title := strings.TrimSpace(b.Title) // trim spaces around the title
	if title == "" {                    // title is mandatory
		return nil, "title is required"
	}
	genre := strings.TrimSpace(b.Genre) // trim spaces around the genre
	if genre == "" {                    // genre is mandatory
		return nil, "genre is required"
	}
	if b.DurationMinutes == 0 { // a movie cannot run zero minutes
		return nil, "duration_minutes must be positive"
	}
	if b.Rating < 0 || b.Rating > 10 { // ratings live on a 0..10 scale
		return nil, "rating must be between 0 and 10"
	}
	released, err := parseDate(b.ReleaseDate) // parse the release day
	if err != nil {                           // reject unparsable dates
		return nil, "release_date must be a date like 2006-01-02"
	}
	if b.DirectorID == 0 { // every movie belongs to a director
		return nil, "director_id is required"
	}
	return &model.Movie{ // build the entity from the validated input
		Title:           title,
		Genre:           genre,
		DurationMinutes: b.DurationMinutes,
		ReleaseDate:     released,
		Rating:          b.Rating,
		Synopsis:        b.Synopsis,
		DirectorID:      b.DirectorID,
	}, ""
}

// CreateMovie handles POST /v1/movies.
func (h *EntityHandler) CreateMovie(c echo.Context) error {
	var body movieBody             // payload carrier
	if err := c.Bind(&body); err != nil { // bind the request body
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	movie, msg := body.validate() // validate and convert
	if msg != "" {                // reject invalid payloads before touching the store
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Directors.GetByID(ctx, movie.DirectorID); err != nil { // the referenced director must exist
		if errors.Is(err, repository.ErrDirectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "director not found"})
		}
		return writeError(c, err)
	}
	if err := h.Movies.Create(ctx, movie); err != nil { // delegate the insert to the repository
		h.Log.StoreOp("INSERT", "movies", err, map[string]any{"title": movie.Title})
		return writeError(c, err)
	}
	h.Log.StoreOp("INSERT", "movies", nil, map[string]any{"id": movie.ID, "title": movie.Title})
	return c.JSON(http.StatusCreated, movie) // return 201 and the stored record
}

// GetMovie handles GET /v1/movies/:id.
func (h *EntityHandler) GetMovie(c echo.Context) error {
	id, err := parseID(c) // parse the numeric identifier
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	movie, err := h.Movies.GetByID(c.Request().Context(), id) // load the record
	if err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) { // unknown id
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// ListMovies handles GET /v1/movies. Query parameters other than
// page/size are filter expressions evaluated against the movie schema,
// so GET /v1/movies?genre=drama&min_rating=7&page=2 works as expected.
func (h *EntityHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context()) // fetch all movies ordered by id
	if err != nil {
		return writeError(c, err)
	}
	if params := filterParams(c); len(params) > 0 { // compile filters only when present
		f, err := query.NewFilter(h.Schemas[store.Movies], params)
		if err != nil { // unknown fields or bad values fail fast
			return writeError(c, err)
		}
		movies = query.Select(f, movies)
	}
	req, err := pageParams(c) // read the pagination window
	if err != nil {
		return writeError(c, err)
	}
	items, info, err := query.Paginate(movies, req, h.MaxPage) // slice out the page
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": info})
}

// CountMovies handles GET /v1/movies/count.
func (h *EntityHandler) CountMovies(c echo.Context) error {
	n, err := h.Movies.Count(c.Request().Context()) // count rows in the store
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_movies": n})
}

// UpdateMovie handles PUT /v1/movies/:id and replaces the mutable
// fields of a movie.
func (h *EntityHandler) UpdateMovie(c echo.Context) error {
	id, err := parseID(c) // parse the identifier first
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body movieBody
	if err := c.Bind(&body); err != nil { // bind the replacement payload
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	movie, msg := body.validate() // same rules as create
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ctx := c.Request().Context()
	if _, err := h.Directors.GetByID(ctx, movie.DirectorID); err != nil { // re-check the director reference
		if errors.Is(err, repository.ErrDirectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "director not found"})
		}
		return writeError(c, err)
	}
	movie.ID = id
	if err := h.Movies.Update(ctx, movie); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) { // nothing to update
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		h.Log.StoreOp("UPDATE", "movies", err, map[string]any{"id": id})
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, movie)
}

// DeleteMovie handles DELETE /v1/movies/:id. A movie that still has
// sessions cannot be removed; the sessions go first.
func (h *EntityHandler) DeleteMovie(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrMovieNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		if errors.Is(err, repository.ErrConflict) { // sessions still reference this movie
			h.Log.RuleViolation("movie_delete_blocked", "movie still has sessions", map[string]any{"movie_id": id})
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "movie still has sessions"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent) // 204 once the row is gone
}
