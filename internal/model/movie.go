package model

import (
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Movie represents a film in the catalog. Every movie is directed by
// exactly one director; sessions reference the movie they screen. The
// analytical layer reads movies through the field schema in schema.go,
// so renaming a column here means updating both files.
//
// Fields:
//  ID              – primary key identifier.
//  Title           – film title.
//  Genre           – free-text genre label.
//  DurationMinutes – running time in minutes.
//  ReleaseDate     – theatrical release day (date precision).
//  Rating          – review score, 0 to 10.
//  Synopsis        – optional plot summary.
//  DirectorID      – director who made the film.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Movie struct {
	ID              uint64    `json:"id"`               // movies.id
	Title           string    `json:"title"`            // movies.title
	Genre           string    `json:"genre"`            // movies.genre
	DurationMinutes uint32    `json:"duration_minutes"` // movies.duration_minutes
	ReleaseDate     time.Time `json:"release_date"`     // movies.release_date
	Rating          float64   `json:"rating"`           // movies.rating
	Synopsis        *string   `json:"synopsis"`         // movies.synopsis (nullable)
	DirectorID      uint64    `json:"director_id"`      // movies.director_id
	CreatedAt       time.Time `json:"created_at"`       // movies.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // movies.updated_at
}

// EntityID implements store.Record.
func (m *Movie) EntityID() uint64 { return m.ID }

var _ store.Record = (*Movie)(nil)
