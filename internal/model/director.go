package model

import (
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Director represents a film director. A director owns zero or more
// movies (1:N, director is the parent) but deleting a director never
// cascades; the CRUD layer refuses the delete while movies still
// reference it.
type Director struct {
	ID          uint64    `json:"id"`          // directors.id
	Name        string    `json:"name"`        // directors.name
	Nationality string    `json:"nationality"` // directors.nationality
	BirthDate   time.Time `json:"birth_date"`  // directors.birth_date
	Biography   *string   `json:"biography"`   // directors.biography (nullable)
	Website     *string   `json:"website"`     // directors.website (nullable)
	CreatedAt   time.Time `json:"created_at"`  // directors.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // directors.updated_at
}

// EntityID implements store.Record.
func (d *Director) EntityID() uint64 { return d.ID }

var _ store.Record = (*Director)(nil)
