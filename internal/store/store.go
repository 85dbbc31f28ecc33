// Package store defines the read-only entity lookup surface consumed by the
// query engine and the report assemblers. These sentinel values and the
// Store interface let higher layers distinguish between "the record does
// not exist" and "the backend could not answer", which map to very
// different user-visible failures. Implementations must return sequences
// ordered by ascending id so that joined, aggregated and paginated results
// stay deterministic across calls.
package store

import (
	"context"
	"errors"
)

// EntityType names one of the persisted record collections. The values
// match the underlying table names.
type EntityType string

const (
	Movies    EntityType = "movies"
	Directors EntityType = "directors"
	Rooms     EntityType = "rooms"
	Sessions  EntityType = "sessions"
	Tickets   EntityType = "tickets"
	Payments  EntityType = "payments"
)

// Record is a single entity row. Concrete types live in internal/model;
// the query engine only ever needs the primary key directly, everything
// else goes through the per-entity field schemas.
type Record interface {
	EntityID() uint64
}

// ErrNotFound is returned by Get when no record has the requested id.
// Handlers should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("record not found")

// ErrUnavailable wraps timeouts and transient backend failures. The
// condition is retryable; handlers should translate it into an HTTP 503
// response rather than a generic server error.
var ErrUnavailable = errors.New("store unavailable")

// Store is the lookup contract the join resolver runs against. All three
// operations are read-only; ListByForeignKey and ListAll return their
// records ordered by ascending id.
type Store interface {
	// Get fetches a single record by primary key. A missing id yields an
	// error matching ErrNotFound.
	Get(ctx context.Context, entity EntityType, id uint64) (Record, error)
	// ListByForeignKey fetches every record of entity whose fkField column
	// holds fkValue.
	ListByForeignKey(ctx context.Context, entity EntityType, fkField string, fkValue uint64) ([]Record, error)
	// ListAll fetches the whole collection for entity.
	ListAll(ctx context.Context, entity EntityType) ([]Record, error)
}
