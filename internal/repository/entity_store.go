package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// EntityStore adapts the six SQL repositories to the store.Store lookup
// contract consumed by the query engine. Every repository list method
// already orders by ascending id, which is exactly the ordering the
// contract asks for, so the adapter only dispatches and translates
// errors: per-entity not-found sentinels become store.ErrNotFound and
// driver failures become store.ErrUnavailable so that report handlers
// can answer 404 versus 503 without knowing about database/sql.
type EntityStore struct {
	movies    *MovieRepo
	directors *DirectorRepo
	rooms     *RoomRepo
	sessions  *SessionRepo
	tickets   *TicketRepo
	payments  *PaymentRepo
}

// NewEntityStore bundles the repositories behind the store.Store interface.
func NewEntityStore(movies *MovieRepo, directors *DirectorRepo, rooms *RoomRepo,
	sessions *SessionRepo, tickets *TicketRepo, payments *PaymentRepo) *EntityStore {
	return &EntityStore{
		movies:    movies,
		directors: directors,
		rooms:     rooms,
		sessions:  sessions,
		tickets:   tickets,
		payments:  payments,
	}
}

var _ store.Store = (*EntityStore)(nil)

// Get fetches a single record by primary key.
func (s *EntityStore) Get(ctx context.Context, entity store.EntityType, id uint64) (store.Record, error) {
	switch entity {
	case store.Movies:
		return asRecord(s.movies.GetByID(ctx, id))
	case store.Directors:
		return asRecord(s.directors.GetByID(ctx, id))
	case store.Rooms:
		return asRecord(s.rooms.GetByID(ctx, id))
	case store.Sessions:
		return asRecord(s.sessions.GetByID(ctx, id))
	case store.Tickets:
		return asRecord(s.tickets.GetByID(ctx, id))
	case store.Payments:
		return asRecord(s.payments.GetByID(ctx, id))
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
}

// ListByForeignKey fetches every record of entity whose fkField column
// holds fkValue. Only the foreign keys declared in the entity schemas
// are reachable here; anything else is a wiring bug and fails loudly.
func (s *EntityStore) ListByForeignKey(ctx context.Context, entity store.EntityType, fkField string, fkValue uint64) ([]store.Record, error) {
	switch {
	case entity == store.Movies && fkField == "director_id":
		return asRecords(s.movies.ListByDirector(ctx, fkValue))
	case entity == store.Sessions && fkField == "movie_id":
		return asRecords(s.sessions.ListByMovie(ctx, fkValue))
	case entity == store.Sessions && fkField == "room_id":
		return asRecords(s.sessions.ListByRoom(ctx, fkValue))
	case entity == store.Tickets && fkField == "session_id":
		return asRecords(s.tickets.ListBySession(ctx, fkValue))
	case entity == store.Payments && fkField == "ticket_id":
		return asRecords(s.payments.ListByTicket(ctx, fkValue))
	default:
		return nil, fmt.Errorf("entity %q has no foreign key %q", entity, fkField)
	}
}

// ListAll fetches the whole collection for entity.
func (s *EntityStore) ListAll(ctx context.Context, entity store.EntityType) ([]store.Record, error) {
	switch entity {
	case store.Movies:
		return asRecords(s.movies.List(ctx))
	case store.Directors:
		return asRecords(s.directors.List(ctx))
	case store.Rooms:
		return asRecords(s.rooms.List(ctx))
	case store.Sessions:
		return asRecords(s.sessions.List(ctx))
	case store.Tickets:
		return asRecords(s.tickets.List(ctx))
	case store.Payments:
		return asRecords(s.payments.List(ctx))
	default:
		return nil, fmt.Errorf("unknown entity %q", entity)
	}
}

func asRecord[T store.Record](rec T, err error) (store.Record, error) {
	if err != nil {
		return nil, storeErr(err)
	}
	return rec, nil
}

func asRecords[T store.Record](recs []T, err error) ([]store.Record, error) {
	if err != nil {
		return nil, storeErr(err)
	}
	out := make([]store.Record, len(recs))
	for i, rec := range recs {
		out[i] = rec
	}
	return out, nil
}

// storeErr translates repository errors into the store taxonomy.
// Context cancellation passes through untouched so callers can tell a
// dead client apart from a dead database.
func storeErr(err error) error {
	switch {
	case errors.Is(err, ErrMovieNotFound),
		errors.Is(err, ErrDirectorNotFound),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrPaymentNotFound):
		return store.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
}
