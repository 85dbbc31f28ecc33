package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
)

// ErrTicketNotFound is returned when a ticket cannot be found in the DB.
var ErrTicketNotFound = errors.New("ticket not found")

// TicketRepo encapsulates all database queries related to tickets.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the provided DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

const ticketColumns = "id, session_id, seat_code, ticket_type, price, purchase_time, created_at, updated_at"

func scanTicket(row interface{ Scan(...any) error }) (*model.Ticket, error) {
	t := new(model.Ticket)
	err := row.Scan(&t.ID, &t.SessionID, &t.SeatCode, &t.TicketType,
		&t.Price, &t.PurchaseTime, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create inserts a new ticket and refreshes the record from the DB.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	const qInsert = `INSERT INTO tickets (session_id, seat_code, ticket_type, price, purchase_time)
	                 VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, t.SessionID, t.SeatCode, t.TicketType, t.Price, t.PurchaseTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)

	const qSelect = "SELECT " + ticketColumns + " FROM tickets WHERE id = ?"
	got, err := scanTicket(r.db.QueryRowContext(ctx, qSelect, t.ID))
	if err != nil {
		return err
	}
	*t = *got
	return nil
}

// GetByID fetches a ticket by id, returning ErrTicketNotFound when no
// row matches.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	const q = "SELECT " + ticketColumns + " FROM tickets WHERE id = ?"
	t, err := scanTicket(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return t, nil
}

// List returns all tickets ordered by id.
func (r *TicketRepo) List(ctx context.Context) ([]*model.Ticket, error) {
	const q = "SELECT " + ticketColumns + " FROM tickets ORDER BY id"
	return r.queryMany(ctx, q)
}

// ListBySession returns all tickets of one session ordered by id.
func (r *TicketRepo) ListBySession(ctx context.Context, sessionID uint64) ([]*model.Ticket, error) {
	const q = "SELECT " + ticketColumns + " FROM tickets WHERE session_id = ? ORDER BY id"
	return r.queryMany(ctx, q, sessionID)
}

func (r *TicketRepo) queryMany(ctx context.Context, q string, args ...any) ([]*model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of tickets.
func (r *TicketRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets").Scan(&n)
	return n, err
}

// Update replaces every mutable column of the ticket.
func (r *TicketRepo) Update(ctx context.Context, t *model.Ticket) error {
	const q = `UPDATE tickets
	           SET session_id = ?, seat_code = ?, ticket_type = ?, price = ?,
	               purchase_time = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.SessionID, t.SeatCode, t.TicketType, t.Price, t.PurchaseTime, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}

	const qSelect = "SELECT " + ticketColumns + " FROM tickets WHERE id = ?"
	got, err := scanTicket(r.db.QueryRowContext(ctx, qSelect, t.ID))
	if err != nil {
		return err
	}
	*t = *got
	return nil
}

// Delete removes a ticket unless payments still reference it, in which
// case it fails with ErrConflict.
func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var payments int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments WHERE ticket_id = ?", id).Scan(&payments); err != nil {
		return err
	}
	if payments > 0 {
		return ErrConflict
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTicketNotFound
	}
	return tx.Commit()
}
