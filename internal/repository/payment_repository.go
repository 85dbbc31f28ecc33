package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
)

// ErrPaymentNotFound is returned when a payment cannot be found in the DB.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo encapsulates all database queries related to payments.
// Payments are leaves of the entity graph, so Delete needs no conflict
// check.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the provided DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

const paymentColumns = "id, ticket_id, transaction_id, amount, method, status, paid_at, created_at, updated_at"

func scanPayment(row interface{ Scan(...any) error }) (*model.PaymentDetails, error) {
	p := new(model.PaymentDetails)
	err := row.Scan(&p.ID, &p.TicketID, &p.TransactionID, &p.Amount,
		&p.Method, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new payment and refreshes the record from the DB.
func (r *PaymentRepo) Create(ctx context.Context, p *model.PaymentDetails) error {
	const qInsert = `INSERT INTO payments (ticket_id, transaction_id, amount, method, status, paid_at)
	                 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert, p.TicketID, p.TransactionID, p.Amount, p.Method, p.Status, p.PaidAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = "SELECT " + paymentColumns + " FROM payments WHERE id = ?"
	got, err := scanPayment(r.db.QueryRowContext(ctx, qSelect, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID fetches a payment by id, returning ErrPaymentNotFound when no
// row matches.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.PaymentDetails, error) {
	const q = "SELECT " + paymentColumns + " FROM payments WHERE id = ?"
	p, err := scanPayment(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns all payments ordered by id.
func (r *PaymentRepo) List(ctx context.Context) ([]*model.PaymentDetails, error) {
	const q = "SELECT " + paymentColumns + " FROM payments ORDER BY id"
	return r.queryMany(ctx, q)
}

// ListByTicket returns all payment attempts against one ticket ordered
// by id. A ticket normally has at most one completed payment but may
// accumulate refused attempts before it.
func (r *PaymentRepo) ListByTicket(ctx context.Context, ticketID uint64) ([]*model.PaymentDetails, error) {
	const q = "SELECT " + paymentColumns + " FROM payments WHERE ticket_id = ? ORDER BY id"
	return r.queryMany(ctx, q, ticketID)
}

func (r *PaymentRepo) queryMany(ctx context.Context, q string, args ...any) ([]*model.PaymentDetails, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PaymentDetails
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of payments.
func (r *PaymentRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM payments").Scan(&n)
	return n, err
}

// Update replaces every mutable column of the payment.
func (r *PaymentRepo) Update(ctx context.Context, p *model.PaymentDetails) error {
	const q = `UPDATE payments
	           SET ticket_id = ?, transaction_id = ?, amount = ?, method = ?,
	               status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.TicketID, p.TransactionID, p.Amount, p.Method, p.Status, p.PaidAt, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}

	const qSelect = "SELECT " + paymentColumns + " FROM payments WHERE id = ?"
	got, err := scanPayment(r.db.QueryRowContext(ctx, qSelect, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// Delete removes a payment by id.
func (r *PaymentRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM payments WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
