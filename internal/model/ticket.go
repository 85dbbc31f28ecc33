package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Ticket type values.
const (
	TicketFull  = "full"
	TicketHalf  = "half"
	TicketPromo = "promo"
)

// Ticket represents one sold or reserved seat in a session. The actual
// money movement lives on PaymentDetails; a ticket without a completed
// payment contributes to seat counts but never to revenue.
type Ticket struct {
	ID           uint64          `json:"id"`            // tickets.id
	SessionID    uint64          `json:"session_id"`    // tickets.session_id
	SeatCode     string          `json:"seat_code"`     // tickets.seat_code
	TicketType   string          `json:"ticket_type"`   // tickets.ticket_type
	Price        decimal.Decimal `json:"price"`         // tickets.price
	PurchaseTime time.Time       `json:"purchase_time"` // tickets.purchase_time
	CreatedAt    time.Time       `json:"created_at"`    // tickets.created_at
	UpdatedAt    time.Time       `json:"updated_at"`    // tickets.updated_at
}

// EntityID implements store.Record.
func (t *Ticket) EntityID() uint64 { return t.ID }

var _ store.Record = (*Ticket)(nil)
