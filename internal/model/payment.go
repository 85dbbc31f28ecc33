package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Payment status values. Only completed payments count toward revenue.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentRefused   = "refused"
	PaymentRefunded  = "refunded"
)

// Payment method values.
const (
	MethodCard = "card"
	MethodCash = "cash"
	MethodPix  = "pix"
)

// PaymentDetails records the settlement of one ticket. The relation is
// 1:1 for a successful purchase but is stored and traversed as 1:N so a
// refund row beside the original payment cannot break counting; revenue
// metrics deduplicate by ticket.
type PaymentDetails struct {
	ID            uint64          `json:"id"`             // payments.id
	TicketID      uint64          `json:"ticket_id"`      // payments.ticket_id
	TransactionID string          `json:"transaction_id"` // payments.transaction_id
	Amount        decimal.Decimal `json:"amount"`         // payments.amount
	Method        string          `json:"method"`         // payments.method
	Status        string          `json:"status"`         // payments.status
	PaidAt        *time.Time      `json:"paid_at"`        // payments.paid_at (nullable)
	CreatedAt     time.Time       `json:"created_at"`     // payments.created_at
	UpdatedAt     time.Time       `json:"updated_at"`     // payments.updated_at
}

// EntityID implements store.Record.
func (p *PaymentDetails) EntityID() uint64 { return p.ID }

var _ store.Record = (*PaymentDetails)(nil)
