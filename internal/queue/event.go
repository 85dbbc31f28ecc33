// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketSoldEvent is published when a payment against a ticket reaches
// the completed status. It carries enough context for downstream
// consumers to log or trigger follow-up work without querying the
// primary database.
type TicketSoldEvent struct {
	PaymentID     uint64 `json:"payment_id"`
	TicketID      uint64 `json:"ticket_id"`
	SessionID     uint64 `json:"session_id"`
	TransactionID string `json:"transaction_id"`
	SeatCode      string `json:"seat_code"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	PaidAt        string `json:"paid_at"`
}
