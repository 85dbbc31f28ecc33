package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/queue"
	"github.com/Jaum1981/cinema-analytics-api/internal/repository"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

type paymentBody struct {
	TicketID      uint64          `json:"ticket_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	PaidAt        string          `json:"paid_at"`
}

func (b *paymentBody) validate() (*model.PaymentDetails, string) {
	if b.TicketID == 0 {
		return nil, "ticket_id is required"
	}
	txn := strings.TrimSpace(b.TransactionID)
	if txn == "" {
		txn = uuid.NewString() // gateway reference, generated when the caller has none
	}
	if b.Amount.IsNegative() {
		return nil, "amount cannot be negative"
	}
	method := strings.TrimSpace(b.Method)
	switch method {
	case model.MethodCard, model.MethodCash, model.MethodPix:
	default:
		return nil, "method must be one of card, cash, pix"
	}
	status := strings.TrimSpace(b.Status)
	if status == "" {
		status = model.PaymentPending
	}
	switch status {
	case model.PaymentPending, model.PaymentCompleted, model.PaymentRefused, model.PaymentRefunded:
	default:
		return nil, "status must be one of pending, completed, refused, refunded"
	}
	var paidAt *time.Time
	if b.PaidAt != "" {
		t, err := parseWhen(b.PaidAt)
		if err != nil {
			return nil, "paid_at must be an RFC 3339 timestamp"
		}
		paidAt = &t
	} else if status == model.PaymentCompleted {
		now := time.Now().UTC() // completed payments always carry a settlement time
		paidAt = &now
	}
	return &model.PaymentDetails{
		TicketID:      b.TicketID,
		TransactionID: txn,
		Amount:        b.Amount,
		Method:        method,
		Status:        status,
		PaidAt:        paidAt,
	}, ""
}

// checkPaymentRefs verifies the ticket exists and returns it; the
// ticket carries the session and seat for the sale event.
func (h *EntityHandler) checkPaymentRefs(c echo.Context, p *model.PaymentDetails) (*model.Ticket, error, bool) {
	ticket, err := h.Tickets.GetByID(c.Request().Context(), p.TicketID)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"}), false
		}
		return nil, writeError(c, err), false
	}
	return ticket, nil, true
}

// announceSale publishes a ticket.sold event for a completed payment.
// Publishing happens off the request goroutine; a broker outage slows
// down nothing and loses only the event, never the payment.
func (h *EntityHandler) announceSale(p *model.PaymentDetails, t *model.Ticket) {
	if h.PublishSale == nil || p.Status != model.PaymentCompleted {
		return
	}
	ev := queue.TicketSoldEvent{
		PaymentID:     p.ID,
		TicketID:      t.ID,
		SessionID:     t.SessionID,
		TransactionID: p.TransactionID,
		SeatCode:      t.SeatCode,
		Amount:        p.Amount.StringFixed(2),
		Method:        p.Method,
	}
	if p.PaidAt != nil {
		ev.PaidAt = p.PaidAt.UTC().Format(time.RFC3339)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.PublishSale(ctx, ev); err != nil {
			h.Log.Warning("sale event not published: %v", err)
		}
	}()
}

// CreatePayment handles POST /v1/payments. Recording a completed
// payment is what turns a ticket into revenue, so this is also where
// the sale event fires.
func (h *EntityHandler) CreatePayment(c echo.Context) error {
	var body paymentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	payment, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ticket, resp, ok := h.checkPaymentRefs(c, payment)
	if !ok {
		return resp
	}
	if err := h.Payments.Create(c.Request().Context(), payment); err != nil {
		if strings.Contains(err.Error(), "1062") { // transaction ids are unique
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "transaction_id already recorded"})
		}
		h.Log.StoreOp("INSERT", "payments", err, map[string]any{"ticket_id": payment.TicketID})
		return writeError(c, err)
	}
	h.Log.StoreOp("INSERT", "payments", nil, map[string]any{"id": payment.ID, "status": payment.Status})
	h.announceSale(payment, ticket)
	return c.JSON(http.StatusCreated, payment)
}

// GetPayment handles GET /v1/payments/:id.
func (h *EntityHandler) GetPayment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	payment, err := h.Payments.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, payment)
}

// ListPayments handles GET /v1/payments with filtering and pagination.
func (h *EntityHandler) ListPayments(c echo.Context) error {
	payments, err := h.Payments.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if params := filterParams(c); len(params) > 0 {
		f, err := query.NewFilter(h.Schemas[store.Payments], params)
		if err != nil {
			return writeError(c, err)
		}
		payments = query.Select(f, payments)
	}
	req, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	items, info, err := query.Paginate(payments, req, h.MaxPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": info})
}

// CountPayments handles GET /v1/payments/count.
func (h *EntityHandler) CountPayments(c echo.Context) error {
	n, err := h.Payments.Count(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_payments": n})
}

// UpdatePayment handles PUT /v1/payments/:id. Moving a payment into the
// completed status fires the sale event exactly as create does.
func (h *EntityHandler) UpdatePayment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body paymentBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	payment, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	ticket, resp, ok := h.checkPaymentRefs(c, payment)
	if !ok {
		return resp
	}
	before, err := h.Payments.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return writeError(c, err)
	}
	payment.ID = id
	if err := h.Payments.Update(c.Request().Context(), payment); err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "transaction_id already recorded"})
		}
		h.Log.StoreOp("UPDATE", "payments", err, map[string]any{"id": id})
		return writeError(c, err)
	}
	if before.Status != model.PaymentCompleted {
		h.announceSale(payment, ticket)
	}
	return c.JSON(http.StatusOK, payment)
}

// DeletePayment handles DELETE /v1/payments/:id. Payments are leaves in
// the graph, nothing blocks their removal.
func (h *EntityHandler) DeletePayment(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Payments.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
