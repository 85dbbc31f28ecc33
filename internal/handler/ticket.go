package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/repository"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

type ticketBody struct {
	SessionID    uint64          `json:"session_id"`
	SeatCode     string          `json:"seat_code"`
	TicketType   string          `json:"ticket_type"`
	Price        decimal.Decimal `json:"price"`
	PurchaseTime string          `json:"purchase_time"`
}

func (b *ticketBody) validate() (*model.Ticket, string) {
	if b.SessionID == 0 {
		return nil, "session_id is required"
	}
	seat := strings.ToUpper(strings.TrimSpace(b.SeatCode))
	if seat == "" {
		return nil, "seat_code is required"
	}
	kind := strings.TrimSpace(b.TicketType)
	switch kind {
	case model.TicketFull, model.TicketHalf, model.TicketPromo:
	default:
		return nil, "ticket_type must be one of full, half, promo"
	}
	if b.Price.IsNegative() {
		return nil, "price cannot be negative"
	}
	purchased := time.Now().UTC() // sale time defaults to now
	if b.PurchaseTime != "" {
		t, err := parseWhen(b.PurchaseTime)
		if err != nil {
			return nil, "purchase_time must be an RFC 3339 timestamp"
		}
		purchased = t
	}
	return &model.Ticket{
		SessionID:    b.SessionID,
		SeatCode:     seat,
		TicketType:   kind,
		Price:        b.Price,
		PurchaseTime: purchased,
	}, ""
}

// checkTicketRefs verifies the session a ticket points at exists.
func (h *EntityHandler) checkTicketRefs(c echo.Context, t *model.Ticket) (error, bool) {
	if _, err := h.Sessions.GetByID(c.Request().Context(), t.SessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"}), false
		}
		return writeError(c, err), false
	}
	return nil, true
}

// CreateTicket handles POST /v1/tickets. The same seat cannot be sold
// twice for one session; the unique index reports that as a conflict.
func (h *EntityHandler) CreateTicket(c echo.Context) error {
	var body ticketBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ticket, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if resp, ok := h.checkTicketRefs(c, ticket); !ok {
		return resp
	}
	if err := h.Tickets.Create(c.Request().Context(), ticket); err != nil {
		if strings.Contains(err.Error(), "1062") { // duplicate seat for this session
			h.Log.RuleViolation("ticket_seat_taken", "seat already sold for session",
				map[string]any{"session_id": ticket.SessionID, "seat_code": ticket.SeatCode})
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "seat already sold for this session"})
		}
		h.Log.StoreOp("INSERT", "tickets", err, map[string]any{"session_id": ticket.SessionID, "seat_code": ticket.SeatCode})
		return writeError(c, err)
	}
	h.Log.StoreOp("INSERT", "tickets", nil, map[string]any{"id": ticket.ID, "seat_code": ticket.SeatCode})
	return c.JSON(http.StatusCreated, ticket)
}

// GetTicket handles GET /v1/tickets/:id.
func (h *EntityHandler) GetTicket(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ticket, err := h.Tickets.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// ListTickets handles GET /v1/tickets with filtering and pagination.
func (h *EntityHandler) ListTickets(c echo.Context) error {
	tickets, err := h.Tickets.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	if params := filterParams(c); len(params) > 0 {
		f, err := query.NewFilter(h.Schemas[store.Tickets], params)
		if err != nil {
			return writeError(c, err)
		}
		tickets = query.Select(f, tickets)
	}
	req, err := pageParams(c)
	if err != nil {
		return writeError(c, err)
	}
	items, info, err := query.Paginate(tickets, req, h.MaxPage)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "page": info})
}

// CountTickets handles GET /v1/tickets/count.
func (h *EntityHandler) CountTickets(c echo.Context) error {
	n, err := h.Tickets.Count(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total_tickets": n})
}

// UpdateTicket handles PUT /v1/tickets/:id.
func (h *EntityHandler) UpdateTicket(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body ticketBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ticket, msg := body.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if resp, ok := h.checkTicketRefs(c, ticket); !ok {
		return resp
	}
	ticket.ID = id
	if err := h.Tickets.Update(c.Request().Context(), ticket); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "seat already sold for this session"})
		}
		h.Log.StoreOp("UPDATE", "tickets", err, map[string]any{"id": id})
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// DeleteTicket handles DELETE /v1/tickets/:id. Paid tickets cannot be
// deleted while their payment rows exist.
func (h *EntityHandler) DeleteTicket(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Tickets.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		if errors.Is(err, repository.ErrConflict) {
			h.Log.RuleViolation("ticket_delete_blocked", "ticket still has payments", map[string]any{"ticket_id": id})
			return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": "ticket still has payments"})
		}
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
