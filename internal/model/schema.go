package model

import (
	"strconv"
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Schemas declares the filterable surface and the foreign keys of every
// entity type. The registry is built once at startup and shared by the
// filter endpoints, the join resolver and the report assemblers; fields
// not listed here cannot be filtered on, and unknown query keys are
// rejected against this list.
func Schemas() query.Registry {
	return query.Registry{
		store.Movies: {
			Entity: store.Movies,
			Fields: []query.FieldDef{
				{Name: "title", Kind: query.KindString, String: str(func(m *Movie) string { return m.Title })},
				{Name: "genre", Kind: query.KindString, String: str(func(m *Movie) string { return m.Genre })},
				{Name: "duration_minutes", Kind: query.KindNumber, Number: num(func(m *Movie) float64 { return float64(m.DurationMinutes) })},
				{Name: "release_date", Kind: query.KindDate, Time: when(func(m *Movie) time.Time { return m.ReleaseDate })},
				{Name: "rating", Kind: query.KindNumber, Number: num(func(m *Movie) float64 { return m.Rating })},
				{Name: "synopsis", Kind: query.KindString, String: optStr(func(m *Movie) *string { return m.Synopsis })},
				{Name: "director_id", Kind: query.KindRef, Ref: ref(func(m *Movie) uint64 { return m.DirectorID })},
			},
		},
		store.Directors: {
			Entity: store.Directors,
			Fields: []query.FieldDef{
				{Name: "name", Kind: query.KindString, String: str(func(d *Director) string { return d.Name })},
				{Name: "nationality", Kind: query.KindString, String: str(func(d *Director) string { return d.Nationality })},
				{Name: "birth_date", Kind: query.KindDate, Time: when(func(d *Director) time.Time { return d.BirthDate })},
			},
		},
		store.Rooms: {
			Entity: store.Rooms,
			Fields: []query.FieldDef{
				{Name: "name", Kind: query.KindString, String: str(func(r *Room) string { return r.Name })},
				{Name: "capacity", Kind: query.KindNumber, Number: num(func(r *Room) float64 { return float64(r.Capacity) })},
				{Name: "screen_type", Kind: query.KindString, String: str(func(r *Room) string { return r.ScreenType })},
				{Name: "audio_system", Kind: query.KindString, String: str(func(r *Room) string { return r.AudioSystem })},
				{Name: "accessible", Kind: query.KindEnum, Enum: []string{"true", "false"},
					String: str(func(r *Room) string { return strconv.FormatBool(r.Accessible) })},
			},
		},
		store.Sessions: {
			Entity: store.Sessions,
			Fields: []query.FieldDef{
				{Name: "movie_id", Kind: query.KindRef, Ref: ref(func(s *Session) uint64 { return s.MovieID })},
				{Name: "room_id", Kind: query.KindRef, Ref: ref(func(s *Session) uint64 { return s.RoomID })},
				{Name: "start_time", Kind: query.KindTime, Time: when(func(s *Session) time.Time { return s.StartTime })},
				{Name: "exhibition_type", Kind: query.KindString, String: str(func(s *Session) string { return s.ExhibitionType })},
				{Name: "audio_language", Kind: query.KindString, String: str(func(s *Session) string { return s.AudioLanguage })},
				{Name: "subtitle_language", Kind: query.KindString, String: str(func(s *Session) string { return s.SubtitleLanguage })},
				{Name: "status", Kind: query.KindEnum, Enum: []string{SessionScheduled, SessionCancelled, SessionFinished},
					String: str(func(s *Session) string { return s.Status })},
				{Name: "base_price", Kind: query.KindNumber, Number: num(func(s *Session) float64 { return s.BasePrice.InexactFloat64() })},
			},
		},
		store.Tickets: {
			Entity: store.Tickets,
			Fields: []query.FieldDef{
				{Name: "session_id", Kind: query.KindRef, Ref: ref(func(t *Ticket) uint64 { return t.SessionID })},
				{Name: "seat_code", Kind: query.KindString, String: str(func(t *Ticket) string { return t.SeatCode })},
				{Name: "ticket_type", Kind: query.KindEnum, Enum: []string{TicketFull, TicketHalf, TicketPromo},
					String: str(func(t *Ticket) string { return t.TicketType })},
				{Name: "price", Kind: query.KindNumber, Number: num(func(t *Ticket) float64 { return t.Price.InexactFloat64() })},
				{Name: "purchase_time", Kind: query.KindTime, Time: when(func(t *Ticket) time.Time { return t.PurchaseTime })},
			},
		},
		store.Payments: {
			Entity: store.Payments,
			Fields: []query.FieldDef{
				{Name: "ticket_id", Kind: query.KindRef, Ref: ref(func(p *PaymentDetails) uint64 { return p.TicketID })},
				{Name: "transaction_id", Kind: query.KindString, String: str(func(p *PaymentDetails) string { return p.TransactionID })},
				{Name: "amount", Kind: query.KindNumber, Number: num(func(p *PaymentDetails) float64 { return p.Amount.InexactFloat64() })},
				{Name: "method", Kind: query.KindEnum, Enum: []string{MethodCard, MethodCash, MethodPix},
					String: str(func(p *PaymentDetails) string { return p.Method })},
				{Name: "status", Kind: query.KindEnum, Enum: []string{PaymentPending, PaymentCompleted, PaymentRefused, PaymentRefunded},
					String: str(func(p *PaymentDetails) string { return p.Status })},
				{Name: "paid_at", Kind: query.KindTime, Time: optWhen(func(p *PaymentDetails) *time.Time { return p.PaidAt })},
			},
		},
	}
}

// The adapters below narrow a typed getter into the record-shaped
// extractor the query engine expects. A record of the wrong concrete type
// reads as "no value", which filtering treats as a non-match.

func str[T store.Record](get func(T) string) func(store.Record) (string, bool) {
	return func(r store.Record) (string, bool) {
		v, ok := r.(T)
		if !ok {
			return "", false
		}
		return get(v), true
	}
}

func optStr[T store.Record](get func(T) *string) func(store.Record) (string, bool) {
	return func(r store.Record) (string, bool) {
		v, ok := r.(T)
		if !ok || get(v) == nil {
			return "", false
		}
		return *get(v), true
	}
}

func num[T store.Record](get func(T) float64) func(store.Record) (float64, bool) {
	return func(r store.Record) (float64, bool) {
		v, ok := r.(T)
		if !ok {
			return 0, false
		}
		return get(v), true
	}
}

func when[T store.Record](get func(T) time.Time) func(store.Record) (time.Time, bool) {
	return func(r store.Record) (time.Time, bool) {
		v, ok := r.(T)
		if !ok {
			return time.Time{}, false
		}
		return get(v), true
	}
}

func optWhen[T store.Record](get func(T) *time.Time) func(store.Record) (time.Time, bool) {
	return func(r store.Record) (time.Time, bool) {
		v, ok := r.(T)
		if !ok || get(v) == nil {
			return time.Time{}, false
		}
		return *get(v), true
	}
}

func ref[T store.Record](get func(T) uint64) func(store.Record) (uint64, bool) {
	return func(r store.Record) (uint64, bool) {
		v, ok := r.(T)
		if !ok {
			return 0, false
		}
		return get(v), true
	}
}
