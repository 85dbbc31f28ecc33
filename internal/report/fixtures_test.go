package report_test

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/report"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
	"github.com/Jaum1981/cinema-analytics-api/internal/store/memstore"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date fixture %q: %v", s, err)
	}
	return d.UTC()
}

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatalf("bad time fixture %q: %v", s, err)
	}
	return d.UTC()
}

// seedCinema builds the revenue fixture: three rooms (one idle), three
// sessions over two days, and a payment mix covering completed, pending
// and refused rows. Ticket 4 carries two payment rows so the tests can
// prove fan-out does not double-count.
//
// Expected per room: room 1 revenue 45 over 2 sold tickets, room 2
// revenue 25 with 1 of 2 tickets sold across two sessions, room 3 idle.
func seedCinema(t *testing.T) *memstore.Store {
	t.Helper()
	st := memstore.New(model.Schemas())
	st.Put(store.Directors,
		&model.Director{ID: 1, Name: "Ridley Scott", Nationality: "British", BirthDate: day(t, "1937-11-30")},
	)
	st.Put(store.Rooms,
		&model.Room{ID: 1, Name: "IMAX 1", Capacity: 100},
		&model.Room{ID: 2, Name: "Sala 2", Capacity: 50},
		&model.Room{ID: 3, Name: "Sala 3", Capacity: 80},
	)
	st.Put(store.Movies,
		&model.Movie{ID: 1, Title: "Blade Runner", Genre: "sci-fi", DurationMinutes: 117,
			ReleaseDate: day(t, "1982-06-25"), DirectorID: 1},
		&model.Movie{ID: 2, Title: "Alien", Genre: "horror", DurationMinutes: 116,
			ReleaseDate: day(t, "1979-05-25"), DirectorID: 1},
	)
	st.Put(store.Sessions,
		&model.Session{ID: 1, MovieID: 1, RoomID: 1, StartTime: ts(t, "2024-05-10 19:00:00"),
			ExhibitionType: "IMAX", Status: model.SessionScheduled, BasePrice: decimal.NewFromInt(30)},
		&model.Session{ID: 2, MovieID: 2, RoomID: 2, StartTime: ts(t, "2024-05-11 21:00:00"),
			ExhibitionType: "2D", Status: model.SessionFinished, BasePrice: decimal.NewFromInt(25)},
		&model.Session{ID: 3, MovieID: 2, RoomID: 2, StartTime: ts(t, "2024-05-10 15:00:00"),
			ExhibitionType: "2D", Status: model.SessionScheduled, BasePrice: decimal.NewFromInt(25)},
	)
	st.Put(store.Tickets,
		&model.Ticket{ID: 1, SessionID: 1, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(30), PurchaseTime: ts(t, "2024-05-01 10:00:00")},
		&model.Ticket{ID: 2, SessionID: 1, SeatCode: "A2", TicketType: model.TicketHalf,
			Price: decimal.NewFromInt(15), PurchaseTime: ts(t, "2024-05-01 10:05:00")},
		&model.Ticket{ID: 3, SessionID: 2, SeatCode: "B1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(25), PurchaseTime: ts(t, "2024-05-02 09:00:00")},
		&model.Ticket{ID: 4, SessionID: 2, SeatCode: "B2", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(25), PurchaseTime: ts(t, "2024-05-02 09:30:00")},
	)
	st.Put(store.Payments,
		&model.PaymentDetails{ID: 1, TicketID: 1, TransactionID: "txn-1",
			Amount: decimal.NewFromInt(30), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 2, TicketID: 2, TransactionID: "txn-2",
			Amount: decimal.NewFromInt(15), Method: model.MethodPix, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 3, TicketID: 3, TransactionID: "txn-3",
			Amount: decimal.NewFromInt(25), Method: model.MethodCard, Status: model.PaymentPending},
		&model.PaymentDetails{ID: 4, TicketID: 4, TransactionID: "txn-4",
			Amount: decimal.NewFromInt(25), Method: model.MethodCash, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 5, TicketID: 4, TransactionID: "txn-5",
			Amount: decimal.NewFromInt(25), Method: model.MethodCard, Status: model.PaymentRefused},
	)
	return st
}

// seedStudios builds the director fixture: Villeneuve with two movies
// earning 10 and 20, Scott with one movie earning 40, Gerwig with no
// movies at all.
func seedStudios(t *testing.T) *memstore.Store {
	t.Helper()
	st := memstore.New(model.Schemas())
	st.Put(store.Directors,
		&model.Director{ID: 1, Name: "Denis Villeneuve", Nationality: "Canadian", BirthDate: day(t, "1967-10-03")},
		&model.Director{ID: 2, Name: "Ridley Scott", Nationality: "British", BirthDate: day(t, "1937-11-30")},
		&model.Director{ID: 3, Name: "Greta Gerwig", Nationality: "American", BirthDate: day(t, "1983-08-04")},
	)
	st.Put(store.Rooms,
		&model.Room{ID: 1, Name: "IMAX 1", Capacity: 100},
	)
	st.Put(store.Movies,
		&model.Movie{ID: 1, Title: "Arrival", Genre: "sci-fi", DurationMinutes: 116,
			ReleaseDate: day(t, "2016-11-11"), DirectorID: 1},
		&model.Movie{ID: 2, Title: "Blade Runner 2049", Genre: "sci-fi", DurationMinutes: 164,
			ReleaseDate: day(t, "2017-10-06"), DirectorID: 1},
		&model.Movie{ID: 3, Title: "Alien", Genre: "horror", DurationMinutes: 116,
			ReleaseDate: day(t, "1979-05-25"), DirectorID: 2},
	)
	st.Put(store.Sessions,
		&model.Session{ID: 1, MovieID: 1, RoomID: 1, StartTime: ts(t, "2024-05-10 19:00:00"),
			ExhibitionType: "2D", Status: model.SessionFinished, BasePrice: decimal.NewFromInt(10)},
		&model.Session{ID: 2, MovieID: 2, RoomID: 1, StartTime: ts(t, "2024-05-11 19:00:00"),
			ExhibitionType: "2D", Status: model.SessionFinished, BasePrice: decimal.NewFromInt(20)},
		&model.Session{ID: 3, MovieID: 3, RoomID: 1, StartTime: ts(t, "2024-05-12 19:00:00"),
			ExhibitionType: "2D", Status: model.SessionFinished, BasePrice: decimal.NewFromInt(40)},
	)
	st.Put(store.Tickets,
		&model.Ticket{ID: 1, SessionID: 1, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(10), PurchaseTime: ts(t, "2024-05-01 10:00:00")},
		&model.Ticket{ID: 2, SessionID: 2, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(20), PurchaseTime: ts(t, "2024-05-02 10:00:00")},
		&model.Ticket{ID: 3, SessionID: 3, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(40), PurchaseTime: ts(t, "2024-05-03 10:00:00")},
	)
	st.Put(store.Payments,
		&model.PaymentDetails{ID: 1, TicketID: 1, TransactionID: "txn-1",
			Amount: decimal.NewFromInt(10), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 2, TicketID: 2, TransactionID: "txn-2",
			Amount: decimal.NewFromInt(20), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 3, TicketID: 3, TransactionID: "txn-3",
			Amount: decimal.NewFromInt(40), Method: model.MethodPix, Status: model.PaymentCompleted},
	)
	return st
}

// metric fetches a non-null metric value off a row.
func metric(t *testing.T, r report.Row, name string) float64 {
	t.Helper()
	v, ok := r.Metrics[name]
	if !ok {
		t.Fatalf("row %s has no metric %q", r.Key, name)
	}
	if v == nil {
		t.Fatalf("row %s metric %q is null", r.Key, name)
	}
	return *v
}

// wantNull asserts a metric is present but null.
func wantNull(t *testing.T, r report.Row, name string) {
	t.Helper()
	v, ok := r.Metrics[name]
	if !ok {
		t.Fatalf("row %s has no metric %q", r.Key, name)
	}
	if v != nil {
		t.Fatalf("row %s metric %q = %v, want null", r.Key, name, *v)
	}
}

// summary fetches a non-null summary value.
func summary(t *testing.T, rep *report.Report, name string) float64 {
	t.Helper()
	v, ok := rep.Summary[name]
	if !ok {
		t.Fatalf("summary has no entry %q", name)
	}
	if v == nil {
		t.Fatalf("summary %q is null", name)
	}
	return *v
}

// near compares metric values that come out of chained float division.
func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// rowKeys extracts the ranked group keys for order assertions.
func rowKeys(rep *report.Report) []string {
	keys := make([]string, 0, len(rep.Rows))
	for _, r := range rep.Rows {
		keys = append(keys, r.Key)
	}
	return keys
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
