package query_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
	"github.com/Jaum1981/cinema-analytics-api/internal/store/memstore"
)

// day parses a calendar date fixture.
func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date fixture %q: %v", s, err)
	}
	return d.UTC()
}

// ts parses a datetime fixture.
func ts(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatalf("bad time fixture %q: %v", s, err)
	}
	return d.UTC()
}

// catalog is the movie fixture set shared by the filter tests.
func catalog(t *testing.T) []*model.Movie {
	t.Helper()
	synopsis := "a replicant hunt"
	return []*model.Movie{
		{ID: 1, Title: "Blade Runner", Genre: "sci-fi", DurationMinutes: 117, Rating: 8.1,
			ReleaseDate: day(t, "1982-06-25"), Synopsis: &synopsis, DirectorID: 1},
		{ID: 2, Title: "Arrival", Genre: "sci-fi", DurationMinutes: 116, Rating: 7.9,
			ReleaseDate: day(t, "2016-11-11"), DirectorID: 2},
		{ID: 3, Title: "Heat", Genre: "crime", DurationMinutes: 170, Rating: 8.3,
			ReleaseDate: day(t, "1995-12-15"), DirectorID: 2},
	}
}

// seedGraph builds an in-memory entity graph for the join tests:
// two rooms, two movies, three sessions, tickets and payments.
func seedGraph(t *testing.T) *memstore.Store {
	t.Helper()
	st := memstore.New(model.Schemas())
	st.Put(store.Directors,
		&model.Director{ID: 1, Name: "Ridley Scott", Nationality: "British", BirthDate: day(t, "1937-11-30")},
	)
	st.Put(store.Rooms,
		&model.Room{ID: 1, Name: "IMAX 1", Capacity: 100},
		&model.Room{ID: 2, Name: "Sala 2", Capacity: 50},
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
		&model.Session{ID: 2, MovieID: 1, RoomID: 2, StartTime: ts(t, "2024-05-11 21:00:00"),
			ExhibitionType: "2D", Status: model.SessionFinished, BasePrice: decimal.NewFromInt(25)},
		&model.Session{ID: 3, MovieID: 2, RoomID: 2, StartTime: ts(t, "2024-05-12 18:00:00"),
			ExhibitionType: "2D", Status: model.SessionScheduled, BasePrice: decimal.NewFromInt(25)},
	)
	st.Put(store.Tickets,
		&model.Ticket{ID: 1, SessionID: 1, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(30), PurchaseTime: ts(t, "2024-05-01 10:00:00")},
		&model.Ticket{ID: 2, SessionID: 1, SeatCode: "A2", TicketType: model.TicketHalf,
			Price: decimal.NewFromInt(15), PurchaseTime: ts(t, "2024-05-01 10:05:00")},
	)
	st.Put(store.Payments,
		&model.PaymentDetails{ID: 1, TicketID: 1, TransactionID: "txn-1",
			Amount: decimal.NewFromInt(30), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 2, TicketID: 2, TransactionID: "txn-2",
			Amount: decimal.NewFromInt(15), Method: model.MethodPix, Status: model.PaymentCompleted},
	)
	return st
}
