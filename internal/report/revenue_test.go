package report_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/report"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
	"github.com/Jaum1981/cinema-analytics-api/internal/store/memstore"
)

func TestRevenueByRoom(t *testing.T) {
	a := report.NewAssembler(seedCinema(t), model.Schemas())

	rep, err := a.Revenue(context.Background(), report.RevenueOptions{})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}

	if got := rowKeys(rep); !sameKeys(got, []string{"1", "2", "3"}) {
		t.Fatalf("row order = %v, want revenue-ranked rooms [1 2 3]", got)
	}

	imax := rep.Rows[0]
	if imax.Label != "IMAX 1" {
		t.Errorf("room 1 label = %q, want IMAX 1", imax.Label)
	}
	if v := metric(t, imax, "total_revenue"); v != 45 {
		t.Errorf("room 1 revenue = %v, want 45", v)
	}
	if v := metric(t, imax, "ticket_count"); v != 2 {
		t.Errorf("room 1 ticket_count = %v, want 2", v)
	}
	if v := metric(t, imax, "tickets_sold"); v != 2 {
		t.Errorf("room 1 tickets_sold = %v, want 2", v)
	}
	if v := metric(t, imax, "avg_ticket_price"); v != 22.5 {
		t.Errorf("room 1 avg_ticket_price = %v, want 22.5", v)
	}
	if v := metric(t, imax, "seats_offered"); v != 100 {
		t.Errorf("room 1 seats_offered = %v, want 100", v)
	}
	if v := metric(t, imax, "occupancy_rate"); v != 0.02 {
		t.Errorf("room 1 occupancy_rate = %v, want 0.02", v)
	}

	// Room 2 hosted two sessions; ticket 3 never completed, ticket 4
	// completed once despite its extra refused payment row.
	sala := rep.Rows[1]
	if v := metric(t, sala, "total_revenue"); v != 25 {
		t.Errorf("room 2 revenue = %v, want 25", v)
	}
	if v := metric(t, sala, "ticket_count"); v != 2 {
		t.Errorf("room 2 ticket_count = %v, want 2", v)
	}
	if v := metric(t, sala, "tickets_sold"); v != 1 {
		t.Errorf("room 2 tickets_sold = %v, want 1", v)
	}
	if v := metric(t, sala, "seats_offered"); v != 100 {
		t.Errorf("room 2 seats_offered = %v, want 50+50 across both sessions", v)
	}

	// Room 3 never screened anything: zero counts, null ratios.
	idle := rep.Rows[2]
	if v := metric(t, idle, "total_revenue"); v != 0 {
		t.Errorf("idle room revenue = %v, want 0", v)
	}
	if v := metric(t, idle, "ticket_count"); v != 0 {
		t.Errorf("idle room ticket_count = %v, want 0", v)
	}
	wantNull(t, idle, "avg_ticket_price")
	wantNull(t, idle, "occupancy_rate")

	if v := summary(t, rep, "total_sessions"); v != 3 {
		t.Errorf("summary total_sessions = %v, want 3", v)
	}
	if v := summary(t, rep, "total_revenue"); v != 70 {
		t.Errorf("summary total_revenue = %v, want 70", v)
	}
	if v := summary(t, rep, "total_tickets_sold"); v != 3 {
		t.Errorf("summary total_tickets_sold = %v, want 3", v)
	}
	if v := summary(t, rep, "average_occupancy_rate"); v != 0.02 {
		t.Errorf("summary average_occupancy_rate = %v, want 0.02", v)
	}
}

func TestRevenueByDay(t *testing.T) {
	a := report.NewAssembler(seedCinema(t), model.Schemas())

	rep, err := a.Revenue(context.Background(), report.RevenueOptions{GroupBy: report.GroupByDay})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"2024-05-10", "2024-05-11"}) {
		t.Fatalf("row order = %v, want the richer day first", got)
	}

	first := rep.Rows[0]
	if v := metric(t, first, "total_revenue"); v != 45 {
		t.Errorf("2024-05-10 revenue = %v, want 45", v)
	}
	// Sessions 1 and 3 both ran that day: 100 + 50 seats.
	if v := metric(t, first, "seats_offered"); v != 150 {
		t.Errorf("2024-05-10 seats_offered = %v, want 150", v)
	}
	if v := metric(t, first, "occupancy_rate"); !near(v, 2.0/150) {
		t.Errorf("2024-05-10 occupancy_rate = %v, want 2/150", v)
	}

	second := rep.Rows[1]
	if v := metric(t, second, "total_revenue"); v != 25 {
		t.Errorf("2024-05-11 revenue = %v, want 25", v)
	}
	if v := metric(t, second, "occupancy_rate"); v != 0.04 {
		t.Errorf("2024-05-11 occupancy_rate = %v, want 0.04", v)
	}

	if v := summary(t, rep, "average_occupancy_rate"); !near(v, (2.0/150+0.04)/2) {
		t.Errorf("summary average_occupancy_rate = %v", v)
	}
}

func TestRevenueWindowing(t *testing.T) {
	a := report.NewAssembler(seedCinema(t), model.Schemas())
	ctx := context.Background()

	t.Run("status", func(t *testing.T) {
		rep, err := a.Revenue(ctx, report.RevenueOptions{Status: "finished"})
		if err != nil {
			t.Fatalf("Revenue: %v", err)
		}
		// Only session 2 finished, so room 2 leads and the others show
		// as seeded zero rows tie-broken by id.
		if got := rowKeys(rep); !sameKeys(got, []string{"2", "1", "3"}) {
			t.Fatalf("row order = %v, want [2 1 3]", got)
		}
		if v := summary(t, rep, "total_sessions"); v != 1 {
			t.Errorf("summary total_sessions = %v, want 1", v)
		}
		if v := summary(t, rep, "total_revenue"); v != 25 {
			t.Errorf("summary total_revenue = %v, want 25", v)
		}
	})

	t.Run("room", func(t *testing.T) {
		rep, err := a.Revenue(ctx, report.RevenueOptions{RoomID: 2})
		if err != nil {
			t.Fatalf("Revenue: %v", err)
		}
		if got := rowKeys(rep); !sameKeys(got, []string{"2"}) {
			t.Fatalf("rows = %v, want only room 2", got)
		}
		if v := summary(t, rep, "total_sessions"); v != 2 {
			t.Errorf("summary total_sessions = %v, want 2", v)
		}
	})

	t.Run("from", func(t *testing.T) {
		from := ts(t, "2024-05-11 00:00:00")
		rep, err := a.Revenue(ctx, report.RevenueOptions{From: &from})
		if err != nil {
			t.Fatalf("Revenue: %v", err)
		}
		if v := summary(t, rep, "total_sessions"); v != 1 {
			t.Errorf("summary total_sessions = %v, want only session 2", v)
		}
		if v := metric(t, rep.Rows[0], "total_revenue"); v != 25 {
			t.Errorf("top row revenue = %v, want 25", v)
		}
	})

	t.Run("empty window", func(t *testing.T) {
		from := ts(t, "2030-01-01 00:00:00")
		rep, err := a.Revenue(ctx, report.RevenueOptions{From: &from})
		if err != nil {
			t.Fatalf("Revenue: %v", err)
		}
		// Sessions exist, just none in the window: still a report, every
		// room a zero row.
		if got := rowKeys(rep); !sameKeys(got, []string{"1", "2", "3"}) {
			t.Fatalf("row order = %v, want all rooms by id", got)
		}
		if v := summary(t, rep, "total_sessions"); v != 0 {
			t.Errorf("summary total_sessions = %v, want 0", v)
		}
		if v := rep.Summary["average_occupancy_rate"]; v != nil {
			t.Errorf("summary average_occupancy_rate = %v, want null", *v)
		}
	})

	t.Run("exclude inactive", func(t *testing.T) {
		rep, err := a.Revenue(ctx, report.RevenueOptions{ExcludeInactive: true})
		if err != nil {
			t.Fatalf("Revenue: %v", err)
		}
		if got := rowKeys(rep); !sameKeys(got, []string{"1", "2"}) {
			t.Fatalf("rows = %v, want the idle room dropped", got)
		}
	})
}

func TestRevenueInvalidOptions(t *testing.T) {
	a := report.NewAssembler(seedCinema(t), model.Schemas())
	ctx := context.Background()

	if _, err := a.Revenue(ctx, report.RevenueOptions{GroupBy: "venue"}); !errors.Is(err, query.ErrInvalidFilter) {
		t.Errorf("unknown group_by: error = %v, want ErrInvalidFilter", err)
	}
	if _, err := a.Revenue(ctx, report.RevenueOptions{Status: "paused"}); !errors.Is(err, query.ErrInvalidFilter) {
		t.Errorf("unknown status: error = %v, want ErrInvalidFilter", err)
	}
}

func TestRevenueEmptyDataset(t *testing.T) {
	st := memstore.New(model.Schemas())
	st.Put(store.Rooms, &model.Room{ID: 1, Name: "IMAX 1", Capacity: 100})
	a := report.NewAssembler(st, model.Schemas())

	_, err := a.Revenue(context.Background(), report.RevenueOptions{})
	if !errors.Is(err, report.ErrEmptyDataset) {
		t.Fatalf("Revenue over no sessions: error = %v, want ErrEmptyDataset", err)
	}
}

func TestRevenueDanglingMovie(t *testing.T) {
	st := seedCinema(t)
	st.Put(store.Sessions, &model.Session{
		ID: 9, MovieID: 99, RoomID: 1, StartTime: ts(t, "2024-06-01 20:00:00"),
		Status: model.SessionScheduled, BasePrice: decimal.NewFromInt(20),
	})
	a := report.NewAssembler(st, model.Schemas())

	_, err := a.Revenue(context.Background(), report.RevenueOptions{})
	if !errors.Is(err, query.ErrDanglingReference) {
		t.Fatalf("Revenue with orphan session: error = %v, want ErrDanglingReference", err)
	}
}

func TestRevenueTopKeepsSummary(t *testing.T) {
	a := report.NewAssembler(seedCinema(t), model.Schemas())

	rep, err := a.Revenue(context.Background(), report.RevenueOptions{Top: 1})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"1"}) {
		t.Fatalf("rows = %v, want only the top room", got)
	}
	// The summary still covers the whole dataset, not the trimmed rows.
	if v := summary(t, rep, "total_revenue"); v != 70 {
		t.Errorf("summary total_revenue = %v, want 70", v)
	}
	if v := summary(t, rep, "total_tickets_sold"); v != 3 {
		t.Errorf("summary total_tickets_sold = %v, want 3", v)
	}
}

func TestRevenuePagination(t *testing.T) {
	a := report.NewAssembler(seedCinema(t), model.Schemas())
	ctx := context.Background()

	rep, err := a.Revenue(ctx, report.RevenueOptions{Page: &query.PageRequest{Page: 2, Size: 2}})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"3"}) {
		t.Fatalf("page 2 rows = %v, want the last room", got)
	}
	info := rep.Page
	if info == nil {
		t.Fatal("paged report carries no page info")
	}
	if info.TotalCount != 3 || info.TotalPages != 2 || info.HasNext || !info.HasPrevious {
		t.Fatalf("page info = %+v, want total 3 over 2 pages, previous only", info)
	}

	rep, err = a.Revenue(ctx, report.RevenueOptions{Page: &query.PageRequest{Page: 5, Size: 2}})
	if err != nil {
		t.Fatalf("Revenue beyond range: %v", err)
	}
	if len(rep.Rows) != 0 {
		t.Fatalf("page 5 rows = %d, want empty window", len(rep.Rows))
	}
	if rep.Page == nil || rep.Page.TotalPages != 2 {
		t.Fatalf("page info = %+v, want metadata for 2 total pages", rep.Page)
	}

	_, err = a.Revenue(ctx, report.RevenueOptions{Page: &query.PageRequest{Page: 0, Size: 5}})
	if !errors.Is(err, query.ErrInvalidPagination) {
		t.Fatalf("page 0: error = %v, want ErrInvalidPagination", err)
	}
}

func TestRevenueOccupancyCapped(t *testing.T) {
	// A one-seat room that sold two tickets: the ratio caps at 1.0
	// instead of reporting 200% occupancy.
	st := memstore.New(model.Schemas())
	st.Put(store.Rooms, &model.Room{ID: 1, Name: "Cabine", Capacity: 1})
	st.Put(store.Movies, &model.Movie{ID: 1, Title: "Alien", Genre: "horror",
		DurationMinutes: 116, ReleaseDate: day(t, "1979-05-25"), DirectorID: 1})
	st.Put(store.Sessions, &model.Session{ID: 1, MovieID: 1, RoomID: 1,
		StartTime: ts(t, "2024-05-10 19:00:00"), Status: model.SessionScheduled,
		BasePrice: decimal.NewFromInt(10)})
	st.Put(store.Tickets,
		&model.Ticket{ID: 1, SessionID: 1, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(10), PurchaseTime: ts(t, "2024-05-01 10:00:00")},
		&model.Ticket{ID: 2, SessionID: 1, SeatCode: "A2", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(10), PurchaseTime: ts(t, "2024-05-01 10:01:00")},
	)
	st.Put(store.Payments,
		&model.PaymentDetails{ID: 1, TicketID: 1, TransactionID: "txn-1",
			Amount: decimal.NewFromInt(10), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 2, TicketID: 2, TransactionID: "txn-2",
			Amount: decimal.NewFromInt(10), Method: model.MethodCard, Status: model.PaymentCompleted},
	)
	a := report.NewAssembler(st, model.Schemas())

	rep, err := a.Revenue(context.Background(), report.RevenueOptions{})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if v := metric(t, rep.Rows[0], "occupancy_rate"); v != 1 {
		t.Errorf("occupancy_rate = %v, want capped at 1", v)
	}
	if v := summary(t, rep, "average_occupancy_rate"); v != 1 {
		t.Errorf("summary average_occupancy_rate = %v, want 1", v)
	}
}

func TestRevenueTieBreaksByRoomID(t *testing.T) {
	// Rooms 2 and 10 earn the same: the tie resolves by numeric id, so
	// 2 ranks ahead of 10 even though "10" sorts first as a string.
	st := memstore.New(model.Schemas())
	st.Put(store.Rooms,
		&model.Room{ID: 2, Name: "Sala 2", Capacity: 50},
		&model.Room{ID: 10, Name: "Sala 10", Capacity: 50},
	)
	st.Put(store.Movies, &model.Movie{ID: 1, Title: "Heat", Genre: "crime",
		DurationMinutes: 170, ReleaseDate: day(t, "1995-12-15"), DirectorID: 1})
	st.Put(store.Sessions,
		&model.Session{ID: 1, MovieID: 1, RoomID: 2, StartTime: ts(t, "2024-05-10 19:00:00"),
			Status: model.SessionScheduled, BasePrice: decimal.NewFromInt(100)},
		&model.Session{ID: 2, MovieID: 1, RoomID: 10, StartTime: ts(t, "2024-05-10 21:00:00"),
			Status: model.SessionScheduled, BasePrice: decimal.NewFromInt(100)},
	)
	st.Put(store.Tickets,
		&model.Ticket{ID: 1, SessionID: 1, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(100), PurchaseTime: ts(t, "2024-05-01 10:00:00")},
		&model.Ticket{ID: 2, SessionID: 2, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(100), PurchaseTime: ts(t, "2024-05-01 10:01:00")},
	)
	st.Put(store.Payments,
		&model.PaymentDetails{ID: 1, TicketID: 1, TransactionID: "txn-1",
			Amount: decimal.NewFromInt(100), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 2, TicketID: 2, TransactionID: "txn-2",
			Amount: decimal.NewFromInt(100), Method: model.MethodCard, Status: model.PaymentCompleted},
	)
	a := report.NewAssembler(st, model.Schemas())

	rep, err := a.Revenue(context.Background(), report.RevenueOptions{})
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"2", "10"}) {
		t.Fatalf("tied rooms ranked %v, want ascending id [2 10]", got)
	}
}
