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

func TestDirectorPerformance(t *testing.T) {
	a := report.NewAssembler(seedStudios(t), model.Schemas())

	rep, err := a.DirectorPerformance(context.Background(), report.DirectorOptions{})
	if err != nil {
		t.Fatalf("DirectorPerformance: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"2", "1", "3"}) {
		t.Fatalf("row order = %v, want revenue-ranked directors [2 1 3]", got)
	}

	scott := rep.Rows[0]
	if scott.Label != "Ridley Scott" {
		t.Errorf("top row label = %q, want Ridley Scott", scott.Label)
	}
	if v := metric(t, scott, "total_revenue"); v != 40 {
		t.Errorf("Scott revenue = %v, want 40", v)
	}
	if v := metric(t, scott, "avg_revenue_per_movie"); v != 40 {
		t.Errorf("Scott avg_revenue_per_movie = %v, want 40", v)
	}

	// Two movies earning 10 and 20 roll up to exactly 30, no float
	// drift allowed.
	denis := rep.Rows[1]
	if v := metric(t, denis, "total_revenue"); v != 30.0 {
		t.Errorf("Villeneuve revenue = %v, want exactly 30", v)
	}
	if v := metric(t, denis, "total_movies"); v != 2 {
		t.Errorf("Villeneuve total_movies = %v, want 2", v)
	}
	if v := metric(t, denis, "total_sessions"); v != 2 {
		t.Errorf("Villeneuve total_sessions = %v, want 2", v)
	}
	if v := metric(t, denis, "total_tickets"); v != 2 {
		t.Errorf("Villeneuve total_tickets = %v, want 2", v)
	}
	if v := metric(t, denis, "avg_revenue_per_movie"); v != 15 {
		t.Errorf("Villeneuve avg_revenue_per_movie = %v, want 15", v)
	}

	if denis.Details["nationality"] != "Canadian" {
		t.Errorf("Villeneuve nationality = %v, want Canadian", denis.Details["nationality"])
	}
	if denis.Details["birth_date"] != "1967-10-03" {
		t.Errorf("Villeneuve birth_date = %v, want 1967-10-03", denis.Details["birth_date"])
	}
	top, ok := denis.Details["top_movie"].(map[string]any)
	if !ok {
		t.Fatalf("Villeneuve top_movie missing: %v", denis.Details)
	}
	if top["id"] != uint64(2) || top["title"] != "Blade Runner 2049" || top["revenue"] != 20.0 {
		t.Errorf("top_movie = %v, want Blade Runner 2049 at 20", top)
	}
	movies, ok := denis.Details["movies"].([]map[string]any)
	if !ok || len(movies) != 2 {
		t.Fatalf("movie breakdown = %v, want 2 entries", denis.Details["movies"])
	}
	if movies[0]["id"] != uint64(2) || movies[1]["id"] != uint64(1) {
		t.Errorf("breakdown order = [%v %v], want revenue-ranked [2 1]", movies[0]["id"], movies[1]["id"])
	}
	if movies[1]["revenue"] != 10.0 || movies[1]["sessions"] != 1 || movies[1]["tickets"] != 1 {
		t.Errorf("Arrival breakdown = %v", movies[1])
	}

	// A director with no movies still reports, with zero counts and a
	// null per-movie average.
	greta := rep.Rows[2]
	if v := metric(t, greta, "total_revenue"); v != 0 {
		t.Errorf("Gerwig revenue = %v, want 0", v)
	}
	if v := metric(t, greta, "total_movies"); v != 0 {
		t.Errorf("Gerwig total_movies = %v, want 0", v)
	}
	wantNull(t, greta, "avg_revenue_per_movie")
	if _, ok := greta.Details["top_movie"]; ok {
		t.Error("Gerwig has a top_movie, want none")
	}

	if v := summary(t, rep, "total_directors"); v != 3 {
		t.Errorf("summary total_directors = %v, want 3", v)
	}
	if v := summary(t, rep, "total_revenue"); v != 70 {
		t.Errorf("summary total_revenue = %v, want 70", v)
	}
	if v := summary(t, rep, "total_sessions"); v != 3 {
		t.Errorf("summary total_sessions = %v, want 3", v)
	}
	if v := summary(t, rep, "average_revenue_per_director"); !near(v, 70.0/3) {
		t.Errorf("summary average_revenue_per_director = %v, want 70/3", v)
	}
}

func TestDirectorMovieWindow(t *testing.T) {
	a := report.NewAssembler(seedStudios(t), model.Schemas())
	ctx := context.Background()

	t.Run("year from", func(t *testing.T) {
		rep, err := a.DirectorPerformance(ctx, report.DirectorOptions{YearFrom: 2017})
		if err != nil {
			t.Fatalf("DirectorPerformance: %v", err)
		}
		// Only Blade Runner 2049 remains in the window.
		if got := rowKeys(rep); !sameKeys(got, []string{"1", "2", "3"}) {
			t.Fatalf("row order = %v, want [1 2 3]", got)
		}
		lead := rep.Rows[0]
		if v := metric(t, lead, "total_revenue"); v != 20 {
			t.Errorf("windowed revenue = %v, want 20", v)
		}
		if v := metric(t, lead, "total_movies"); v != 1 {
			t.Errorf("windowed total_movies = %v, want 1", v)
		}
	})

	t.Run("year to with min movies", func(t *testing.T) {
		rep, err := a.DirectorPerformance(ctx, report.DirectorOptions{YearTo: 1990, MinMovies: 1})
		if err != nil {
			t.Fatalf("DirectorPerformance: %v", err)
		}
		// Alien (1979) is the only movie in range, leaving Scott alone.
		if got := rowKeys(rep); !sameKeys(got, []string{"2"}) {
			t.Fatalf("rows = %v, want only Scott", got)
		}
		if v := summary(t, rep, "total_directors"); v != 1 {
			t.Errorf("summary total_directors = %v, want 1", v)
		}
	})

	t.Run("exclude inactive", func(t *testing.T) {
		rep, err := a.DirectorPerformance(ctx, report.DirectorOptions{YearFrom: 2017, ExcludeInactive: true})
		if err != nil {
			t.Fatalf("DirectorPerformance: %v", err)
		}
		if got := rowKeys(rep); !sameKeys(got, []string{"1"}) {
			t.Fatalf("rows = %v, want only the director active in the window", got)
		}
	})
}

func TestDirectorMinMovies(t *testing.T) {
	a := report.NewAssembler(seedStudios(t), model.Schemas())

	rep, err := a.DirectorPerformance(context.Background(), report.DirectorOptions{MinMovies: 2})
	if err != nil {
		t.Fatalf("DirectorPerformance: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"1"}) {
		t.Fatalf("rows = %v, want only the two-movie director", got)
	}
	// The summary follows the kept set.
	if v := summary(t, rep, "total_directors"); v != 1 {
		t.Errorf("summary total_directors = %v, want 1", v)
	}
	if v := summary(t, rep, "total_revenue"); v != 30 {
		t.Errorf("summary total_revenue = %v, want 30", v)
	}
}

func TestDirectorTopMovieTie(t *testing.T) {
	// Two movies with identical revenue: the earlier release wins the
	// top spot even though the other has the lower id.
	st := memstore.New(model.Schemas())
	st.Put(store.Directors,
		&model.Director{ID: 1, Name: "Denis Villeneuve", Nationality: "Canadian", BirthDate: day(t, "1967-10-03")},
	)
	st.Put(store.Rooms, &model.Room{ID: 1, Name: "IMAX 1", Capacity: 100})
	st.Put(store.Movies,
		&model.Movie{ID: 1, Title: "Arrival", Genre: "sci-fi", DurationMinutes: 116,
			ReleaseDate: day(t, "2016-11-11"), DirectorID: 1},
		&model.Movie{ID: 2, Title: "Sicario", Genre: "thriller", DurationMinutes: 121,
			ReleaseDate: day(t, "2015-10-02"), DirectorID: 1},
	)
	st.Put(store.Sessions,
		&model.Session{ID: 1, MovieID: 1, RoomID: 1, StartTime: ts(t, "2024-05-10 19:00:00"),
			Status: model.SessionFinished, BasePrice: decimal.NewFromInt(25)},
		&model.Session{ID: 2, MovieID: 2, RoomID: 1, StartTime: ts(t, "2024-05-11 19:00:00"),
			Status: model.SessionFinished, BasePrice: decimal.NewFromInt(25)},
	)
	st.Put(store.Tickets,
		&model.Ticket{ID: 1, SessionID: 1, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(25), PurchaseTime: ts(t, "2024-05-01 10:00:00")},
		&model.Ticket{ID: 2, SessionID: 2, SeatCode: "A1", TicketType: model.TicketFull,
			Price: decimal.NewFromInt(25), PurchaseTime: ts(t, "2024-05-01 10:01:00")},
	)
	st.Put(store.Payments,
		&model.PaymentDetails{ID: 1, TicketID: 1, TransactionID: "txn-1",
			Amount: decimal.NewFromInt(25), Method: model.MethodCard, Status: model.PaymentCompleted},
		&model.PaymentDetails{ID: 2, TicketID: 2, TransactionID: "txn-2",
			Amount: decimal.NewFromInt(25), Method: model.MethodCard, Status: model.PaymentCompleted},
	)
	a := report.NewAssembler(st, model.Schemas())

	rep, err := a.DirectorPerformance(context.Background(), report.DirectorOptions{})
	if err != nil {
		t.Fatalf("DirectorPerformance: %v", err)
	}
	top, ok := rep.Rows[0].Details["top_movie"].(map[string]any)
	if !ok {
		t.Fatalf("top_movie missing: %v", rep.Rows[0].Details)
	}
	if top["id"] != uint64(2) {
		t.Errorf("top_movie id = %v, want the 2015 release (id 2)", top["id"])
	}
}

func TestDirectorEmptyDataset(t *testing.T) {
	a := report.NewAssembler(memstore.New(model.Schemas()), model.Schemas())

	_, err := a.DirectorPerformance(context.Background(), report.DirectorOptions{})
	if !errors.Is(err, report.ErrEmptyDataset) {
		t.Fatalf("DirectorPerformance over no directors: error = %v, want ErrEmptyDataset", err)
	}
}

func TestDirectorPagination(t *testing.T) {
	a := report.NewAssembler(seedStudios(t), model.Schemas())

	rep, err := a.DirectorPerformance(context.Background(), report.DirectorOptions{
		Page: &query.PageRequest{Page: 1, Size: 2},
	})
	if err != nil {
		t.Fatalf("DirectorPerformance: %v", err)
	}
	if got := rowKeys(rep); !sameKeys(got, []string{"2", "1"}) {
		t.Fatalf("page 1 rows = %v, want the first two ranked directors", got)
	}
	if rep.Page == nil || !rep.Page.HasNext || rep.Page.HasPrevious {
		t.Fatalf("page info = %+v, want next page only", rep.Page)
	}
}
