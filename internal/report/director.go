package report

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// DirectorOptions configure the director performance analysis. The zero
// value analyzes every director over their whole filmography.
type DirectorOptions struct {
	YearFrom        int                // keep movies released in or after this year, 0 means unbounded
	YearTo          int                // keep movies released in or before this year, 0 means unbounded
	MinMovies       int                // drop directors with fewer movies in the window
	ExcludeInactive bool               // omit directors with no movies in the window
	Top             int                // keep only the n highest-revenue directors, 0 means all
	Page            *query.PageRequest // window the ranked groups, nil means all
}

// DirectorPerformance assembles the director report: every director
// joined through their movies down to sessions, tickets and payments,
// grouped by director and ranked by total revenue. Row details carry the
// per-movie breakdown and the top movie by revenue, tie-broken by the
// earliest release date.
func (a *Assembler) DirectorPerformance(ctx context.Context, opts DirectorOptions) (*Report, error) {
	roots, err := a.store.ListAll(ctx, store.Directors)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no directors recorded", ErrEmptyDataset)
	}

	movieFilter, err := a.movieWindow(opts)
	if err != nil {
		return nil, err
	}

	path := query.Path{
		Root: store.Directors,
		As:   slotDirector,
		Hops: []query.Hop{
			{From: slotDirector, As: slotMovie, Entity: store.Movies, Kind: query.OneToMany, FK: "director_id", Optional: true, Filter: movieFilter},
			{From: slotMovie, As: slotSession, Entity: store.Sessions, Kind: query.OneToMany, FK: "movie_id", Optional: true},
			{From: slotSession, As: slotTicket, Entity: store.Tickets, Kind: query.OneToMany, FK: "session_id", Optional: true},
			{From: slotTicket, As: slotPayment, Entity: store.Payments, Kind: query.OneToMany, FK: "ticket_id", Optional: true},
		},
	}
	tuples, err := a.resolver.Resolve(ctx, path, roots)
	if err != nil {
		return nil, err
	}

	key := func(t query.Tuple) query.GroupKey {
		d := t[slotDirector].(*model.Director)
		return query.GroupKey{ID: strconv.FormatUint(d.ID, 10), Label: d.Name}
	}
	reducers := []query.Reducer{
		{Name: "total_revenue", Op: query.OpSum, Value: completedAmount},
		{Name: "total_movies", Op: query.OpCountDistinct, Key: movieKey},
		{Name: "total_sessions", Op: query.OpCountDistinct, Key: sessionKey},
		{Name: "total_tickets", Op: query.OpCountDistinct, Key: soldTicketKey},
	}
	groups := query.Aggregate(tuples, key, reducers)

	for _, g := range groups {
		rev, movies := g.Metrics["total_revenue"], g.Metrics["total_movies"]
		if movies == nil || *movies == 0 {
			g.Metrics["avg_revenue_per_movie"] = nil
			continue
		}
		g.Metrics["avg_revenue_per_movie"] = fval(*rev / *movies)
	}

	kept := make([]query.Group, 0, len(groups))
	for _, g := range groups {
		n := *g.Metrics["total_movies"]
		if opts.ExcludeInactive && n == 0 {
			continue
		}
		if opts.MinMovies > 0 && n < float64(opts.MinMovies) {
			continue
		}
		kept = append(kept, g)
	}

	summary := directorSummary(kept)
	kept = query.Top(query.Rank(kept, "total_revenue"), opts.Top)

	byDirector := collectMovieStats(tuples)
	dirByID := make(map[uint64]*model.Director, len(roots))
	for _, rec := range roots {
		d := rec.(*model.Director)
		dirByID[d.ID] = d
	}

	rows := make([]Row, 0, len(kept))
	for _, g := range kept {
		id, _ := strconv.ParseUint(g.Key.ID, 10, 64)
		details := map[string]any{}
		if d := dirByID[id]; d != nil {
			details["nationality"] = d.Nationality
			details["birth_date"] = d.BirthDate.UTC().Format("2006-01-02")
		}
		if stats := byDirector[id]; len(stats) > 0 {
			ranked := rankMovies(stats)
			top := ranked[0]
			details["top_movie"] = map[string]any{
				"id":      top.movie.ID,
				"title":   top.movie.Title,
				"revenue": top.revenue,
			}
			breakdown := make([]map[string]any, 0, len(ranked))
			for _, st := range ranked {
				breakdown = append(breakdown, map[string]any{
					"id":       st.movie.ID,
					"title":    st.movie.Title,
					"revenue":  st.revenue,
					"sessions": len(st.sessions),
					"tickets":  len(st.tickets),
				})
			}
			details["movies"] = breakdown
		}
		rows = append(rows, Row{Key: g.Key.ID, Label: g.Key.Label, Metrics: g.Metrics, Details: details})
	}
	rep := &Report{
		Rows:    rows,
		Summary: summary,
		Columns: []string{"total_revenue", "total_movies", "total_sessions",
			"total_tickets", "avg_revenue_per_movie"},
	}
	if err := a.paginate(rep, opts.Page); err != nil {
		return nil, err
	}
	return rep, nil
}

// movieWindow compiles the release-date filter applied to the movies hop.
func (a *Assembler) movieWindow(opts DirectorOptions) (*query.Filter, error) {
	params := url.Values{}
	if opts.YearFrom > 0 {
		params.Set("after_release_date", fmt.Sprintf("%04d-01-01", opts.YearFrom))
	}
	if opts.YearTo > 0 {
		params.Set("before_release_date", fmt.Sprintf("%04d-12-31", opts.YearTo))
	}
	if len(params) == 0 {
		return nil, nil
	}
	return query.NewFilter(a.reg[store.Movies], params)
}

// movieStat is the per-movie rollup behind the row details. Session and
// ticket sets deduplicate across fan-out tuples.
type movieStat struct {
	movie    *model.Movie
	revenue  float64
	sessions map[uint64]struct{}
	tickets  map[uint64]struct{}
}

// collectMovieStats rolls the tuples up a second time, per movie, keyed
// by the owning director. First-appearance order is preserved so the
// breakdown is deterministic before ranking.
func collectMovieStats(tuples []query.Tuple) map[uint64][]*movieStat {
	stats := make(map[uint64]*movieStat)
	byDirector := make(map[uint64][]*movieStat)
	for _, t := range tuples {
		mv, ok := t[slotMovie].(*model.Movie)
		if !ok {
			continue
		}
		st := stats[mv.ID]
		if st == nil {
			st = &movieStat{
				movie:    mv,
				sessions: make(map[uint64]struct{}),
				tickets:  make(map[uint64]struct{}),
			}
			stats[mv.ID] = st
			byDirector[mv.DirectorID] = append(byDirector[mv.DirectorID], st)
		}
		if s, ok := t[slotSession].(*model.Session); ok {
			st.sessions[s.ID] = struct{}{}
		}
		if amt, ok := completedAmount(t); ok {
			st.revenue += amt
			if tk, ok := t[slotTicket].(*model.Ticket); ok {
				st.tickets[tk.ID] = struct{}{}
			}
		}
	}
	return byDirector
}

// rankMovies orders a director's movies by revenue descending, then by
// earliest release date, then by id.
func rankMovies(stats []*movieStat) []*movieStat {
	out := make([]*movieStat, len(stats))
	copy(out, stats)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.revenue != b.revenue {
			return a.revenue > b.revenue
		}
		if !a.movie.ReleaseDate.Equal(b.movie.ReleaseDate) {
			return a.movie.ReleaseDate.Before(b.movie.ReleaseDate)
		}
		return a.movie.ID < b.movie.ID
	})
	return out
}

func directorSummary(groups []query.Group) map[string]*float64 {
	var revenue, sessions float64
	for _, g := range groups {
		if v := g.Metrics["total_revenue"]; v != nil {
			revenue += *v
		}
		if v := g.Metrics["total_sessions"]; v != nil {
			sessions += *v
		}
	}
	summary := map[string]*float64{
		"total_directors": fval(float64(len(groups))),
		"total_revenue":   fval(revenue),
		"total_sessions":  fval(sessions),
	}
	if len(groups) > 0 {
		summary["average_revenue_per_director"] = fval(revenue / float64(len(groups)))
	} else {
		summary["average_revenue_per_director"] = nil
	}
	return summary
}
