package report

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Revenue grouping dimensions.
const (
	GroupByRoom = "room"
	GroupByDay  = "day"
)

// RevenueOptions configure the cinema revenue report. The zero value
// reports every session grouped by room, zero-activity rooms included.
type RevenueOptions struct {
	GroupBy         string             // "room" (default) or "day"
	From            *time.Time         // inclusive lower bound on session start time
	To              *time.Time         // inclusive upper bound on session start time
	RoomID          uint64             // restrict to one room, 0 means all
	Status          string             // restrict to one session status, empty means all
	ExcludeInactive bool               // omit rooms with no sessions in the window
	Top             int                // keep only the n highest-revenue groups, 0 means all
	Page            *query.PageRequest // window the ranked groups, nil means all
}

// Revenue assembles the cinema revenue report: sessions joined to their
// room, movie, tickets and payments, grouped by room or by calendar day,
// ranked by total revenue. The movie hop carries no metric but keeps the
// report honest: a session pointing at a deleted movie fails the whole
// report with a dangling-reference error instead of being counted as if
// nothing were wrong.
func (a *Assembler) Revenue(ctx context.Context, opts RevenueOptions) (*Report, error) {
	groupBy := opts.GroupBy
	if groupBy == "" {
		groupBy = GroupByRoom
	}
	if groupBy != GroupByRoom && groupBy != GroupByDay {
		return nil, fmt.Errorf("%w: unknown group_by %q", query.ErrInvalidFilter, opts.GroupBy)
	}

	all, err := a.store.ListAll(ctx, store.Sessions)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no sessions recorded", ErrEmptyDataset)
	}
	roots, err := a.filterSessions(all, opts)
	if err != nil {
		return nil, err
	}

	path := query.Path{
		Root: store.Sessions,
		As:   slotSession,
		Hops: []query.Hop{
			{From: slotSession, As: slotRoom, Entity: store.Rooms, Kind: query.ManyToOne, FK: "room_id"},
			{From: slotSession, As: slotMovie, Entity: store.Movies, Kind: query.ManyToOne, FK: "movie_id"},
			{From: slotSession, As: slotTicket, Entity: store.Tickets, Kind: query.OneToMany, FK: "session_id", Optional: true},
			{From: slotTicket, As: slotPayment, Entity: store.Payments, Kind: query.OneToMany, FK: "ticket_id", Optional: true},
		},
	}
	tuples, err := a.resolver.Resolve(ctx, path, roots)
	if err != nil {
		return nil, err
	}

	var key query.KeyFunc
	if groupBy == GroupByRoom {
		key = func(t query.Tuple) query.GroupKey {
			rm := t[slotRoom].(*model.Room)
			return query.GroupKey{ID: strconv.FormatUint(rm.ID, 10), Label: rm.Name}
		}
	} else {
		key = func(t query.Tuple) query.GroupKey {
			day := t[slotSession].(*model.Session).StartTime.UTC().Format("2006-01-02")
			return query.GroupKey{ID: day, Label: day}
		}
	}

	roomCapacity := func(t query.Tuple) (float64, bool) {
		rm, ok := t[slotRoom].(*model.Room)
		if !ok {
			return 0, false
		}
		return float64(rm.Capacity), true
	}
	reducers := []query.Reducer{
		{Name: "total_revenue", Op: query.OpSum, Value: completedAmount},
		{Name: "ticket_count", Op: query.OpCountDistinct, Key: ticketKey},
		{Name: "tickets_sold", Op: query.OpCountDistinct, Key: soldTicketKey},
		{Name: "avg_ticket_price", Op: query.OpAvg, Value: completedAmount},
		{Name: "seats_offered", Op: query.OpSumDistinct, Key: sessionKey, Value: roomCapacity},
	}

	var aggOpts []query.AggregateOption
	if groupBy == GroupByRoom && !opts.ExcludeInactive {
		seed, err := a.roomSeeds(ctx, opts.RoomID)
		if err != nil {
			return nil, err
		}
		aggOpts = append(aggOpts, query.WithSeed(seed))
	}
	groups := query.Aggregate(tuples, key, reducers, aggOpts...)

	// Occupancy is derived after reduction: tickets over the seats the
	// room offered across the window's sessions, capped at 1.0.
	for _, g := range groups {
		tc, so := g.Metrics["ticket_count"], g.Metrics["seats_offered"]
		if so == nil || *so == 0 {
			g.Metrics["occupancy_rate"] = nil
			continue
		}
		occ := *tc / *so
		if occ > 1 {
			occ = 1
		}
		g.Metrics["occupancy_rate"] = fval(occ)
	}

	summary := revenueSummary(groups, len(roots))
	groups = query.Top(query.Rank(groups, "total_revenue"), opts.Top)

	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, Row{Key: g.Key.ID, Label: g.Key.Label, Metrics: g.Metrics})
	}
	rep := &Report{
		Rows:    rows,
		Summary: summary,
		Columns: []string{"total_revenue", "ticket_count", "tickets_sold",
			"avg_ticket_price", "seats_offered", "occupancy_rate"},
	}
	if err := a.paginate(rep, opts.Page); err != nil {
		return nil, err
	}
	return rep, nil
}

// filterSessions narrows the root sessions through the shared filter
// evaluator, so the report's window obeys exactly the operator semantics
// of the list endpoints.
func (a *Assembler) filterSessions(all []store.Record, opts RevenueOptions) ([]store.Record, error) {
	params := url.Values{}
	if opts.From != nil {
		params.Set("after_start_time", opts.From.UTC().Format(time.RFC3339))
	}
	if opts.To != nil {
		params.Set("before_start_time", opts.To.UTC().Format(time.RFC3339))
	}
	if opts.RoomID != 0 {
		params.Set("room_id", strconv.FormatUint(opts.RoomID, 10))
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if len(params) == 0 {
		return all, nil
	}
	f, err := query.NewFilter(a.reg[store.Sessions], params)
	if err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

// roomSeeds pre-creates one group per room so rooms without sessions in
// the window still show up with zero metrics.
func (a *Assembler) roomSeeds(ctx context.Context, roomID uint64) ([]query.GroupKey, error) {
	if roomID != 0 {
		rec, err := a.store.Get(ctx, store.Rooms, roomID)
		if err != nil {
			return nil, err
		}
		rm := rec.(*model.Room)
		return []query.GroupKey{{ID: strconv.FormatUint(rm.ID, 10), Label: rm.Name}}, nil
	}
	recs, err := a.store.ListAll(ctx, store.Rooms)
	if err != nil {
		return nil, err
	}
	seeds := make([]query.GroupKey, 0, len(recs))
	for _, rec := range recs {
		rm := rec.(*model.Room)
		seeds = append(seeds, query.GroupKey{ID: strconv.FormatUint(rm.ID, 10), Label: rm.Name})
	}
	return seeds, nil
}

func revenueSummary(groups []query.Group, sessions int) map[string]*float64 {
	var revenue, sold float64
	var occSum float64
	var occN int
	for _, g := range groups {
		if v := g.Metrics["total_revenue"]; v != nil {
			revenue += *v
		}
		if v := g.Metrics["tickets_sold"]; v != nil {
			sold += *v
		}
		if v := g.Metrics["occupancy_rate"]; v != nil {
			occSum += *v
			occN++
		}
	}
	summary := map[string]*float64{
		"total_sessions":     fval(float64(sessions)),
		"total_revenue":      fval(revenue),
		"total_tickets_sold": fval(sold),
	}
	if occN > 0 {
		summary["average_occupancy_rate"] = fval(occSum / float64(occN))
	} else {
		summary["average_occupancy_rate"] = nil
	}
	return summary
}
