package query_test

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
)

func fp(v float64) *float64 { return &v }

// tupleRow builds the session/ticket/payment tuple shape the revenue
// pipeline produces.
func tupleRow(s *model.Session, tk *model.Ticket, p *model.PaymentDetails) query.Tuple {
	row := query.Tuple{"session": s}
	if tk != nil {
		row["ticket"] = tk
	} else {
		row["ticket"] = nil
	}
	if p != nil {
		row["payment"] = p
	} else {
		row["payment"] = nil
	}
	return row
}

func bySession(t query.Tuple) query.GroupKey {
	id := strconv.FormatUint(t["session"].(*model.Session).ID, 10)
	return query.GroupKey{ID: id, Label: "session " + id}
}

func completedAmount(t query.Tuple) (float64, bool) {
	p, ok := t["payment"].(*model.PaymentDetails)
	if !ok || p == nil || p.Status != model.PaymentCompleted {
		return 0, false
	}
	v, _ := p.Amount.Float64()
	return v, true
}

func ticketPrice(t query.Tuple) (float64, bool) {
	tk, ok := t["ticket"].(*model.Ticket)
	if !ok || tk == nil {
		return 0, false
	}
	v, _ := tk.Price.Float64()
	return v, true
}

func ticketKey(t query.Tuple) (string, bool) {
	tk, ok := t["ticket"].(*model.Ticket)
	if !ok || tk == nil {
		return "", false
	}
	return strconv.FormatUint(tk.ID, 10), true
}

func TestAggregateFirstAppearanceOrder(t *testing.T) {
	s1 := &model.Session{ID: 1}
	s2 := &model.Session{ID: 2}
	s3 := &model.Session{ID: 3}
	tuples := []query.Tuple{
		tupleRow(s2, nil, nil),
		tupleRow(s1, nil, nil),
		tupleRow(s2, nil, nil),
		tupleRow(s3, nil, nil),
	}

	groups := query.Aggregate(tuples, bySession, []query.Reducer{
		{Name: "rows", Op: query.OpCount, Value: func(query.Tuple) (float64, bool) { return 1, true }},
	})

	want := []string{"2", "1", "3"}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, id := range want {
		if groups[i].Key.ID != id {
			t.Errorf("group %d = %s, want %s", i, groups[i].Key.ID, id)
		}
	}
	if got := *groups[0].Metrics["rows"]; got != 2 {
		t.Errorf("session 2 rows = %v, want 2", got)
	}
}

func TestAggregateFanOutDedup(t *testing.T) {
	// Ticket 1 carries two payment rows, so the join fans it out into
	// two tuples. Distinct ops must still count and price it once.
	s := &model.Session{ID: 1}
	t1 := &model.Ticket{ID: 1, SessionID: 1, Price: decimal.NewFromInt(30)}
	t2 := &model.Ticket{ID: 2, SessionID: 1, Price: decimal.NewFromInt(15)}
	tuples := []query.Tuple{
		tupleRow(s, t1, &model.PaymentDetails{ID: 1, TicketID: 1, Status: model.PaymentRefused, Amount: decimal.NewFromInt(30)}),
		tupleRow(s, t1, &model.PaymentDetails{ID: 2, TicketID: 1, Status: model.PaymentCompleted, Amount: decimal.NewFromInt(30)}),
		tupleRow(s, t2, &model.PaymentDetails{ID: 3, TicketID: 2, Status: model.PaymentCompleted, Amount: decimal.NewFromInt(15)}),
	}

	groups := query.Aggregate(tuples, bySession, []query.Reducer{
		{Name: "revenue", Op: query.OpSum, Value: completedAmount},
		{Name: "rows", Op: query.OpCount, Value: ticketPrice},
		{Name: "tickets", Op: query.OpCountDistinct, Key: ticketKey},
		{Name: "price_once", Op: query.OpSumDistinct, Key: ticketKey, Value: ticketPrice},
		{Name: "price_rows", Op: query.OpSum, Value: ticketPrice},
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	m := groups[0].Metrics

	checks := []struct {
		metric string
		want   float64
	}{
		{"revenue", 45}, // refused payment contributes nothing
		{"rows", 3},
		{"tickets", 2},     // ticket 1 deduped across its two payments
		{"price_once", 45}, // 30 + 15, ticket 1 priced once
		{"price_rows", 75}, // the naive sum double-counts it
	}
	for _, c := range checks {
		got := m[c.metric]
		if got == nil {
			t.Errorf("%s = nil, want %v", c.metric, c.want)
			continue
		}
		if *got != c.want {
			t.Errorf("%s = %v, want %v", c.metric, *got, c.want)
		}
	}
}

func TestAggregateEmptyGroupMetrics(t *testing.T) {
	// Every payment refused: positional reducers go null, additive ones
	// go zero. Nothing divides by the empty count.
	s := &model.Session{ID: 1}
	tk := &model.Ticket{ID: 1, SessionID: 1, Price: decimal.NewFromInt(30)}
	tuples := []query.Tuple{
		tupleRow(s, tk, &model.PaymentDetails{ID: 1, TicketID: 1, Status: model.PaymentRefused, Amount: decimal.NewFromInt(30)}),
	}

	groups := query.Aggregate(tuples, bySession, []query.Reducer{
		{Name: "sum", Op: query.OpSum, Value: completedAmount},
		{Name: "count", Op: query.OpCount, Value: completedAmount},
		{Name: "avg", Op: query.OpAvg, Value: completedAmount},
		{Name: "min", Op: query.OpMin, Value: completedAmount},
		{Name: "max", Op: query.OpMax, Value: completedAmount},
	})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	m := groups[0].Metrics
	if m["sum"] == nil || *m["sum"] != 0 {
		t.Errorf("sum = %v, want 0", m["sum"])
	}
	if m["count"] == nil || *m["count"] != 0 {
		t.Errorf("count = %v, want 0", m["count"])
	}
	for _, name := range []string{"avg", "min", "max"} {
		if m[name] != nil {
			t.Errorf("%s = %v, want nil", name, *m[name])
		}
	}
}

func TestAggregateSeededGroups(t *testing.T) {
	s1 := &model.Session{ID: 1}
	tk := &model.Ticket{ID: 1, SessionID: 1, Price: decimal.NewFromInt(30)}
	tuples := []query.Tuple{tupleRow(s1, tk, nil)}

	seed := []query.GroupKey{
		{ID: "5", Label: "session 5"},
		{ID: "1", Label: "session 1"},
	}
	groups := query.Aggregate(tuples, bySession, []query.Reducer{
		{Name: "tickets", Op: query.OpCountDistinct, Key: ticketKey},
		{Name: "avg_price", Op: query.OpAvg, Value: ticketPrice},
	}, query.WithSeed(seed))

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want seeded 5 and active 1", len(groups))
	}
	if groups[0].Key.ID != "5" || groups[1].Key.ID != "1" {
		t.Fatalf("group order = [%s %s], want seeds first in seed order", groups[0].Key.ID, groups[1].Key.ID)
	}
	idle := groups[0].Metrics
	if idle["tickets"] == nil || *idle["tickets"] != 0 {
		t.Errorf("idle tickets = %v, want 0", idle["tickets"])
	}
	if idle["avg_price"] != nil {
		t.Errorf("idle avg_price = %v, want nil", *idle["avg_price"])
	}
	active := groups[1].Metrics
	if active["tickets"] == nil || *active["tickets"] != 1 {
		t.Errorf("active tickets = %v, want 1", active["tickets"])
	}
}

func TestRankOrdering(t *testing.T) {
	mk := func(id string, v *float64) query.Group {
		return query.Group{Key: query.GroupKey{ID: id, Label: id}, Metrics: map[string]*float64{"revenue": v}}
	}

	t.Run("numeric ids", func(t *testing.T) {
		groups := query.Rank([]query.Group{
			mk("10", fp(100)),
			mk("2", fp(50)),
			mk("7", nil),
			mk("9", fp(100)),
		}, "revenue")
		// Descending revenue, the 100/100 tie broken by numeric id
		// (9 before 10, not the lexicographic order), nulls last.
		want := []string{"9", "10", "2", "7"}
		for i, id := range want {
			if groups[i].Key.ID != id {
				t.Errorf("rank %d = %s, want %s", i, groups[i].Key.ID, id)
			}
		}
	})

	t.Run("day stamps", func(t *testing.T) {
		groups := query.Rank([]query.Group{
			mk("2024-05-11", fp(70)),
			mk("2024-05-10", fp(70)),
		}, "revenue")
		if groups[0].Key.ID != "2024-05-10" {
			t.Errorf("tied days ranked %s first, want 2024-05-10", groups[0].Key.ID)
		}
	})
}

func TestTopTruncation(t *testing.T) {
	groups := []query.Group{
		{Key: query.GroupKey{ID: "1"}},
		{Key: query.GroupKey{ID: "2"}},
		{Key: query.GroupKey{ID: "3"}},
	}
	if got := query.Top(groups, 2); len(got) != 2 || got[1].Key.ID != "2" {
		t.Fatalf("Top(2) = %d groups ending %s, want the first 2", len(got), got[len(got)-1].Key.ID)
	}
	if got := query.Top(groups, 0); len(got) != 3 {
		t.Fatalf("Top(0) = %d groups, want all (no limit)", len(got))
	}
	if got := query.Top(groups, 10); len(got) != 3 {
		t.Fatalf("Top(10) = %d groups, want all", len(got))
	}
}
