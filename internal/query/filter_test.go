package query_test

import (
	"errors"
	"net/url"
	"testing"

	"github.com/Jaum1981/cinema-analytics-api/internal/model"
	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

func movieIDs(movies []*model.Movie) []uint64 {
	ids := make([]uint64, len(movies))
	for i, m := range movies {
		ids[i] = m.ID
	}
	return ids
}

func sameIDs(a []uint64, b ...uint64) bool {
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

func TestFilterOperators(t *testing.T) {
	movies := catalog(t)
	sch := model.Schemas()[store.Movies]

	cases := []struct {
		name   string
		params url.Values
		want   []uint64
	}{
		{"contains", url.Values{"genre": {"sci"}}, []uint64{1, 2}},
		{"contains is case-insensitive", url.Values{"title": {"BLADE"}}, []uint64{1}},
		{"optional string matches when set", url.Values{"synopsis": {"replicant"}}, []uint64{1}},
		{"number exact", url.Values{"rating": {"8.3"}}, []uint64{3}},
		{"min bound is inclusive", url.Values{"min_rating": {"8.1"}}, []uint64{1, 3}},
		{"max bound is inclusive", url.Values{"max_duration_minutes": {"117"}}, []uint64{1, 2}},
		{"ref exact", url.Values{"director_id": {"2"}}, []uint64{2, 3}},
		{"date matches the calendar day", url.Values{"release_date": {"1995-12-15"}}, []uint64{3}},
		{"after is inclusive", url.Values{"after_release_date": {"1995-12-15"}}, []uint64{2, 3}},
		{"before is inclusive", url.Values{"before_release_date": {"1982-06-25"}}, []uint64{1}},
		{"conditions AND together", url.Values{"genre": {"sci"}, "min_rating": {"8"}}, []uint64{1}},
		{"empty values are ignored", url.Values{"genre": {""}}, []uint64{1, 2, 3}},
		{"no match yields empty, not error", url.Values{"genre": {"western"}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := query.NewFilter(sch, tc.params)
			if err != nil {
				t.Fatalf("NewFilter(%v): unexpected error %v", tc.params, err)
			}
			got := movieIDs(query.Select(f, movies))
			if !sameIDs(got, tc.want...) {
				t.Fatalf("Select(%v) = %v, want %v", tc.params, got, tc.want)
			}
		})
	}
}

func TestFilterInvalid(t *testing.T) {
	reg := model.Schemas()
	cases := []struct {
		name   string
		entity store.EntityType
		params url.Values
	}{
		{"unknown field", store.Movies, url.Values{"producer": {"x"}}},
		{"unknown range target", store.Movies, url.Values{"min_producer": {"1"}}},
		{"range on string", store.Movies, url.Values{"min_title": {"a"}}},
		{"time bound on number", store.Movies, url.Values{"after_rating": {"2020-01-01"}}},
		{"non-numeric bound", store.Movies, url.Values{"min_rating": {"high"}}},
		{"non-numeric ref", store.Sessions, url.Values{"movie_id": {"first"}}},
		{"bad date", store.Movies, url.Values{"release_date": {"June 1982"}}},
		{"enum outside the set", store.Sessions, url.Values{"status": {"paused"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := query.NewFilter(reg[tc.entity], tc.params)
			if !errors.Is(err, query.ErrInvalidFilter) {
				t.Fatalf("NewFilter(%v) error = %v, want ErrInvalidFilter", tc.params, err)
			}
		})
	}
}

func TestFilterEnumCaseInsensitive(t *testing.T) {
	sessions := []*model.Session{
		{ID: 1, Status: model.SessionScheduled},
		{ID: 2, Status: model.SessionCancelled},
	}
	sch := model.Schemas()[store.Sessions]
	f, err := query.NewFilter(sch, url.Values{"status": {"SCHEDULED"}})
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	got := query.Select(f, sessions)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("Select(status=SCHEDULED) = %v sessions, want session 1 only", len(got))
	}
}

// Filtering is pure: running the same filter over its own output must
// change nothing, in content or in order.
func TestFilterIdempotent(t *testing.T) {
	movies := catalog(t)
	sch := model.Schemas()[store.Movies]
	f, err := query.NewFilter(sch, url.Values{"genre": {"sci"}, "min_rating": {"7"}})
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	once := query.Select(f, movies)
	twice := query.Select(f, once)
	if !sameIDs(movieIDs(twice), movieIDs(once)...) {
		t.Fatalf("filter not idempotent: first %v, second %v", movieIDs(once), movieIDs(twice))
	}
	// The input slice must be untouched.
	if len(movies) != 3 {
		t.Fatalf("input slice mutated: %d movies left", len(movies))
	}
}
