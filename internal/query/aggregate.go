package query

import (
	"sort"
	"strconv"
)

// GroupKey identifies one aggregation group. ID is the canonical value the
// ranking tie-break compares (an entity id or a day stamp); Label is the
// display form reports show.
type GroupKey struct {
	ID    string
	Label string
}

// ReduceOp selects how a reducer accumulates values across a group.
type ReduceOp int

const (
	OpSum           ReduceOp = iota // sum of present values, 0 when none
	OpCount                         // number of present values
	OpCountDistinct                 // number of distinct keys with a present value
	OpSumDistinct                   // sum of values, first occurrence per key only
	OpAvg                           // mean of present values, null when none
	OpMin                           // smallest present value, null when none
	OpMax                           // largest present value, null when none
)

// Reducer binds a metric name to an accumulation op. Value extracts the
// numeric input from a tuple; ok=false means the tuple contributes nothing
// for this metric. Key supplies the deduplication key for the distinct
// ops, so fan-out tuples cannot count the same underlying record twice.
type Reducer struct {
	Name  string
	Op    ReduceOp
	Value func(Tuple) (float64, bool)
	Key   func(Tuple) (string, bool)
}

// KeyFunc extracts the grouping key from a tuple.
type KeyFunc func(Tuple) GroupKey

// Group is one aggregation result row. Metrics maps reducer names to
// values; a nil value serializes as JSON null and means the reducer had no
// contributing records.
type Group struct {
	Key     GroupKey
	Metrics map[string]*float64
}

type aggOptions struct {
	seed []GroupKey
}

// AggregateOption adjusts one aggregation run.
type AggregateOption func(*aggOptions)

// WithSeed pre-creates groups for the given keys so they appear in the
// output even when no tuple maps to them. Reports use it to list
// zero-activity rooms and directors with zero/null metrics.
func WithSeed(keys []GroupKey) AggregateOption {
	return func(o *aggOptions) {
		o.seed = keys
	}
}

// accumulator carries the running state of one reducer inside one group.
type accumulator struct {
	sum  float64
	n    int
	min  float64
	max  float64
	seen map[string]bool
}

// Aggregate partitions the tuples by key and runs every reducer over each
// partition. Group order is first appearance of each key (seeded keys
// first), which keeps the output deterministic for deterministic input.
// Aggregation itself cannot fail: null and zero handling is defined per
// op, never exceptional.
func Aggregate(tuples []Tuple, key KeyFunc, reducers []Reducer, opts ...AggregateOption) []Group {
	var o aggOptions
	for _, opt := range opts {
		opt(&o)
	}

	var order []GroupKey
	index := make(map[string]int)
	state := make(map[string][]accumulator)

	open := func(k GroupKey) int {
		if i, ok := index[k.ID]; ok {
			return i
		}
		index[k.ID] = len(order)
		order = append(order, k)
		accs := make([]accumulator, len(reducers))
		for i := range accs {
			accs[i].seen = make(map[string]bool)
		}
		state[k.ID] = accs
		return index[k.ID]
	}

	for _, k := range o.seed {
		open(k)
	}

	for _, t := range tuples {
		k := key(t)
		open(k)
		accs := state[k.ID]
		for i, red := range reducers {
			accs[i].apply(red, t)
		}
	}

	out := make([]Group, 0, len(order))
	for _, k := range order {
		accs := state[k.ID]
		metrics := make(map[string]*float64, len(reducers))
		for i, red := range reducers {
			metrics[red.Name] = accs[i].finalize(red.Op)
		}
		out = append(out, Group{Key: k, Metrics: metrics})
	}
	return out
}

func (a *accumulator) apply(red Reducer, t Tuple) {
	switch red.Op {
	case OpSum:
		if v, ok := red.Value(t); ok {
			a.sum += v
		}
	case OpCount:
		if _, ok := red.Value(t); ok {
			a.n++
		}
	case OpCountDistinct:
		if k, ok := red.Key(t); ok && !a.seen[k] {
			a.seen[k] = true
			a.n++
		}
	case OpSumDistinct:
		k, ok := red.Key(t)
		if !ok || a.seen[k] {
			return
		}
		a.seen[k] = true
		if v, ok := red.Value(t); ok {
			a.sum += v
		}
	case OpAvg:
		if v, ok := red.Value(t); ok {
			a.sum += v
			a.n++
		}
	case OpMin:
		if v, ok := red.Value(t); ok {
			if a.n == 0 || v < a.min {
				a.min = v
			}
			a.n++
		}
	case OpMax:
		if v, ok := red.Value(t); ok {
			if a.n == 0 || v > a.max {
				a.max = v
			}
			a.n++
		}
	}
}

// finalize turns the accumulated state into the metric value. Sums and
// counts are always defined; the positional ops yield nil for empty input
// so an average over nothing is null, never a division fault.
func (a *accumulator) finalize(op ReduceOp) *float64 {
	f := func(v float64) *float64 { return &v }
	switch op {
	case OpSum, OpSumDistinct:
		return f(a.sum)
	case OpCount, OpCountDistinct:
		return f(float64(a.n))
	case OpAvg:
		if a.n == 0 {
			return nil
		}
		return f(a.sum / float64(a.n))
	case OpMin:
		if a.n == 0 {
			return nil
		}
		return f(a.min)
	case OpMax:
		if a.n == 0 {
			return nil
		}
		return f(a.max)
	}
	return nil
}

// Rank orders groups in place by the named metric, descending, and
// returns the slice for chaining. Nil metric values sort last; ties order
// by ascending group id so repeated requests page identically.
func Rank(groups []Group, metric string) []Group {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Metrics[metric], groups[j].Metrics[metric]
		switch {
		case a == nil && b == nil:
			return lessKeyID(groups[i].Key.ID, groups[j].Key.ID)
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}
		return lessKeyID(groups[i].Key.ID, groups[j].Key.ID)
	})
	return groups
}

// Top truncates to the first n groups; n < 1 means no limit.
func Top(groups []Group, n int) []Group {
	if n < 1 || n >= len(groups) {
		return groups
	}
	return groups[:n]
}

// lessKeyID compares group ids numerically when both parse as integers,
// lexicographically otherwise (day stamps sort correctly either way).
func lessKeyID(a, b string) bool {
	ai, aerr := strconv.ParseUint(a, 10, 64)
	bi, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
