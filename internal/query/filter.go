package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Predicate reports whether a single record matches one filter condition.
type Predicate func(store.Record) bool

// Filter is a compiled conjunction of field predicates. Construction
// validates every parameter eagerly, so a Filter that exists is always
// safe to evaluate; evaluation itself never fails and has no side effects.
type Filter struct {
	preds []Predicate
}

// filterOp is the operator selected by the query key's naming convention.
type filterOp int

const (
	opExact filterOp = iota
	opMin            // min_<field>, inclusive lower bound
	opMax            // max_<field>, inclusive upper bound
	opAfter          // after_<field>, inclusive lower time bound
	opBefore         // before_<field>, inclusive upper time bound
)

// NewFilter compiles query parameters into a predicate over records of the
// schema's entity type. Keys map to fields directly or through the
// min_/max_/after_/before_ prefixes; multiple keys combine with AND.
// Unknown fields, operators a field's kind does not support, and
// unparsable values fail with ErrInvalidFilter before any record is read.
// Parameters with empty values are ignored, as are the reserved paging
// keys; callers strip those before compiling.
func NewFilter(sch Schema, params url.Values) (*Filter, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := &Filter{}
	for _, key := range keys {
		raw := params.Get(key)
		if raw == "" {
			continue
		}
		op, name := splitOp(key)
		field, ok := sch.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q for %s", ErrInvalidFilter, key, sch.Entity)
		}
		pred, err := compile(field, op, raw)
		if err != nil {
			return nil, err
		}
		f.preds = append(f.preds, pred)
	}
	return f, nil
}

// splitOp peels a known operator prefix off a query key.
func splitOp(key string) (filterOp, string) {
	switch {
	case strings.HasPrefix(key, "min_"):
		return opMin, strings.TrimPrefix(key, "min_")
	case strings.HasPrefix(key, "max_"):
		return opMax, strings.TrimPrefix(key, "max_")
	case strings.HasPrefix(key, "after_"):
		return opAfter, strings.TrimPrefix(key, "after_")
	case strings.HasPrefix(key, "before_"):
		return opBefore, strings.TrimPrefix(key, "before_")
	}
	return opExact, key
}

// compile builds the leaf predicate for one field/operator/value triple.
func compile(field FieldDef, op filterOp, raw string) (Predicate, error) {
	switch op {
	case opMin, opMax:
		if field.Kind != KindNumber {
			return nil, fmt.Errorf("%w: %s does not support range bounds", ErrInvalidFilter, field.Name)
		}
		bound, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric for %s", ErrInvalidFilter, raw, field.Name)
		}
		return numberPred(field, func(v float64) bool {
			if op == opMin {
				return v >= bound
			}
			return v <= bound
		}), nil

	case opAfter, opBefore:
		if field.Kind != KindDate && field.Kind != KindTime {
			return nil, fmt.Errorf("%w: %s does not support time bounds", ErrInvalidFilter, field.Name)
		}
		bound, err := parseWhen(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date for %s", ErrInvalidFilter, raw, field.Name)
		}
		return timePred(field, func(v time.Time) bool {
			if op == opAfter {
				return !v.Before(bound)
			}
			return !v.After(bound)
		}), nil
	}
	return compileExact(field, raw)
}

// compileExact builds the bare field=value predicate for the field's kind.
// Strings match by case-insensitive contains so list endpoints behave like
// a search box; every other kind matches exactly.
func compileExact(field FieldDef, raw string) (Predicate, error) {
	switch field.Kind {
	case KindString:
		needle := strings.ToLower(raw)
		return stringPred(field, func(v string) bool {
			return strings.Contains(strings.ToLower(v), needle)
		}), nil

	case KindEnum:
		want := strings.ToLower(raw)
		allowed := false
		for _, v := range field.Enum {
			if strings.EqualFold(v, raw) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %q is not a valid %s value", ErrInvalidFilter, raw, field.Name)
		}
		return stringPred(field, func(v string) bool {
			return strings.ToLower(v) == want
		}), nil

	case KindNumber:
		want, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not numeric for %s", ErrInvalidFilter, raw, field.Name)
		}
		return numberPred(field, func(v float64) bool { return v == want }), nil

	case KindRef:
		want, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an id for %s", ErrInvalidFilter, raw, field.Name)
		}
		return func(r store.Record) bool {
			v, ok := field.Ref(r)
			return ok && v == want
		}, nil

	case KindDate:
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a date for %s", ErrInvalidFilter, raw, field.Name)
		}
		return timePred(field, func(v time.Time) bool {
			y1, m1, d1 := v.UTC().Date()
			y2, m2, d2 := day.Date()
			return y1 == y2 && m1 == m2 && d1 == d2
		}), nil

	case KindTime:
		want, err := parseWhen(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a timestamp for %s", ErrInvalidFilter, raw, field.Name)
		}
		return timePred(field, func(v time.Time) bool { return v.Equal(want) }), nil
	}
	return nil, fmt.Errorf("%w: %s has no matchable kind", ErrInvalidFilter, field.Name)
}

func stringPred(field FieldDef, match func(string) bool) Predicate {
	return func(r store.Record) bool {
		v, ok := field.String(r)
		return ok && match(v)
	}
}

func numberPred(field FieldDef, match func(float64) bool) Predicate {
	return func(r store.Record) bool {
		v, ok := field.Number(r)
		return ok && match(v)
	}
}

func timePred(field FieldDef, match func(time.Time) bool) Predicate {
	return func(r store.Record) bool {
		v, ok := field.Time(r)
		return ok && match(v)
	}
}

// parseWhen accepts RFC 3339 timestamps, the DB datetime layout and plain
// dates; a plain date reads as midnight UTC.
func parseWhen(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Matches reports whether the record satisfies every compiled condition.
func (f *Filter) Matches(r store.Record) bool {
	for _, p := range f.preds {
		if !p(r) {
			return false
		}
	}
	return true
}

// Apply keeps the matching records, preserving input order.
func (f *Filter) Apply(recs []store.Record) []store.Record {
	out := make([]store.Record, 0, len(recs))
	for _, r := range recs {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Select keeps the matching records of a concrete entity slice, preserving
// input order. It exists so CRUD handlers can filter their typed lists
// without round-tripping through []store.Record.
func Select[T store.Record](f *Filter, recs []T) []T {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
