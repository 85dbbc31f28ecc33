package query

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Cardinality tags a hop with the relationship shape between its source
// and target entity types.
type Cardinality int

const (
	OneToOne   Cardinality = iota // fk on the target, at most one match expected
	OneToMany                     // fk on the target, fan-out over every match
	ManyToOne                     // fk on the source, single-record lookup
	ManyToMany                    // resolved through a link entity
)

// Hop is one declared traversal step. From names the already-resolved slot
// the hop reads, As names the slot it fills, and FK names the foreign key
// column: on the source record for ManyToOne, on the target records for
// OneToOne/OneToMany, and on the link records for ManyToMany (LinkFK then
// points from the link to the target).
//
// Optional hops keep a tuple alive with a nil slot when no children match,
// so zero-activity parents still reach aggregation; non-optional hops drop
// the tuple. Filter, when set, restricts the fetched child records before
// fan-out.
type Hop struct {
	From     string
	As       string
	Entity   store.EntityType
	Kind     Cardinality
	FK       string
	Link     store.EntityType
	LinkFK   string
	Optional bool
	Filter   *Filter
}

// Path declares a fixed traversal: the root collection, the slot name its
// records occupy, and an ordered hop list. Reports declare their paths
// statically; the resolver interprets them, it never plans.
type Path struct {
	Root store.EntityType
	As   string
	Hops []Hop
}

// Tuple is one complete path instance: resolved records keyed by slot
// name. Slots of optional hops may hold nil.
type Tuple map[string]store.Record

// Resolver expands root records along a declared path into flat joined
// tuples. It holds no per-request state; one resolver serves all requests.
type Resolver struct {
	store       store.Store
	reg         Registry
	parallelism int
}

const defaultParallelism = 8

// ResolverOption adjusts resolver construction.
type ResolverOption func(*Resolver)

// WithParallelism bounds how many store fetches one hop may run at once.
func WithParallelism(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// NewResolver builds a resolver over the given store and schema registry.
func NewResolver(st store.Store, reg Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: st, reg: reg, parallelism: defaultParallelism}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve expands roots along the path and returns the flat tuple
// sequence, one tuple per complete path instance. Hops whose source slots
// are all resolved before them form a stage and resolve concurrently;
// tuple order stays deterministic regardless: root order, then declared
// hop order, then child id order. A dangling required reference aborts the
// whole resolution with ErrDanglingReference.
func (r *Resolver) Resolve(ctx context.Context, path Path, roots []store.Record) ([]Tuple, error) {
	slots, err := validatePath(path)
	if err != nil {
		return nil, err
	}

	tuples := make([]Tuple, 0, len(roots))
	for _, rec := range roots {
		tuples = append(tuples, Tuple{path.As: rec})
	}

	for start := 0; start < len(path.Hops); {
		end := start + 1
		produced := map[string]bool{path.Hops[start].As: true}
		for end < len(path.Hops) && !produced[path.Hops[end].From] {
			produced[path.Hops[end].As] = true
			end++
		}
		tuples, err = r.resolveStage(ctx, path.Hops[start:end], tuples, slots)
		if err != nil {
			return nil, err
		}
		start = end
	}
	return tuples, nil
}

// validatePath checks slot wiring once up front and returns the slot to
// entity type mapping. These are programming errors in a report
// definition, not request errors, so the messages stay blunt.
func validatePath(path Path) (map[string]store.EntityType, error) {
	if path.As == "" {
		return nil, errors.New("join: path has no root slot name")
	}
	slots := map[string]store.EntityType{path.As: path.Root}
	for _, h := range path.Hops {
		if h.As == "" {
			return nil, fmt.Errorf("join: hop to %s has no slot name", h.Entity)
		}
		if _, ok := slots[h.As]; ok {
			return nil, fmt.Errorf("join: duplicate slot %q", h.As)
		}
		if _, ok := slots[h.From]; !ok {
			return nil, fmt.Errorf("join: hop %q reads unresolved slot %q", h.As, h.From)
		}
		if h.Kind == ManyToMany && (h.Link == "" || h.LinkFK == "") {
			return nil, fmt.Errorf("join: hop %q needs a link entity and link foreign key", h.As)
		}
		slots[h.As] = h.Entity
	}
	return slots, nil
}

// resolveStage resolves a run of independent hops concurrently, then
// merges their per-tuple child lists back in declared hop order.
func (r *Resolver) resolveStage(ctx context.Context, hops []Hop, tuples []Tuple, slots map[string]store.EntityType) ([]Tuple, error) {
	children := make([][][]store.Record, len(hops))
	g, gctx := errgroup.WithContext(ctx)
	for i := range hops {
		i := i // per-iteration copy; required while go.mod targets a pre-1.22 toolchain
		g.Go(func() error {
			res, err := r.resolveHop(gctx, hops[i], tuples, slots)
			if err != nil {
				return err
			}
			children[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Tuple, 0, len(tuples))
	for ti, t := range tuples {
		combos := []Tuple{t}
		for hi, h := range hops {
			matched := children[hi][ti]
			next := make([]Tuple, 0, len(combos)*len(matched))
			for _, c := range combos {
				for _, child := range matched {
					nt := make(Tuple, len(c)+1)
					for k, v := range c {
						nt[k] = v
					}
					nt[h.As] = child
					next = append(next, nt)
				}
			}
			combos = next
		}
		out = append(out, combos...)
	}
	return out, nil
}

// resolveHop computes, for every input tuple, the child records the hop
// contributes. An empty list drops the tuple; a single nil entry keeps the
// tuple with an absent slot.
func (r *Resolver) resolveHop(ctx context.Context, hop Hop, tuples []Tuple, slots map[string]store.EntityType) ([][]store.Record, error) {
	switch hop.Kind {
	case ManyToOne:
		return r.resolveManyToOne(ctx, hop, tuples, slots)
	case OneToOne, OneToMany:
		return r.resolveOneToMany(ctx, hop, tuples)
	case ManyToMany:
		return r.resolveManyToMany(ctx, hop, tuples)
	}
	return nil, fmt.Errorf("join: hop %q has unknown cardinality %d", hop.As, hop.Kind)
}

// resolveManyToOne follows a foreign key on the source records. Distinct
// targets are fetched once, concurrently; a missing target fails the whole
// resolution with ErrDanglingReference instead of under-counting.
func (r *Resolver) resolveManyToOne(ctx context.Context, hop Hop, tuples []Tuple, slots map[string]store.EntityType) ([][]store.Record, error) {
	src := slots[hop.From]
	field, ok := r.reg.Field(src, hop.FK)
	if !ok || field.Ref == nil {
		return nil, fmt.Errorf("join: %s has no foreign key field %q", src, hop.FK)
	}

	fks := make([]uint64, len(tuples))
	present := make([]bool, len(tuples))
	var ids []uint64
	seen := make(map[uint64]bool)
	for i, t := range tuples {
		srcRec := t[hop.From]
		if srcRec == nil {
			continue
		}
		v, ok := field.Ref(srcRec)
		if !ok {
			if hop.Optional {
				continue
			}
			return nil, fmt.Errorf("%w: %s %d has no %s value", ErrDanglingReference, src, srcRec.EntityID(), hop.FK)
		}
		fks[i], present[i] = v, true
		if !seen[v] {
			seen[v] = true
			ids = append(ids, v)
		}
	}

	fetched := make(map[uint64]store.Record, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, id := range ids {
		id := id // per-iteration copy; required while go.mod targets a pre-1.22 toolchain
		g.Go(func() error {
			rec, err := r.store.Get(gctx, hop.Entity, id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("%w: %s %s=%d has no matching %s record", ErrDanglingReference, src, hop.FK, id, hop.Entity)
				}
				return err
			}
			mu.Lock()
			fetched[id] = rec
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]store.Record, len(tuples))
	for i := range tuples {
		if !present[i] {
			out[i] = []store.Record{nil}
			continue
		}
		rec := fetched[fks[i]]
		if hop.Filter != nil && !hop.Filter.Matches(rec) {
			if hop.Optional {
				out[i] = []store.Record{nil}
			}
			continue
		}
		out[i] = []store.Record{rec}
	}
	return out, nil
}

// resolveOneToMany lists the target records carrying the source's id in
// their foreign key column. One store call per distinct source id; fan-out
// happens at merge time.
func (r *Resolver) resolveOneToMany(ctx context.Context, hop Hop, tuples []Tuple) ([][]store.Record, error) {
	var ids []uint64
	seen := make(map[uint64]bool)
	for _, t := range tuples {
		srcRec := t[hop.From]
		if srcRec == nil {
			continue
		}
		if id := srcRec.EntityID(); !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	byID := make(map[uint64][]store.Record, len(ids))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, id := range ids {
		id := id // per-iteration copy; required while go.mod targets a pre-1.22 toolchain
		g.Go(func() error {
			recs, err := r.store.ListByForeignKey(gctx, hop.Entity, hop.FK, id)
			if err != nil {
				return err
			}
			if hop.Filter != nil {
				recs = hop.Filter.Apply(recs)
			}
			mu.Lock()
			byID[id] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]store.Record, len(tuples))
	for i, t := range tuples {
		srcRec := t[hop.From]
		if srcRec == nil {
			out[i] = []store.Record{nil}
			continue
		}
		recs := byID[srcRec.EntityID()]
		if len(recs) == 0 {
			if hop.Optional {
				out[i] = []store.Record{nil}
			}
			continue
		}
		out[i] = recs
	}
	return out, nil
}

// resolveManyToMany walks source → link rows → target records. The link
// rows are ordered by id, so the produced pair order is stable. A link row
// whose target is gone is a dangling reference like any other.
func (r *Resolver) resolveManyToMany(ctx context.Context, hop Hop, tuples []Tuple) ([][]store.Record, error) {
	linkField, ok := r.reg.Field(hop.Link, hop.LinkFK)
	if !ok || linkField.Ref == nil {
		return nil, fmt.Errorf("join: link %s has no foreign key field %q", hop.Link, hop.LinkFK)
	}

	var ids []uint64
	seen := make(map[uint64]bool)
	for _, t := range tuples {
		srcRec := t[hop.From]
		if srcRec == nil {
			continue
		}
		if id := srcRec.EntityID(); !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	byID := make(map[uint64][]store.Record, len(ids))
	targets := make(map[uint64]store.Record)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for _, id := range ids {
		id := id // per-iteration copy; required while go.mod targets a pre-1.22 toolchain
		g.Go(func() error {
			links, err := r.store.ListByForeignKey(gctx, hop.Link, hop.FK, id)
			if err != nil {
				return err
			}
			recs := make([]store.Record, 0, len(links))
			for _, link := range links {
				targetID, ok := linkField.Ref(link)
				if !ok {
					return fmt.Errorf("%w: %s %d has no %s value", ErrDanglingReference, hop.Link, link.EntityID(), hop.LinkFK)
				}
				mu.Lock()
				rec, cached := targets[targetID]
				mu.Unlock()
				if !cached {
					rec, err = r.store.Get(gctx, hop.Entity, targetID)
					if err != nil {
						if errors.Is(err, store.ErrNotFound) {
							return fmt.Errorf("%w: %s %s=%d has no matching %s record", ErrDanglingReference, hop.Link, hop.LinkFK, targetID, hop.Entity)
						}
						return err
					}
					mu.Lock()
					targets[targetID] = rec
					mu.Unlock()
				}
				if hop.Filter != nil && !hop.Filter.Matches(rec) {
					continue
				}
				recs = append(recs, rec)
			}
			mu.Lock()
			byID[id] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([][]store.Record, len(tuples))
	for i, t := range tuples {
		srcRec := t[hop.From]
		if srcRec == nil {
			out[i] = []store.Record{nil}
			continue
		}
		recs := byID[srcRec.EntityID()]
		if len(recs) == 0 {
			if hop.Optional {
				out[i] = []store.Record{nil}
			}
			continue
		}
		out[i] = recs
	}
	return out, nil
}

// DistinctRecords collects the records occupying a slot across tuples,
// deduplicated by id, in first-appearance order. Nil slots are skipped.
// Assemblers use it to recover per-entity collections from fan-out tuples.
func DistinctRecords(tuples []Tuple, slot string) []store.Record {
	var out []store.Record
	seen := make(map[uint64]bool)
	for _, t := range tuples {
		rec := t[slot]
		if rec == nil || seen[rec.EntityID()] {
			continue
		}
		seen[rec.EntityID()] = true
		out = append(out, rec)
	}
	return out
}
