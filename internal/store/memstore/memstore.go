// Package memstore provides an in-memory store.Store backed by plain maps
// under a read-write mutex. It exists for tests and local experiments:
// fixtures are seeded with Put and every read honors the same ordering
// and error contract as the SQL-backed store, so the query engine cannot
// tell them apart.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Jaum1981/cinema-analytics-api/internal/query"
	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Store keeps every record of every entity type in memory.
type Store struct {
	mu      sync.RWMutex
	reg     query.Registry
	records map[store.EntityType]map[uint64]store.Record
}

// New builds an empty store. Foreign-key listing reads the key columns
// through the registry's ref extractors.
func New(reg query.Registry) *Store {
	return &Store{
		reg:     reg,
		records: make(map[store.EntityType]map[uint64]store.Record),
	}
}

// Put inserts or replaces records under the given entity type.
func (s *Store) Put(entity store.EntityType, recs ...store.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.records[entity]
	if !ok {
		byID = make(map[uint64]store.Record)
		s.records[entity] = byID
	}
	for _, r := range recs {
		byID[r.EntityID()] = r
	}
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, entity store.EntityType, id uint64) (store.Record, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[entity][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

// ListByForeignKey implements store.Store. Records come back ordered by
// ascending id.
func (s *Store) ListByForeignKey(ctx context.Context, entity store.EntityType, fkField string, fkValue uint64) ([]store.Record, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	field, ok := s.reg.Field(entity, fkField)
	if !ok || field.Ref == nil {
		return nil, fmt.Errorf("memstore: %s has no foreign key %q", entity, fkField)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.Record
	for _, rec := range s.records[entity] {
		if v, ok := field.Ref(rec); ok && v == fkValue {
			out = append(out, rec)
		}
	}
	sortByID(out)
	return out, nil
}

// ListAll implements store.Store. Records come back ordered by ascending
// id.
func (s *Store) ListAll(ctx context.Context, entity store.EntityType) ([]store.Record, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Record, 0, len(s.records[entity]))
	for _, rec := range s.records[entity] {
		out = append(out, rec)
	}
	sortByID(out)
	return out, nil
}

func sortByID(recs []store.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].EntityID() < recs[j].EntityID() })
}

// ctxErr maps an expired deadline to the retryable store error, matching
// what the SQL store reports for a slow backend.
func ctxErr(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return err
}
