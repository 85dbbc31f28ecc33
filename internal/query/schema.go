package query

import (
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// FieldKind classifies an entity attribute for filtering and joining. The
// kind decides which operators a query parameter may apply to the field.
type FieldKind int

const (
	KindString FieldKind = iota // free text, matched by case-insensitive contains
	KindNumber                  // numeric, exact and min_/max_ ranges
	KindDate                    // calendar day, exact day and after_/before_
	KindTime                    // full timestamp, after_/before_
	KindEnum                    // closed value set, exact match only
	KindRef                     // foreign key id, exact match; read by the join resolver
)

// FieldDef describes one attribute of an entity type. Exactly one extractor
// matching the kind must be set; extractors return ok=false when the record
// carries no value for the field, which filtering treats as a non-match and
// aggregation treats as null.
type FieldDef struct {
	Name string
	Kind FieldKind
	Enum []string // allowed values, KindEnum only

	String func(store.Record) (string, bool)
	Number func(store.Record) (float64, bool)
	Time   func(store.Record) (time.Time, bool)
	Ref    func(store.Record) (uint64, bool)
}

// Schema is the fixed description of one entity type's filterable surface.
// Schemas are declared once at startup; unknown query fields are rejected
// against this list instead of being probed by reflection.
type Schema struct {
	Entity store.EntityType
	Fields []FieldDef
}

// Field looks up a field definition by name.
func (s Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// Registry holds the schema of every entity type. The join resolver reads
// foreign keys through it and handlers compile filters against it.
type Registry map[store.EntityType]Schema

// Field resolves a field definition on the named entity type.
func (reg Registry) Field(entity store.EntityType, name string) (FieldDef, bool) {
	sch, ok := reg[entity]
	if !ok {
		return FieldDef{}, false
	}
	return sch.Field(name)
}
