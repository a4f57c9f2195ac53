package catalog

import (
	"sort"
)

// Upsert is one entity write inside a plan. Guards are the unique tuples the writer
// re-checks inside the commit transaction, immediately before the write.
type Upsert struct {
	Ref    RowRef
	Entity any
	Create bool
	// ExpectedVersion is the version the row had when it was read; updates of a row
	// whose stored version differs fail with shared.ErrConflict.
	ExpectedVersion int
	Guards          []UniqueTuple
}

// Nullification sets a foreign-key column to NULL on one row
type Nullification struct {
	Target RowRef
	Column string
}

// Deactivation switches one row to its inactive state (isActive=false, or ARCHIVED
// for items)
type Deactivation struct {
	Target RowRef
}

// Plan is an ordered set of mutations that must be applied atomically: upserts,
// then deactivations, then nullifications, then deletes.
type Plan struct {
	Root           RowRef
	Upserts        []Upsert
	Deactivations  []Deactivation
	Nullifications []Nullification
	Deletes        []RowRef
}

// NewPlan creates an empty plan rooted at ref
func NewPlan(root RowRef) *Plan {
	return &Plan{Root: root}
}

// AddCreate appends an insert of a new entity
func (p *Plan) AddCreate(ref RowRef, entity any, guards ...UniqueTuple) {
	p.Upserts = append(p.Upserts, Upsert{Ref: ref, Entity: entity, Create: true, Guards: guards})
}

// AddUpdate appends an update of an entity read at expectedVersion
func (p *Plan) AddUpdate(ref RowRef, entity any, expectedVersion int, guards ...UniqueTuple) {
	p.Upserts = append(p.Upserts, Upsert{Ref: ref, Entity: entity, ExpectedVersion: expectedVersion, Guards: guards})
}

// IsEmpty reports whether the plan has nothing to apply
func (p *Plan) IsEmpty() bool {
	return len(p.Upserts) == 0 && len(p.Deactivations) == 0 && len(p.Nullifications) == 0 && len(p.Deletes) == 0
}

// DeletesOf returns the IDs of deleted rows of one entity type, in plan order
func (p *Plan) DeletesOf(entity EntityType) []RowRef {
	var out []RowRef
	for _, ref := range p.Deletes {
		if ref.Entity == entity {
			out = append(out, ref)
		}
	}
	return out
}

// deleteRank orders deletes so dependents go before the rows that own them
var deleteRank = map[EntityType]int{
	EntityItem:          0,
	EntityCategory:      1,
	EntityItemAttribute: 2,
	EntityUser:          3,
	EntityStore:         4,
	EntityOrganization:  5,
}

// normalize drops nullifications and deactivations of rows that are deleted anyway
// and orders deletes leaf-first.
func (p *Plan) normalize() {
	deleted := make(map[RowRef]struct{}, len(p.Deletes))
	for _, ref := range p.Deletes {
		deleted[ref] = struct{}{}
	}

	nulls := p.Nullifications[:0]
	for _, n := range p.Nullifications {
		if _, gone := deleted[n.Target]; !gone {
			nulls = append(nulls, n)
		}
	}
	p.Nullifications = nulls

	deacts := p.Deactivations[:0]
	for _, d := range p.Deactivations {
		if _, gone := deleted[d.Target]; !gone {
			deacts = append(deacts, d)
		}
	}
	p.Deactivations = deacts

	sort.SliceStable(p.Deletes, func(i, j int) bool {
		return deleteRank[p.Deletes[i].Entity] < deleteRank[p.Deletes[j].Entity]
	})
}
