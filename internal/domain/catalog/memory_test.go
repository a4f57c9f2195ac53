package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// memoryStore is an in-memory view of catalog rows used by the domain tests
type memoryStore struct {
	organizations map[uuid.UUID]*Organization
	stores        map[uuid.UUID]*Store
	categories    map[uuid.UUID]*Category
	items         map[uuid.UUID]*Item
	attributes    map[uuid.UUID]*ItemAttribute
	users         map[uuid.UUID]*User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		organizations: map[uuid.UUID]*Organization{},
		stores:        map[uuid.UUID]*Store{},
		categories:    map[uuid.UUID]*Category{},
		items:         map[uuid.UUID]*Item{},
		attributes:    map[uuid.UUID]*ItemAttribute{},
		users:         map[uuid.UUID]*User{},
	}
}

func (m *memoryStore) rows() []ScopedRow {
	var rows []ScopedRow
	for _, o := range m.organizations {
		rows = append(rows, ScopedRow{ID: o.ID, Tuple: o.UniqueTuple()})
	}
	for _, c := range m.categories {
		rows = append(rows, ScopedRow{ID: c.ID, Tuple: c.UniqueTuple()})
	}
	for _, i := range m.items {
		rows = append(rows, ScopedRow{ID: i.ID, Tuple: i.UniqueTuple()})
	}
	for _, a := range m.attributes {
		rows = append(rows, ScopedRow{ID: a.ID, Tuple: a.UniqueTuple()})
	}
	for _, u := range m.users {
		rows = append(rows, ScopedRow{ID: u.ID, Tuple: u.UniqueTuple()})
	}
	return rows
}

func (m *memoryStore) FindByScopeKey(_ context.Context, tuple UniqueTuple) ([]RowRef, error) {
	var refs []RowRef
	for _, row := range m.rows() {
		if row.Tuple.Matches(tuple) {
			refs = append(refs, RowRef{Entity: tuple.Entity, ID: row.ID})
		}
	}
	return refs, nil
}

func (m *memoryStore) FindCategory(_ context.Context, id uuid.UUID) (*Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memoryStore) FindAncestors(_ context.Context, categoryID uuid.UUID) ([]Category, error) {
	var out []Category
	current, ok := m.categories[categoryID]
	for ok && current.ParentID != nil && len(out) <= len(m.categories) {
		parent, found := m.categories[*current.ParentID]
		if !found {
			break
		}
		out = append(out, *parent)
		current, ok = parent, true
	}
	return out, nil
}

func (m *memoryStore) FindSiblings(_ context.Context, storeID uuid.UUID, parentID *uuid.UUID) ([]Category, error) {
	var out []Category
	for _, c := range m.categories {
		if c.StoreID == storeID && sameParent(c.ParentID, parentID) {
			out = append(out, *c)
		}
	}
	sortCategories(out)
	return out, nil
}

func (m *memoryStore) CountCategories(_ context.Context, storeID uuid.UUID) (int64, error) {
	var n int64
	for _, c := range m.categories {
		if c.StoreID == storeID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) Exists(_ context.Context, ref RowRef) (bool, error) {
	var ok bool
	switch ref.Entity {
	case EntityOrganization:
		_, ok = m.organizations[ref.ID]
	case EntityStore:
		_, ok = m.stores[ref.ID]
	case EntityCategory:
		_, ok = m.categories[ref.ID]
	case EntityItem:
		_, ok = m.items[ref.ID]
	case EntityItemAttribute:
		_, ok = m.attributes[ref.ID]
	case EntityUser:
		_, ok = m.users[ref.ID]
	}
	return ok, nil
}

func (m *memoryStore) FindDependents(_ context.Context, ref RowRef) ([]RowRef, error) {
	var out []RowRef
	switch ref.Entity {
	case EntityOrganization:
		for _, s := range m.stores {
			if s.OrganizationID == ref.ID {
				out = append(out, s.Ref())
			}
		}
		for _, c := range m.categories {
			if c.OrganizationID == ref.ID {
				out = append(out, c.Ref())
			}
		}
		for _, i := range m.items {
			if i.OrganizationID == ref.ID {
				out = append(out, i.Ref())
			}
		}
		for _, a := range m.attributes {
			if a.OrganizationID == ref.ID {
				out = append(out, a.Ref())
			}
		}
		for _, u := range m.users {
			if u.OrganizationID != nil && *u.OrganizationID == ref.ID {
				out = append(out, u.Ref())
			}
		}
	case EntityStore:
		for _, c := range m.categories {
			if c.StoreID == ref.ID {
				out = append(out, c.Ref())
			}
		}
		for _, i := range m.items {
			if i.StoreID != nil && *i.StoreID == ref.ID {
				out = append(out, i.Ref())
			}
		}
	case EntityCategory:
		for _, c := range m.categories {
			if c.ParentID != nil && *c.ParentID == ref.ID {
				out = append(out, c.Ref())
			}
		}
		for _, i := range m.items {
			if i.CategoryID != nil && *i.CategoryID == ref.ID {
				out = append(out, i.Ref())
			}
		}
	}
	return out, nil
}

// apply executes a plan against the maps, the way the persistence writer does
func (m *memoryStore) apply(plan *Plan) {
	for _, n := range plan.Nullifications {
		switch n.Target.Entity {
		case EntityCategory:
			m.categories[n.Target.ID].ParentID = nil
		case EntityItem:
			m.items[n.Target.ID].CategoryID = nil
		case EntityUser:
			m.users[n.Target.ID].OrganizationID = nil
		}
	}
	for _, ref := range plan.Deletes {
		switch ref.Entity {
		case EntityOrganization:
			delete(m.organizations, ref.ID)
		case EntityStore:
			delete(m.stores, ref.ID)
		case EntityCategory:
			delete(m.categories, ref.ID)
		case EntityItem:
			delete(m.items, ref.ID)
		case EntityItemAttribute:
			delete(m.attributes, ref.ID)
		case EntityUser:
			delete(m.users, ref.ID)
		}
	}
}

type fixture struct {
	store *memoryStore
	org   *Organization
	shop  *Store
}

func newFixture(tenantID *string) *fixture {
	m := newMemoryStore()
	org, err := NewOrganization("Acme Retail", "", tenantID)
	if err != nil {
		panic(err)
	}
	m.organizations[org.ID] = org
	shop, err := NewStore(org.ID, tenantID, "Main Street", Payload{"city": "Springfield"})
	if err != nil {
		panic(err)
	}
	m.stores[shop.ID] = shop
	return &fixture{store: m, org: org, shop: shop}
}

func (f *fixture) addCategory(name string, parent *Category) *Category {
	c, err := NewCategory(f.org.ID, f.shop.ID, f.org.TenantID, name, "")
	if err != nil {
		panic(err)
	}
	if parent != nil {
		pid := parent.ID
		c.ParentID = &pid
	}
	f.store.categories[c.ID] = c
	return c
}

func (f *fixture) addItem(sku string, category *Category) *Item {
	item, err := NewItem(f.org.ID, f.org.TenantID, sku, "Item "+sku, "GENERAL")
	if err != nil {
		panic(err)
	}
	storeID := f.shop.ID
	var categoryID *uuid.UUID
	if category != nil {
		id := category.ID
		categoryID = &id
	}
	item.Place(&storeID, categoryID)
	f.store.items[item.ID] = item
	return item
}

func strPtr(s string) *string {
	return &s
}
