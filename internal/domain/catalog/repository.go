package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ScopeReader looks up rows by their compound unique key
type ScopeReader interface {
	// FindByScopeKey returns every live row whose key matches tuple under
	// normalized-null tenant semantics
	FindByScopeKey(ctx context.Context, tuple UniqueTuple) ([]RowRef, error)
}

// HierarchyReader reads the category forest
type HierarchyReader interface {
	FindCategory(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindAncestors returns the ancestor chain of a category, nearest parent first,
	// excluding the category itself
	FindAncestors(ctx context.Context, categoryID uuid.UUID) ([]Category, error)

	// FindSiblings returns the categories of a store sharing parentID (nil = roots),
	// ordered by sort order
	FindSiblings(ctx context.Context, storeID uuid.UUID, parentID *uuid.UUID) ([]Category, error)

	// CountCategories counts the categories of a store
	CountCategories(ctx context.Context, storeID uuid.UUID) (int64, error)
}

// DependencyReader enumerates rows that reference a given row
type DependencyReader interface {
	// Exists reports whether ref points at a persisted row
	Exists(ctx context.Context, ref RowRef) (bool, error)

	// FindDependents returns the rows directly referencing ref
	FindDependents(ctx context.Context, ref RowRef) ([]RowRef, error)
}

// EntityReader loads aggregates by ID
type EntityReader interface {
	FindOrganization(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindStore(ctx context.Context, id uuid.UUID) (*Store, error)
	FindCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	FindItem(ctx context.Context, id uuid.UUID) (*Item, error)
	FindItemAttribute(ctx context.Context, id uuid.UUID) (*ItemAttribute, error)
	FindUser(ctx context.Context, id uuid.UUID) (*User, error)
}

// AttributeReader lists attribute definitions of one scope
type AttributeReader interface {
	FindOrganization(ctx context.Context, id uuid.UUID) (*Organization, error)

	// FindAttributes returns all definitions (active or not) of the scope
	FindAttributes(ctx context.Context, scope ScopeKey) ([]ItemAttribute, error)
}

// Writer applies plans
type Writer interface {
	// ApplyAtomically applies the whole plan in one transaction. It returns an error
	// matching shared.ErrConflict when a concurrent write invalidated the plan.
	ApplyAtomically(ctx context.Context, plan *Plan) error
}

// Repository is the full persistence contract consumed by the catalog core
type Repository interface {
	ScopeReader
	HierarchyReader
	DependencyReader
	EntityReader
	AttributeReader
	Writer
}
