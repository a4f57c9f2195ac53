package catalog

import (
	"fmt"

	"github.com/storefront/catalog/internal/domain/shared"
)

func crossScope(format string, args ...any) *shared.DomainError {
	return shared.NewDomainError(CodeCrossScopeReference, fmt.Sprintf(format, args...))
}

// CheckStoreContainment verifies that a store belongs to the organization and tenant
// partition of scope
func CheckStoreContainment(scope ScopeKey, store *Store) error {
	if store == nil {
		return nil
	}
	if !store.ScopeKey().Equal(scope) {
		return crossScope("store %s belongs to %s, not %s", store.ID, store.ScopeKey(), scope)
	}
	return nil
}

// CheckCategoryContainment verifies that a category's store belongs to the category's
// own organization
func CheckCategoryContainment(category *Category, store *Store) error {
	if store == nil {
		return shared.NewDomainError("NOT_FOUND", "Category store not found")
	}
	if category.StoreID != store.ID {
		return crossScope("category %s points at store %s but was given %s", category.ID, category.StoreID, store.ID)
	}
	return CheckStoreContainment(category.ScopeKey(), store)
}

// CheckItemContainment verifies that an item's optional store and category belong to
// the item's organization and tenant partition, and that a category sits in the
// item's store when both are set
func CheckItemContainment(item *Item, store *Store, category *Category) error {
	scope := item.ScopeKey()
	if item.StoreID != nil {
		if store == nil || store.ID != *item.StoreID {
			return shared.NewDomainError("NOT_FOUND", "Item store not found")
		}
		if err := CheckStoreContainment(scope, store); err != nil {
			return err
		}
	}
	if item.CategoryID != nil {
		if category == nil || category.ID != *item.CategoryID {
			return shared.NewDomainError("NOT_FOUND", "Item category not found")
		}
		if !category.ScopeKey().Equal(scope) {
			return crossScope("category %s belongs to %s, not %s", category.ID, category.ScopeKey(), scope)
		}
		if item.StoreID != nil && category.StoreID != *item.StoreID {
			return crossScope("category %s is in store %s, item %s is in store %s", category.ID, category.StoreID, item.ID, *item.StoreID)
		}
	}
	return nil
}
