package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
	"github.com/storefront/catalog/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entityTables maps each catalog entity to its table
var entityTables = map[catalog.EntityType]string{
	catalog.EntityOrganization:  "organizations",
	catalog.EntityStore:         "stores",
	catalog.EntityCategory:      "categories",
	catalog.EntityItem:          "items",
	catalog.EntityItemAttribute: "item_attributes",
	catalog.EntityUser:          "users",
}

// keyColumns lists the columns a unique tuple may filter on, per entity
var keyColumns = map[catalog.EntityType]map[string]bool{
	catalog.EntityOrganization:  {"slug": true},
	catalog.EntityCategory:      {"slug": true, "store_id": true},
	catalog.EntityItem:          {"sku": true, "organization_id": true},
	catalog.EntityItemAttribute: {"name": true, "organization_id": true},
	catalog.EntityUser:          {"email": true},
}

// nullableColumns lists the foreign keys a plan may set to NULL, per entity
var nullableColumns = map[catalog.EntityType]map[string]bool{
	catalog.EntityCategory: {"parent_id": true},
	catalog.EntityItem:     {"category_id": true, "store_id": true},
	catalog.EntityUser:     {"organization_id": true},
}

// ownerTables maps a tuple's owner column to the table holding the owner row
var ownerTables = map[string]string{
	"organization_id": "organizations",
	"store_id":        "stores",
}

// CatalogStore implements catalog.Repository using GORM
type CatalogStore struct {
	db *gorm.DB
}

var _ catalog.Repository = (*CatalogStore)(nil)

// NewCatalogStore creates a new CatalogStore
func NewCatalogStore(db *gorm.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// WithTx returns a store bound to the given transaction
func (s *CatalogStore) WithTx(tx *gorm.DB) *CatalogStore {
	return &CatalogStore{db: tx}
}

// AutoMigrate creates the catalog tables from the models. PostgreSQL deployments use
// the SQL migrations instead.
func (s *CatalogStore) AutoMigrate() error {
	return s.db.AutoMigrate(models.AllModels()...)
}

func tableFor(entity catalog.EntityType) (string, error) {
	table, ok := entityTables[entity]
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", entity)
	}
	return table, nil
}

// whereTenant restricts a query to one normalized tenant partition
func whereTenant(query *gorm.DB, partition string) *gorm.DB {
	if partition == catalog.NoTenantPartition {
		return query.Where("tenant_id IS NULL")
	}
	return query.Where("tenant_id = ?", partition)
}

// FindByScopeKey returns every row whose key matches tuple. Rows without a tenant
// share one partition, so a NULL tenant matches another NULL tenant.
func (s *CatalogStore) FindByScopeKey(ctx context.Context, tuple catalog.UniqueTuple) ([]catalog.RowRef, error) {
	table, err := tableFor(tuple.Entity)
	if err != nil {
		return nil, err
	}
	allowed := keyColumns[tuple.Entity]

	query := s.db.WithContext(ctx).Table(table)
	for _, d := range tuple.Discriminators {
		if !allowed[d.Column] {
			return nil, fmt.Errorf("column %q is not part of a %s key", d.Column, tuple.Entity)
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: d.Column}, Value: strings.TrimSpace(d.Value)})
	}
	if tuple.OwnerColumn != "" {
		if !allowed[tuple.OwnerColumn] {
			return nil, fmt.Errorf("column %q is not part of a %s key", tuple.OwnerColumn, tuple.Entity)
		}
		query = query.Where(clause.Eq{Column: clause.Column{Name: tuple.OwnerColumn}, Value: tuple.OwnerID})
	}
	if tuple.TenantScoped {
		query = whereTenant(query, tuple.Partition())
	}

	var ids []uuid.UUID
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("find %s by key: %w", tuple.Entity, err)
	}
	refs := make([]catalog.RowRef, len(ids))
	for i, id := range ids {
		refs[i] = catalog.RowRef{Entity: tuple.Entity, ID: id}
	}
	return refs, nil
}

// FindOrganization finds an organization by its ID
func (s *CatalogStore) FindOrganization(ctx context.Context, id uuid.UUID) (*catalog.Organization, error) {
	var model models.OrganizationModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindStore finds a store by its ID
func (s *CatalogStore) FindStore(ctx context.Context, id uuid.UUID) (*catalog.Store, error) {
	var model models.StoreModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindCategory finds a category by its ID
func (s *CatalogStore) FindCategory(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	var model models.CategoryModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindItem finds an item by its ID
func (s *CatalogStore) FindItem(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindItemAttribute finds an attribute definition by its ID
func (s *CatalogStore) FindItemAttribute(ctx context.Context, id uuid.UUID) (*catalog.ItemAttribute, error) {
	var model models.ItemAttributeModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain()
}

// FindUser finds a user by its ID
func (s *CatalogStore) FindUser(ctx context.Context, id uuid.UUID) (*catalog.User, error) {
	var model models.UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAncestors walks parent links upward from categoryID, nearest parent first.
// The walk stops after one more step than the store has categories, so a corrupted
// cycle yields an over-long chain instead of looping.
func (s *CatalogStore) FindAncestors(ctx context.Context, categoryID uuid.UUID) ([]catalog.Category, error) {
	current, err := s.FindCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	count, err := s.CountCategories(ctx, current.StoreID)
	if err != nil {
		return nil, err
	}

	var chain []catalog.Category
	for next := current.ParentID; next != nil && int64(len(chain)) <= count; {
		parent, err := s.FindCategory(ctx, *next)
		if errors.Is(err, shared.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, *parent)
		next = parent.ParentID
	}
	return chain, nil
}

// FindSiblings returns the categories of a store under parentID (roots when nil)
func (s *CatalogStore) FindSiblings(ctx context.Context, storeID uuid.UUID, parentID *uuid.UUID) ([]catalog.Category, error) {
	query := s.db.WithContext(ctx).Where("store_id = ?", storeID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var rows []models.CategoryModel
	if err := query.Order("sort_order ASC, name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return categoriesToDomain(rows), nil
}

// ListCategories returns every category of a store in sibling order
func (s *CatalogStore) ListCategories(ctx context.Context, storeID uuid.UUID) ([]catalog.Category, error) {
	var rows []models.CategoryModel
	if err := s.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, name ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return categoriesToDomain(rows), nil
}

// CountCategories counts the categories of a store
func (s *CatalogStore) CountCategories(ctx context.Context, storeID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.CategoryModel{}).
		Where("store_id = ?", storeID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func categoriesToDomain(rows []models.CategoryModel) []catalog.Category {
	out := make([]catalog.Category, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// FindAttributes returns every attribute definition of a scope, active or not
func (s *CatalogStore) FindAttributes(ctx context.Context, scope catalog.ScopeKey) ([]catalog.ItemAttribute, error) {
	query := s.db.WithContext(ctx).Where("organization_id = ?", scope.OrganizationID)
	query = whereTenant(query, scope.Partition())

	var rows []models.ItemAttributeModel
	if err := query.Order("sort_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.ItemAttribute, 0, len(rows))
	for i := range rows {
		attr, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *attr)
	}
	return out, nil
}

// ListItems returns a page of the items of a scope
func (s *CatalogStore) ListItems(ctx context.Context, scope catalog.ScopeKey, filter shared.Filter) (shared.Paginated[catalog.Item], error) {
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.ItemModel{}).Where("organization_id = ?", scope.OrganizationID)
		return applyItemFilter(whereTenant(query, scope.Partition()), filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return shared.Paginated[catalog.Item]{}, err
	}

	query := scoped().Order(OrderBy(filter.OrderBy, filter.OrderDir, ItemSortFields, "created_at"))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var rows []models.ItemModel
	if err := query.Find(&rows).Error; err != nil {
		return shared.Paginated[catalog.Item]{}, err
	}
	items := make([]catalog.Item, 0, len(rows))
	for i := range rows {
		item, err := rows[i].ToDomain()
		if err != nil {
			return shared.Paginated[catalog.Item]{}, err
		}
		items = append(items, *item)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// applyItemFilter applies search and field filters without pagination
func applyItemFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "status", "priority", "category_type", "store_id":
			query = query.Where(clause.Eq{Column: clause.Column{Name: key}, Value: value})
		case "category_id":
			if value == nil {
				query = query.Where("category_id IS NULL")
			} else {
				query = query.Where("category_id = ?", value)
			}
		}
	}
	return query
}

// Exists reports whether ref points at a persisted row
func (s *CatalogStore) Exists(ctx context.Context, ref catalog.RowRef) (bool, error) {
	table, err := tableFor(ref.Entity)
	if err != nil {
		return false, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Table(table).Where("id = ?", ref.ID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// dependentQuery is one child table and the column pointing at the parent
type dependentQuery struct {
	entity catalog.EntityType
	column string
}

var dependentQueries = map[catalog.EntityType][]dependentQuery{
	catalog.EntityOrganization: {
		{catalog.EntityStore, "organization_id"},
		{catalog.EntityCategory, "organization_id"},
		{catalog.EntityItem, "organization_id"},
		{catalog.EntityItemAttribute, "organization_id"},
		{catalog.EntityUser, "organization_id"},
	},
	catalog.EntityStore: {
		{catalog.EntityCategory, "store_id"},
		{catalog.EntityItem, "store_id"},
	},
	catalog.EntityCategory: {
		{catalog.EntityCategory, "parent_id"},
		{catalog.EntityItem, "category_id"},
	},
}

// FindDependents returns the rows directly referencing ref
func (s *CatalogStore) FindDependents(ctx context.Context, ref catalog.RowRef) ([]catalog.RowRef, error) {
	var out []catalog.RowRef
	for _, dq := range dependentQueries[ref.Entity] {
		var ids []uuid.UUID
		if err := s.db.WithContext(ctx).
			Table(entityTables[dq.entity]).
			Where(clause.Eq{Column: clause.Column{Name: dq.column}, Value: ref.ID}).
			Order("id").
			Pluck("id", &ids).Error; err != nil {
			return nil, fmt.Errorf("find dependents of %s: %w", ref, err)
		}
		for _, id := range ids {
			out = append(out, catalog.RowRef{Entity: dq.entity, ID: id})
		}
	}
	return out, nil
}

// ApplyAtomically applies the whole plan in one transaction: upserts (after
// re-checking their unique tuples), then deactivations, nullifications and deletes.
// Any write invalidated by a concurrent transaction fails with shared.ErrConflict and
// nothing is committed.
func (s *CatalogStore) ApplyAtomically(ctx context.Context, plan *catalog.Plan) error {
	if plan == nil || plan.IsEmpty() {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txStore := s.WithTx(tx)
		for _, up := range plan.Upserts {
			if err := txStore.applyUpsert(ctx, up); err != nil {
				return err
			}
		}
		if err := txStore.verifyHierarchy(ctx, plan.Upserts); err != nil {
			return err
		}
		for _, d := range plan.Deactivations {
			if err := txStore.applyDeactivation(ctx, d); err != nil {
				return err
			}
		}
		for _, n := range plan.Nullifications {
			if err := txStore.applyNullification(ctx, n); err != nil {
				return err
			}
		}
		for _, ref := range plan.Deletes {
			if err := txStore.applyDelete(ctx, ref); err != nil {
				return err
			}
		}
		return nil
	})
	return translateError(err)
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrConflict, fmt.Sprintf(format, args...))
}

func (s *CatalogStore) applyUpsert(ctx context.Context, up catalog.Upsert) error {
	for _, guard := range up.Guards {
		if err := s.lockOwner(ctx, guard); err != nil {
			return err
		}
		refs, err := s.FindByScopeKey(ctx, guard)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if ref.ID != up.Ref.ID {
				return conflictf("%s was taken by %s", guard.Key(), ref)
			}
		}
	}

	model, err := toModel(up.Entity)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if up.Create {
		return db.Create(model).Error
	}

	result := db.Model(model).
		Where("version = ?", up.ExpectedVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflictf("%s was modified or removed since version %d", up.Ref, up.ExpectedVersion)
	}
	return nil
}

// lockOwner takes a row lock on the organization or store bounding a tuple, which
// serializes concurrent writers of the same key. SQLite ignores the locking clause and
// relies on its single writer.
func (s *CatalogStore) lockOwner(ctx context.Context, tuple catalog.UniqueTuple) error {
	table, ok := ownerTables[tuple.OwnerColumn]
	if !ok {
		return nil
	}
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).
		Table(table).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", tuple.OwnerID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return conflictf("%s owner %s no longer exists", tuple.Key(), tuple.OwnerID)
	}
	return nil
}

// verifyHierarchy re-walks the ancestors of every re-parented category inside the
// transaction, after all upserts are written.
func (s *CatalogStore) verifyHierarchy(ctx context.Context, upserts []catalog.Upsert) error {
	for _, up := range upserts {
		category, ok := up.Entity.(*catalog.Category)
		if !ok || category.ParentID == nil {
			continue
		}
		var locked []uuid.UUID
		if err := s.db.WithContext(ctx).
			Table("stores").
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", category.StoreID).
			Pluck("id", &locked).Error; err != nil {
			return err
		}
		ancestors, err := s.FindAncestors(ctx, category.ID)
		if err != nil {
			return err
		}
		if len(ancestors) == 0 {
			return conflictf("parent %s of %s no longer exists", *category.ParentID, category.Ref())
		}
		count, err := s.CountCategories(ctx, category.StoreID)
		if err != nil {
			return err
		}
		for i, a := range ancestors {
			if a.ID == category.ID || int64(i) >= count {
				return conflictf("moving %s under %s would create a cycle", category.Ref(), *category.ParentID)
			}
			if a.StoreID != category.StoreID {
				return conflictf("parent %s of %s moved to another store", a.ID, category.Ref())
			}
		}
	}
	return nil
}

func toModel(entity any) (any, error) {
	switch e := entity.(type) {
	case *catalog.Organization:
		return models.OrganizationModelFromDomain(e)
	case *catalog.Store:
		return models.StoreModelFromDomain(e)
	case *catalog.Category:
		return models.CategoryModelFromDomain(e), nil
	case *catalog.Item:
		return models.ItemModelFromDomain(e)
	case *catalog.ItemAttribute:
		return models.ItemAttributeModelFromDomain(e)
	case *catalog.User:
		return models.UserModelFromDomain(e), nil
	default:
		return nil, fmt.Errorf("unsupported entity %T", entity)
	}
}

func (s *CatalogStore) applyDeactivation(ctx context.Context, d catalog.Deactivation) error {
	table, err := tableFor(d.Target.Entity)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	query := s.db.WithContext(ctx).Table(table).Where("id = ?", d.Target.ID)
	switch d.Target.Entity {
	case catalog.EntityItem:
		updates["status"] = string(catalog.ItemStatusArchived)
		query = query.Where("status IN ?", []string{string(catalog.ItemStatusDraft), string(catalog.ItemStatusActive)})
	case catalog.EntityOrganization, catalog.EntityStore, catalog.EntityCategory, catalog.EntityItemAttribute:
		updates["is_active"] = false
		query = query.Where("is_active = ?", true)
	default:
		return fmt.Errorf("%s cannot be deactivated", d.Target.Entity)
	}
	return query.Updates(updates).Error
}

func (s *CatalogStore) applyNullification(ctx context.Context, n catalog.Nullification) error {
	if !nullableColumns[n.Target.Entity][n.Column] {
		return fmt.Errorf("column %q of %s cannot be nulled", n.Column, n.Target.Entity)
	}
	result := s.db.WithContext(ctx).
		Table(entityTables[n.Target.Entity]).
		Where("id = ?", n.Target.ID).
		Updates(map[string]any{
			n.Column:     nil,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflictf("%s disappeared before %s could be detached", n.Target, n.Column)
	}
	return nil
}

func (s *CatalogStore) applyDelete(ctx context.Context, ref catalog.RowRef) error {
	table, err := tableFor(ref.Entity)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Exec("DELETE FROM "+table+" WHERE id = ?", ref.ID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflictf("%s was already removed", ref)
	}
	return nil
}
