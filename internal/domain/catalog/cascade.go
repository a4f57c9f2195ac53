package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/catalog/internal/domain/shared"
)

// CascadeAction says what happens to a dependent row when its owner is deleted
type CascadeAction string

const (
	// ActionCascade deletes the dependent and everything it owns
	ActionCascade CascadeAction = "cascade"
	// ActionDetach nulls the dependent's reference to the deleted row
	ActionDetach CascadeAction = "detach"
	// ActionReject refuses the delete while the dependent exists
	ActionReject CascadeAction = "reject"
	// ActionIgnore leaves the dependent untouched
	ActionIgnore CascadeAction = "ignore"
)

// Relationship is an owner → dependent entity pair
type Relationship struct {
	Parent EntityType
	Child  EntityType
}

// Policy is the action for one relationship plus the column nulled on detach
type Policy struct {
	Action CascadeAction
	Column string
}

// PolicyTable maps every known relationship to its delete policy
type PolicyTable map[Relationship]Policy

// DefaultPolicyTable is the catalog's delete policy. Attribute definitions have no
// row dependents: stored item payloads are grandfathered when a definition goes away.
func DefaultPolicyTable() PolicyTable {
	return PolicyTable{
		{EntityOrganization, EntityStore}:         {Action: ActionCascade},
		{EntityOrganization, EntityCategory}:      {Action: ActionCascade},
		{EntityOrganization, EntityItem}:          {Action: ActionCascade},
		{EntityOrganization, EntityItemAttribute}: {Action: ActionCascade},
		{EntityOrganization, EntityUser}:          {Action: ActionDetach, Column: "organization_id"},
		{EntityStore, EntityCategory}:             {Action: ActionCascade},
		{EntityStore, EntityItem}:                 {Action: ActionCascade},
		{EntityCategory, EntityCategory}:          {Action: ActionDetach, Column: "parent_id"},
		{EntityCategory, EntityItem}:              {Action: ActionDetach, Column: "category_id"},
	}
}

// Lookup returns the policy for a relationship
func (t PolicyTable) Lookup(parent, child EntityType) (Policy, bool) {
	p, ok := t[Relationship{Parent: parent, Child: child}]
	return p, ok
}

// deactivationCascade lists which dependents follow their owner into the inactive
// state. Deactivation never detaches.
var deactivationCascade = map[EntityType][]EntityType{
	EntityOrganization: {EntityStore, EntityCategory, EntityItem},
	EntityStore:        {EntityCategory, EntityItem},
}

// LifecycleCascade plans the dependent mutations of deletes and deactivations
type LifecycleCascade struct {
	reader DependencyReader
	policy PolicyTable
}

// CascadeOption configures a LifecycleCascade
type CascadeOption func(*LifecycleCascade)

// WithPolicyTable replaces the default policy table
func WithPolicyTable(table PolicyTable) CascadeOption {
	return func(c *LifecycleCascade) {
		c.policy = table
	}
}

// NewLifecycleCascade creates a new LifecycleCascade
func NewLifecycleCascade(reader DependencyReader, opts ...CascadeOption) *LifecycleCascade {
	c := &LifecycleCascade{
		reader: reader,
		policy: DefaultPolicyTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the table in use
func (c *LifecycleCascade) Policy() PolicyTable {
	return c.policy
}

// PlanDelete returns the complete plan for deleting entity/id: cascaded deletes
// (leaf-first, ending with the root) and set-null detaches. If any dependent cannot
// be resolved the whole plan is refused with CASCADE_BLOCKED.
func (c *LifecycleCascade) PlanDelete(ctx context.Context, entity EntityType, id uuid.UUID) (*Plan, error) {
	root := RowRef{Entity: entity, ID: id}
	if err := c.mustExist(ctx, root); err != nil {
		return nil, err
	}

	plan := NewPlan(root)
	visited := map[RowRef]struct{}{root: {}}
	detached := map[Nullification]struct{}{}
	queue := []RowRef{root}

	for len(queue) > 0 {
		owner := queue[0]
		queue = queue[1:]
		plan.Deletes = append(plan.Deletes, owner)

		dependents, err := c.reader.FindDependents(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, dep := range dependents {
			policy, ok := c.policy.Lookup(owner.Entity, dep.Entity)
			if !ok {
				return nil, NewCascadeBlockedError(root, dep, "has no delete policy for "+string(owner.Entity))
			}
			switch policy.Action {
			case ActionCascade:
				if _, seen := visited[dep]; seen {
					continue
				}
				visited[dep] = struct{}{}
				queue = append(queue, dep)
			case ActionDetach:
				n := Nullification{Target: dep, Column: policy.Column}
				if _, seen := detached[n]; seen {
					continue
				}
				detached[n] = struct{}{}
				plan.Nullifications = append(plan.Nullifications, n)
			case ActionIgnore:
			default:
				return nil, NewCascadeBlockedError(root, dep, "is protected by "+string(owner.Entity))
			}
		}
	}

	plan.normalize()
	return plan, nil
}

// PlanDeactivate returns the plan for deactivating entity/id. Organizations and stores
// take their stores, categories and items with them; items are archived.
func (c *LifecycleCascade) PlanDeactivate(ctx context.Context, entity EntityType, id uuid.UUID) (*Plan, error) {
	root := RowRef{Entity: entity, ID: id}
	if err := c.mustExist(ctx, root); err != nil {
		return nil, err
	}

	plan := NewPlan(root)
	plan.Deactivations = append(plan.Deactivations, Deactivation{Target: root})
	followers := deactivationCascade[entity]
	if len(followers) == 0 {
		return plan, nil
	}

	visited := map[RowRef]struct{}{root: {}}
	queue := []RowRef{root}
	for len(queue) > 0 {
		owner := queue[0]
		queue = queue[1:]
		dependents, err := c.reader.FindDependents(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, dep := range dependents {
			if !containsEntity(deactivationCascade[owner.Entity], dep.Entity) {
				continue
			}
			if _, seen := visited[dep]; seen {
				continue
			}
			visited[dep] = struct{}{}
			plan.Deactivations = append(plan.Deactivations, Deactivation{Target: dep})
			queue = append(queue, dep)
		}
	}
	return plan, nil
}

func (c *LifecycleCascade) mustExist(ctx context.Context, ref RowRef) error {
	ok, err := c.reader.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NewDomainError("NOT_FOUND", string(ref.Entity)+" not found")
	}
	return nil
}

func containsEntity(list []EntityType, e EntityType) bool {
	for _, x := range list {
		if x == e {
			return true
		}
	}
	return false
}

// IsCascadeBlocked reports whether err is a CASCADE_BLOCKED error
func IsCascadeBlocked(err error) bool {
	return errors.Is(err, ErrCascadeBlocked)
}
