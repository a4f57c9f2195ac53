// Package attribute interprets tenant-defined attribute definitions as a small
// schema language and validates item payloads against them.
package attribute

import (
	"context"
	"sort"

	"github.com/storefront/catalog/internal/domain/catalog"
	"github.com/storefront/catalog/internal/domain/shared"
)

// Schema is the resolved, active attribute set of one scope
type Schema struct {
	Scope            catalog.ScopeKey
	Attributes       []catalog.ItemAttribute
	AllowUnknownKeys bool
}

// ForTarget returns the definitions governing one item JSON field, in resolution order
func (s *Schema) ForTarget(attributeType catalog.AttributeType) []catalog.ItemAttribute {
	var out []catalog.ItemAttribute
	for _, attr := range s.Attributes {
		if attr.AttributeType == attributeType {
			out = append(out, attr)
		}
	}
	return out
}

// Lookup finds a definition by name
func (s *Schema) Lookup(name string) (*catalog.ItemAttribute, bool) {
	for i := range s.Attributes {
		if s.Attributes[i].Name == name {
			return &s.Attributes[i], true
		}
	}
	return nil, false
}

// Registry holds the attribute definitions of each organization and tenant
type Registry struct {
	reader   catalog.AttributeReader
	enforcer *catalog.UniquenessEnforcer
	// defaultAllowUnknown applies to organizations whose settings omit the flag
	defaultAllowUnknown bool
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithDefaultAllowUnknownKeys sets the policy used when an organization's settings
// do not carry allowUnknownKeys
func WithDefaultAllowUnknownKeys(allow bool) RegistryOption {
	return func(r *Registry) {
		r.defaultAllowUnknown = allow
	}
}

// NewRegistry creates a new Registry
func NewRegistry(reader catalog.AttributeReader, enforcer *catalog.UniquenessEnforcer, opts ...RegistryOption) *Registry {
	r := &Registry{
		reader:   reader,
		enforcer: enforcer,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define validates a new or changed definition: name unique within its
// organization and tenant, a supported data type, well-formed rules, and a default
// value (if any) that satisfies the definition itself.
func (r *Registry) Define(ctx context.Context, attr *catalog.ItemAttribute) error {
	if err := CheckDefinition(attr); err != nil {
		return err
	}
	return r.enforcer.Check(ctx, attr.UniqueTuple(), attr.ID)
}

// Resolve returns the active definitions of a scope ordered by sort order, together
// with the organization's allowUnknownKeys policy
func (r *Registry) Resolve(ctx context.Context, scope catalog.ScopeKey) (*Schema, error) {
	org, err := r.reader.FindOrganization(ctx, scope.OrganizationID)
	if err != nil {
		return nil, err
	}
	all, err := r.reader.FindAttributes(ctx, scope)
	if err != nil {
		return nil, err
	}

	active := make([]catalog.ItemAttribute, 0, len(all))
	for _, attr := range all {
		if !attr.IsActive || !attr.ScopeKey().Equal(scope) {
			continue
		}
		active = append(active, attr)
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].SortOrder != active[j].SortOrder {
			return active[i].SortOrder < active[j].SortOrder
		}
		return active[i].Name < active[j].Name
	})

	return &Schema{
		Scope:            scope,
		Attributes:       active,
		AllowUnknownKeys: org.AllowUnknownKeys(r.defaultAllowUnknown),
	}, nil
}

// CheckDefinition validates a definition without touching storage
func CheckDefinition(attr *catalog.ItemAttribute) error {
	if !attr.DataType.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "attribute data type \""+string(attr.DataType)+"\" is not supported")
	}
	if !attr.AttributeType.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "attribute type \""+string(attr.AttributeType)+"\" is not supported")
	}
	if reason := CheckRules(attr.DataType, attr.ValidationRules); reason != "" {
		return shared.NewDomainError("INVALID_RULES", attr.Name+": "+reason)
	}
	if attr.HasDefault() {
		if reason := CheckValue(attr, attr.DefaultValue); reason != "" {
			return shared.NewDomainError("INVALID_DEFAULT", attr.Name+": default is invalid: "+reason)
		}
	}
	return nil
}
