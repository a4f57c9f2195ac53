package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/catalog/internal/domain/shared"
)

// Error codes for catalog integrity violations
const (
	CodeDuplicateKey              = "DUPLICATE_KEY"
	CodeCyclicHierarchy           = "CYCLIC_HIERARCHY"
	CodeCrossScopeReference       = "CROSS_SCOPE_REFERENCE"
	CodeMissingRequiredAttribute  = "MISSING_REQUIRED_ATTRIBUTE"
	CodeAttributeValidationFailed = "ATTRIBUTE_VALIDATION_FAILED"
	CodeUnknownAttribute          = "UNKNOWN_ATTRIBUTE"
	CodeInvalidField              = "INVALID_FIELD"
	CodeCascadeBlocked            = "CASCADE_BLOCKED"
	CodeInvalidSiblingOrder       = "INVALID_SIBLING_ORDER"
	CodeHierarchyTooDeep          = "HIERARCHY_TOO_DEEP"
)

// Sentinel errors, matched by code through errors.Is
var (
	ErrDuplicateKey              = shared.NewDomainError(CodeDuplicateKey, "Duplicate key")
	ErrCyclicHierarchy           = shared.NewDomainError(CodeCyclicHierarchy, "Category hierarchy would contain a cycle")
	ErrCrossScopeReference       = shared.NewDomainError(CodeCrossScopeReference, "Reference crosses organization or store scope")
	ErrMissingRequiredAttribute  = shared.NewDomainError(CodeMissingRequiredAttribute, "Required attribute is missing")
	ErrAttributeValidationFailed = shared.NewDomainError(CodeAttributeValidationFailed, "Attribute validation failed")
	ErrUnknownAttribute          = shared.NewDomainError(CodeUnknownAttribute, "Attribute is not defined")
	ErrInvalidField              = shared.NewDomainError(CodeInvalidField, "Field value is invalid")
	ErrCascadeBlocked            = shared.NewDomainError(CodeCascadeBlocked, "Delete cannot be planned safely")
	ErrInvalidSiblingOrder       = shared.NewDomainError(CodeInvalidSiblingOrder, "Ordered IDs do not match the sibling set")
	ErrHierarchyTooDeep          = shared.NewDomainError(CodeHierarchyTooDeep, "Category hierarchy exceeds the configured depth")
)

// NewDuplicateKeyError reports a uniqueness violation for the given tuple
func NewDuplicateKeyError(tuple UniqueTuple) *shared.DomainError {
	return shared.NewDomainError(CodeDuplicateKey,
		fmt.Sprintf("%s already exists: %s", tuple.Entity, tuple.Key()))
}

// NewCascadeBlockedError reports a dependent the cascade policy cannot resolve
func NewCascadeBlockedError(parent, dependent RowRef, reason string) *shared.DomainError {
	return shared.NewDomainError(CodeCascadeBlocked,
		fmt.Sprintf("cannot delete %s: dependent %s %s", parent, dependent, reason))
}

// ValidationIssue is one failing field or attribute of a payload check
type ValidationIssue struct {
	Code      string `json:"code"`
	Attribute string `json:"attribute"`
	Target    string `json:"target,omitempty"`
	Reason    string `json:"reason"`
}

// Err returns the issue as a DomainError
func (i ValidationIssue) Err() *shared.DomainError {
	return shared.NewDomainError(i.Code, i.String())
}

// String renders the issue as "target.attribute: reason"
func (i ValidationIssue) String() string {
	name := i.Attribute
	if i.Target != "" {
		name = i.Target + "." + i.Attribute
	}
	return name + ": " + i.Reason
}

// ValidationErrors batches every failing attribute of one validation run
type ValidationErrors struct {
	Issues []ValidationIssue `json:"issues"`
}

// Add appends an issue
func (e *ValidationErrors) Add(code, target, attribute, reason string) {
	e.Issues = append(e.Issues, ValidationIssue{
		Code:      code,
		Attribute: attribute,
		Target:    target,
		Reason:    reason,
	})
}

// Merge appends all issues of another batch
func (e *ValidationErrors) Merge(other *ValidationErrors) {
	if other == nil {
		return
	}
	e.Issues = append(e.Issues, other.Issues...)
}

// HasIssues reports whether any issue was recorded
func (e *ValidationErrors) HasIssues() bool {
	return e != nil && len(e.Issues) > 0
}

// Has reports whether an issue with the given code was recorded
func (e *ValidationErrors) Has(code string) bool {
	for _, issue := range e.Issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

// ErrOrNil returns the batch as an error, or nil when it is empty
func (e *ValidationErrors) ErrOrNil() error {
	if !e.HasIssues() {
		return nil
	}
	return e
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("%d validation issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

// Unwrap exposes every issue so errors.Is matches any of the batched codes
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.Issues))
	for i, issue := range e.Issues {
		errs[i] = issue.Err()
	}
	return errs
}

// AsValidationErrors extracts a ValidationErrors batch from err
func AsValidationErrors(err error) (*ValidationErrors, bool) {
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
