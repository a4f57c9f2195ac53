package catalog

import (
	"fmt"
	"strings"

	"github.com/storefront/catalog/internal/domain/shared"
)

func invalidField(field, reason string) *shared.DomainError {
	return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%s %s", field, reason))
}

func validateName(field, name string, maxLen int) error {
	if strings.TrimSpace(name) == "" {
		return invalidField(field, "cannot be empty")
	}
	if len(name) > maxLen {
		return invalidField(field, fmt.Sprintf("cannot exceed %d characters", maxLen))
	}
	return nil
}

// optionalString trims s and returns nil for blank values
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
