package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fmagalhaes/storefront-backend/pkg/brdoc"
)

// FieldMessage is one (field, message) violation pair.
type FieldMessage struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found for one request; it
// is never raised with just the first failure.
type ValidationError struct {
	Violations []FieldMessage
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// validateNew runs the cross-field rules for a customer about to be
// inserted: the tax id checksum matching the client type, and email
// uniqueness against the store. All rules are evaluated; the violations
// are collected, not short-circuited.
func (s *service) validateNew(ctx context.Context, c *Customer) ([]FieldMessage, error) {
	var violations []FieldMessage

	switch c.Type {
	case ClientTypeIndividual:
		if !brdoc.IsValidCPF(c.TaxID) {
			violations = append(violations, FieldMessage{Field: "tax_id", Message: "invalid CPF"})
		}
	case ClientTypeBusiness:
		if !brdoc.IsValidCNPJ(c.TaxID) {
			violations = append(violations, FieldMessage{Field: "tax_id", Message: "invalid CNPJ"})
		}
	}

	_, err := s.repo.GetByEmail(ctx, c.Email)
	switch {
	case err == nil:
		violations = append(violations, FieldMessage{Field: "email", Message: "email already registered"})
	case errors.Is(err, ErrNotFound):
		// Free email.
	default:
		return nil, fmt.Errorf("service: failed to check email uniqueness: %w", err)
	}

	return violations, nil
}
