package usecase

import (
	"fmt"
	"strings"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

// DefaultImagePrecedence prefers the field the admin tool writes to.
var DefaultImagePrecedence = []domain.ImageField{
	domain.FieldAliasA,
	domain.FieldPrimary,
	domain.FieldAliasB,
}

// FieldSyncPolicy converges the legacy image fields onto one canonical value.
type FieldSyncPolicy struct {
	precedence []domain.ImageField
}

// NewFieldSyncPolicy validates the precedence order. An empty order selects
// DefaultImagePrecedence; otherwise every field must appear exactly once.
func NewFieldSyncPolicy(precedence ...domain.ImageField) (*FieldSyncPolicy, error) {
	if len(precedence) == 0 {
		precedence = DefaultImagePrecedence
	}

	seen := make(map[domain.ImageField]bool, len(precedence))
	for _, field := range precedence {
		switch field {
		case domain.FieldPrimary, domain.FieldAliasA, domain.FieldAliasB:
		default:
			return nil, fmt.Errorf("unknown image field %q", field)
		}
		if seen[field] {
			return nil, fmt.Errorf("image field %q listed twice", field)
		}
		seen[field] = true
	}
	if len(seen) != len(DefaultImagePrecedence) {
		return nil, fmt.Errorf("image precedence must list all of img, imageUrl, image")
	}

	order := make([]domain.ImageField, len(precedence))
	copy(order, precedence)
	return &FieldSyncPolicy{precedence: order}, nil
}

// Precedence returns the configured order, highest first.
func (p *FieldSyncPolicy) Precedence() []domain.ImageField {
	out := make([]domain.ImageField, len(p.precedence))
	copy(out, p.precedence)
	return out
}

// Reconcile picks the first field, by precedence, holding a valid image value
// and returns it together with the converged field set. When no field is
// valid the canonical value is empty and every field is cleared.
func (p *FieldSyncPolicy) Reconcile(fields domain.ImageFields) (string, domain.ImageFields) {
	for _, field := range p.precedence {
		value := strings.TrimSpace(fields.Get(field))
		if !ResolveImage(value).IsValid {
			continue
		}
		return value, domain.ImageFields{Primary: value, AliasA: value, AliasB: value}
	}
	return "", domain.ImageFields{}
}
