package usecase

import (
	"testing"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

func TestNewFieldSyncPolicy(t *testing.T) {
	t.Run("defaults to admin field first", func(t *testing.T) {
		policy, err := NewFieldSyncPolicy()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := policy.Precedence()
		want := []domain.ImageField{domain.FieldAliasA, domain.FieldPrimary, domain.FieldAliasB}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("Precedence() = %v, want %v", got, want)
			}
		}
	})

	invalid := map[string][]domain.ImageField{
		"unknown field":  {domain.FieldAliasA, domain.FieldPrimary, "thumbnail"},
		"duplicate":      {domain.FieldAliasA, domain.FieldAliasA, domain.FieldAliasB},
		"missing fields": {domain.FieldAliasA},
	}
	for name, precedence := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := NewFieldSyncPolicy(precedence...); err == nil {
				t.Errorf("NewFieldSyncPolicy(%v) error = nil, want error", precedence)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	policy, err := NewFieldSyncPolicy(domain.FieldAliasA, domain.FieldPrimary, domain.FieldAliasB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testCases := []struct {
		name   string
		fields domain.ImageFields
		want   string
	}{
		{
			name:   "falls to primary when admin field is empty",
			fields: domain.ImageFields{Primary: "a.jpg", AliasA: "", AliasB: "b.jpg"},
			want:   "a.jpg",
		},
		{
			name:   "admin field wins",
			fields: domain.ImageFields{Primary: "a.jpg", AliasA: "https://cdn/x.jpg", AliasB: "b.jpg"},
			want:   "https://cdn/x.jpg",
		},
		{
			name:   "sentinels are skipped",
			fields: domain.ImageFields{Primary: "undefined", AliasA: "null", AliasB: "/images/b.jpg"},
			want:   "/images/b.jpg",
		},
		{
			name:   "value is trimmed",
			fields: domain.ImageFields{AliasA: "  /images/c.jpg "},
			want:   "/images/c.jpg",
		},
		{
			name:   "nothing valid",
			fields: domain.ImageFields{Primary: "empty", AliasA: " ", AliasB: "UNDEFINED"},
			want:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			canonical, synced := policy.Reconcile(tc.fields)
			if canonical != tc.want {
				t.Errorf("canonical = %q, want %q", canonical, tc.want)
			}
			want := domain.ImageFields{Primary: tc.want, AliasA: tc.want, AliasB: tc.want}
			if synced != want {
				t.Errorf("synced = %+v, want all fields %q", synced, tc.want)
			}
		})
	}
}

func TestReconcile_CustomPrecedence(t *testing.T) {
	policy, err := NewFieldSyncPolicy(domain.FieldAliasB, domain.FieldPrimary, domain.FieldAliasA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	canonical, _ := policy.Reconcile(domain.ImageFields{Primary: "a.jpg", AliasA: "c.jpg", AliasB: "b.jpg"})
	if canonical != "b.jpg" {
		t.Errorf("canonical = %q, want b.jpg", canonical)
	}
}
