package usecase

import (
	"sort"
	"strings"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

type brandEntry struct {
	display    string
	normalized string
}

// BrandTable is a curated brand dictionary sorted longest-first. The ordering
// is what lets "AMD Ryzen" win over "AMD" for the same name.
type BrandTable struct {
	entries []brandEntry

	// Brands shorter than this many runes must match on token boundaries.
	// Zero means every brand matches as a plain substring.
	tokenBoundedBelow int
}

// BrandTableOption configures a BrandTable.
type BrandTableOption func(*BrandTable)

// WithTokenBoundedBelow makes brands shorter than n runes match only as whole
// tokens, so "HP" no longer matches inside "HPE" or "chip". Longer brands
// still match run-together names such as "MSIGaming".
func WithTokenBoundedBelow(n int) BrandTableOption {
	return func(t *BrandTable) {
		if n > 0 {
			t.tokenBoundedBelow = n
		}
	}
}

// NewBrandTable normalizes, de-duplicates (first spelling wins) and sorts the
// brand list by normalized length, descending. Ties keep declaration order.
func NewBrandTable(brands []string, opts ...BrandTableOption) *BrandTable {
	seen := make(map[string]bool, len(brands))
	entries := make([]brandEntry, 0, len(brands))
	for _, brand := range brands {
		display := strings.TrimSpace(brand)
		normalized := Normalize(display)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		entries = append(entries, brandEntry{display: display, normalized: normalized})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return len([]rune(entries[a].normalized)) > len([]rune(entries[b].normalized))
	})

	table := &BrandTable{entries: entries}
	for _, opt := range opts {
		opt(table)
	}
	return table
}

// Resolve returns the display form of the longest brand that is a substring
// of the normalized name, or domain.BrandGeneric.
func (t *BrandTable) Resolve(normalizedName string) string {
	if normalizedName == "" {
		return domain.BrandGeneric
	}
	for _, entry := range t.entries {
		if t.matches(normalizedName, entry.normalized) {
			return entry.display
		}
	}
	return domain.BrandGeneric
}

func (t *BrandTable) matches(normalizedName, brand string) bool {
	if len([]rune(brand)) < t.tokenBoundedBelow {
		return containsToken(normalizedName, brand)
	}
	return strings.Contains(normalizedName, brand)
}

// Canonical maps a free-text brand (e.g. a record's current value) onto the
// table's spelling when it names a known brand exactly.
func (t *BrandTable) Canonical(brand string) (string, bool) {
	normalized := Normalize(brand)
	if normalized == "" {
		return "", false
	}
	for _, entry := range t.entries {
		if entry.normalized == normalized {
			return entry.display, true
		}
	}
	return "", false
}

// Len returns the number of distinct brands in the table.
func (t *BrandTable) Len() int {
	return len(t.entries)
}
