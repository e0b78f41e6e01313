package usecase

import (
	"sort"
	"strings"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

const embeddedImagePrefix = "data:"

// DefaultPlaceholderImage is served when no category-specific placeholder applies.
const DefaultPlaceholderImage = "/images/placeholder.svg"

// invalidImageValues are placeholders legacy writers left behind instead of
// clearing the field.
var invalidImageValues = map[string]bool{
	"":          true,
	"undefined": true,
	"null":      true,
	"empty":     true,
}

// fallbackEditDistance bounds the typo tolerance when matching a category to a
// placeholder key; keys shorter than fallbackMinKeyRunes only match exactly or
// by containment.
const (
	fallbackEditDistance = 2
	fallbackMinKeyRunes  = 6
)

// ResolveImage classifies a raw image value. It performs no I/O: reachability
// is a separate, explicit check (see ImageVerifier).
func ResolveImage(raw string) domain.ImageReference {
	value := strings.TrimSpace(raw)
	if invalidImageValues[strings.ToLower(value)] {
		return domain.ImageReference{Kind: domain.ImageMissing}
	}

	lower := strings.ToLower(value)
	switch {
	case strings.HasPrefix(lower, embeddedImagePrefix):
		return domain.ImageReference{Kind: domain.ImageEmbedded, CanonicalValue: value, IsValid: true}
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return domain.ImageReference{Kind: domain.ImageExternal, CanonicalValue: value, IsValid: true}
	case strings.HasPrefix(value, "/"):
		return domain.ImageReference{Kind: domain.ImageLocal, CanonicalValue: value, IsValid: true}
	default:
		return domain.ImageReference{Kind: domain.ImageLocal, CanonicalValue: "/" + value, IsValid: true}
	}
}

type fallbackEntry struct {
	key   string
	image string
}

// FallbackTable maps category names to generic placeholder images.
type FallbackTable struct {
	entries   []fallbackEntry
	universal string
}

// NewFallbackTable builds a lookup from category to placeholder. Keys are
// normalized; longer keys are tried first so the most specific one wins.
func NewFallbackTable(fallbacks map[string]string, universal string) *FallbackTable {
	if strings.TrimSpace(universal) == "" {
		universal = DefaultPlaceholderImage
	}

	entries := make([]fallbackEntry, 0, len(fallbacks))
	for category, image := range fallbacks {
		key := Normalize(category)
		if key == "" || strings.TrimSpace(image) == "" {
			continue
		}
		entries = append(entries, fallbackEntry{key: key, image: strings.TrimSpace(image)})
	}

	// Map iteration order is random; sort fully so lookups are deterministic.
	sort.Slice(entries, func(a, b int) bool {
		la, lb := len([]rune(entries[a].key)), len([]rune(entries[b].key))
		if la != lb {
			return la > lb
		}
		return entries[a].key < entries[b].key
	})

	return &FallbackTable{entries: entries, universal: universal}
}

// FallbackFor returns the placeholder for a category: exact key, then
// containment in either direction, then a small edit distance, then the
// universal placeholder.
func (t *FallbackTable) FallbackFor(category string) string {
	normalized := Normalize(category)
	if normalized == "" {
		return t.universal
	}

	for _, entry := range t.entries {
		if entry.key == normalized {
			return entry.image
		}
	}

	for _, entry := range t.entries {
		if strings.Contains(normalized, entry.key) || strings.Contains(entry.key, normalized) {
			return entry.image
		}
	}

	best, bestDistance := "", fallbackEditDistance+1
	for _, entry := range t.entries {
		if len([]rune(entry.key)) < fallbackMinKeyRunes {
			continue
		}
		if d := levenshteinDistance(entry.key, normalized); d < bestDistance {
			best, bestDistance = entry.image, d
		}
	}
	if best != "" {
		return best
	}

	return t.universal
}

// Universal returns the placeholder used when no category key applies.
func (t *FallbackTable) Universal() string {
	return t.universal
}
