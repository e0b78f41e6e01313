package domain

import "time"

// Sentinel values the engine proposes when it has no confident answer.
const (
	CategoryUnclassified = "Unclassified"
	BrandGeneric         = "Generic"
)

// ImageFields holds the three legacy image columns. Any of them may be stale
// relative to the others.
type ImageFields struct {
	Primary string `json:"img,omitempty"`
	AliasA  string `json:"imageUrl,omitempty"`
	AliasB  string `json:"image,omitempty"`
}

// ImageField names one of the legacy image columns by its stored key.
type ImageField string

const (
	FieldPrimary ImageField = "img"
	FieldAliasA  ImageField = "imageUrl"
	FieldAliasB  ImageField = "image"
)

// Get returns the value stored under the given field.
func (f ImageFields) Get(field ImageField) string {
	switch field {
	case FieldPrimary:
		return f.Primary
	case FieldAliasA:
		return f.AliasA
	case FieldAliasB:
		return f.AliasB
	}
	return ""
}

// ProductRecord is a product as read from the store or the scraper output.
// Category and Brand are the current values and only ever used as hints.
type ProductRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Brand    string `json:"brand,omitempty"`
	ImageFields
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ImageKind classifies where an image reference points.
type ImageKind string

const (
	ImageEmbedded ImageKind = "Embedded"
	ImageExternal ImageKind = "External"
	ImageLocal    ImageKind = "Local"
	ImageMissing  ImageKind = "Missing"
)

// ImageReference is the resolved, servable form of a raw image value.
// CanonicalValue is empty when Kind is ImageMissing.
type ImageReference struct {
	Kind           ImageKind `json:"kind"`
	CanonicalValue string    `json:"canonicalValue,omitempty"`
	IsValid        bool      `json:"isValid"`
}
