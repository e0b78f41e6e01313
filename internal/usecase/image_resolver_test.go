package usecase

import (
	"testing"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

func TestResolveImage(t *testing.T) {
	testCases := []struct {
		name          string
		raw           string
		wantKind      domain.ImageKind
		wantCanonical string
		wantValid     bool
	}{
		{name: "null", raw: "", wantKind: domain.ImageMissing},
		{name: "blank", raw: "   ", wantKind: domain.ImageMissing},
		{name: "undefined sentinel", raw: "undefined", wantKind: domain.ImageMissing},
		{name: "null sentinel any case", raw: "NULL", wantKind: domain.ImageMissing},
		{name: "empty sentinel padded", raw: " Empty ", wantKind: domain.ImageMissing},
		{name: "embedded data", raw: "data:image/png;base64,iVBORw0KGgo=", wantKind: domain.ImageEmbedded, wantCanonical: "data:image/png;base64,iVBORw0KGgo=", wantValid: true},
		{name: "https url", raw: "https://x/y.jpg", wantKind: domain.ImageExternal, wantCanonical: "https://x/y.jpg", wantValid: true},
		{name: "http url upper-case scheme", raw: "HTTP://cdn.example.com/a.png", wantKind: domain.ImageExternal, wantCanonical: "HTTP://cdn.example.com/a.png", wantValid: true},
		{name: "absolute local path", raw: "/images/a.jpg", wantKind: domain.ImageLocal, wantCanonical: "/images/a.jpg", wantValid: true},
		{name: "bare filename", raw: "a.jpg", wantKind: domain.ImageLocal, wantCanonical: "/a.jpg", wantValid: true},
		{name: "relative path", raw: "uploads/cpu/i7.webp", wantKind: domain.ImageLocal, wantCanonical: "/uploads/cpu/i7.webp", wantValid: true},
		{name: "surrounding whitespace trimmed", raw: " a.jpg\n", wantKind: domain.ImageLocal, wantCanonical: "/a.jpg", wantValid: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveImage(tc.raw)
			if got.Kind != tc.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tc.wantKind)
			}
			if got.CanonicalValue != tc.wantCanonical {
				t.Errorf("CanonicalValue = %q, want %q", got.CanonicalValue, tc.wantCanonical)
			}
			if got.IsValid != tc.wantValid {
				t.Errorf("IsValid = %v, want %v", got.IsValid, tc.wantValid)
			}
		})
	}
}

func TestFallbackTable_FallbackFor(t *testing.T) {
	table := NewFallbackTable(map[string]string{
		"Processors":     "/images/placeholders/cpu.svg",
		"Graphics Cards": "/images/placeholders/gpu.svg",
		"Monitors":       "/images/placeholders/monitor.svg",
		"RAM":            "/images/placeholders/ram.svg",
		"Empty":          " ",
	}, "/images/placeholders/product.svg")

	testCases := []struct {
		name     string
		category string
		want     string
	}{
		{name: "exact key", category: "Processors", want: "/images/placeholders/cpu.svg"},
		{name: "case and punctuation insensitive", category: "graphics-cards", want: "/images/placeholders/gpu.svg"},
		{name: "category contains key", category: "Gaming Monitors 144Hz", want: "/images/placeholders/monitor.svg"},
		{name: "category contained in key", category: "Graphics", want: "/images/placeholders/gpu.svg"},
		{name: "small typo", category: "Procesors", want: "/images/placeholders/cpu.svg"},
		{name: "short keys need containment", category: "RAN", want: "/images/placeholders/product.svg"},
		{name: "unknown category", category: "Furniture", want: "/images/placeholders/product.svg"},
		{name: "empty category", category: "", want: "/images/placeholders/product.svg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := table.FallbackFor(tc.category); got != tc.want {
				t.Errorf("FallbackFor(%q) = %q, want %q", tc.category, got, tc.want)
			}
		})
	}
}

func TestNewFallbackTable_DefaultUniversal(t *testing.T) {
	table := NewFallbackTable(nil, "")
	if table.Universal() != DefaultPlaceholderImage {
		t.Errorf("Universal() = %q, want %q", table.Universal(), DefaultPlaceholderImage)
	}
	if got := table.FallbackFor("Processors"); got != DefaultPlaceholderImage {
		t.Errorf("FallbackFor() = %q, want %q", got, DefaultPlaceholderImage)
	}
}
