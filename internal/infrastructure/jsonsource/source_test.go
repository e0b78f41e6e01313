package jsonsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

func TestDecode(t *testing.T) {
	input := `[
	  {"id": "p-1", "name": "Intel Core i7-13700K Processor", "category": "cpu", "img": "a.jpg"},
	  {"_id": {"$oid": "65a1f0c2e4b0a1b2c3d4e5f6"}, "title": "Zotac RTX 4070", "imageUrl": "https://cdn.example.com/z.jpg", "image": null},
	  {"_id": "legacy-7", "name": "Logitech G502", "brand": "Logitech", "image": 42, "updatedAt": "2026-02-01T08:00:00Z"},
	  {"id": 1001, "name": "Numbered"}
	]`

	records, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "p-1", records[0].ID)
	assert.Equal(t, "cpu", records[0].Category)
	assert.Equal(t, "a.jpg", records[0].Primary)

	assert.Equal(t, "65a1f0c2e4b0a1b2c3d4e5f6", records[1].ID)
	assert.Equal(t, "Zotac RTX 4070", records[1].Name)
	assert.Equal(t, "https://cdn.example.com/z.jpg", records[1].AliasA)
	assert.Empty(t, records[1].AliasB)

	assert.Equal(t, "legacy-7", records[2].ID)
	assert.Empty(t, records[2].AliasB, "non-string image values are dropped")
	assert.Equal(t, 2026, records[2].UpdatedAt.Year())

	assert.Equal(t, "1001", records[3].ID)
}

func TestDecode_WrappedObject(t *testing.T) {
	records, err := Decode(strings.NewReader(`{"products": [{"id": "x", "name": "Case"}]}`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "x", records[0].ID)
}

func TestDecode_Invalid(t *testing.T) {
	testCases := map[string]string{
		"empty":      "   ",
		"not json":   "[{",
		"missing id": `[{"name": "no id"}]`,
		"blank oid":  `[{"_id": {"$oid": ""}}]`,
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidRequest), "error = %v", err)
		})
	}
}

func TestSource_ListProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "1", "name": "Corsair RM850x"}]`), 0o644))

	records, err := New(path).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Corsair RM850x", records[0].Name)

	_, err = New(filepath.Join(t.TempDir(), "missing.json")).ListProducts(context.Background())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
