package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
	"github.com/ather123970/aalacomputer-sub003/internal/infrastructure/sqlite"
)

const productsJSON = `[
  {"id": "1", "name": "Intel Core i5-12400F Processor", "category": "", "brand": "", "img": "/images/i5.jpg"},
  {"_id": {"$oid": "2"}, "title": "Mystery Box", "category": "Misc"}
]`

// workspace moves the test into a temp dir holding a product export.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte(productsJSON), 0o644))
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	workspace(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, exitUsage},
		{"unknown command", []string{"frobnicate"}, exitUsage},
		{"help", []string{"help"}, exitOK},
		{"bad flag", []string{"enrich", "-nope"}, exitUsage},
		{"apply needs sqlite", []string{"enrich", "-source", "json", "-input", "products.json", "-apply"}, exitUsage},
		{"apply with dry-run", []string{"enrich", "-apply", "-dry-run=true"}, exitUsage},
		{"json without input", []string{"enrich", "-source", "json"}, exitUsage},
		{"unknown source", []string{"enrich", "-source", "mongo"}, exitUsage},
		{"missing rulebook", []string{"enrich", "-rules", "missing.yaml"}, exitUsage},
		{"import without input", []string{"import"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRun_EnrichJSONDryRun(t *testing.T) {
	workspace(t)

	code, stdout, stderr := runCLI(t, "enrich", "-source", "json", "-input", "products.json", "-workers", "2")
	require.Equal(t, exitOK, code, stderr)

	var changeset domain.Changeset
	require.NoError(t, json.Unmarshal([]byte(stdout), &changeset))

	assert.NotEmpty(t, changeset.RunID)
	assert.NotEmpty(t, changeset.Version)
	require.Len(t, changeset.Results, 2)
	assert.Equal(t, 2, changeset.Summary.Total)
	assert.Equal(t, 1, changeset.Summary.Changed)

	first := changeset.Results[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "Processors", first.ProposedCategory)
	assert.Equal(t, "Intel", first.ProposedBrand)
	assert.Equal(t, domain.ImageFields{Primary: "/images/i5.jpg", AliasA: "/images/i5.jpg", AliasB: "/images/i5.jpg"}, first.ProposedImageFields)

	second := changeset.Results[1]
	assert.Equal(t, "2", second.ID)
	assert.Equal(t, domain.CategoryUnclassified, second.ProposedCategory)
	assert.Equal(t, domain.BrandGeneric, second.ProposedBrand)
	assert.Equal(t, "/images/placeholder.svg", second.FallbackImage)
}

func TestRun_EnrichWritesOutAndReport(t *testing.T) {
	dir := workspace(t)
	out := filepath.Join(dir, "changeset.json")
	xlsx := filepath.Join(dir, "reports", "changeset.xlsx")

	code, stdout, stderr := runCLI(t, "enrich", "-source", "json", "-input", "products.json", "-out", out, "-report", xlsx)
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var changeset domain.Changeset
	require.NoError(t, json.Unmarshal(data, &changeset))
	assert.Len(t, changeset.Results, 2)

	_, err = os.Stat(xlsx)
	assert.NoError(t, err)
}

func TestRun_ImportThenApply(t *testing.T) {
	dir := workspace(t)
	db := filepath.Join(dir, "data", "products.db")

	code, stdout, stderr := runCLI(t, "import", "-input", "products.json", "-db", db)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "imported 2 products")

	// Dry run leaves the store untouched.
	code, _, stderr = runCLI(t, "enrich", "-input", db)
	require.Equal(t, exitOK, code, stderr)

	store, err := sqlite.Open(db)
	require.NoError(t, err)
	before, err := store.GetProduct(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, before.Category)
	require.NoError(t, store.Close())

	code, stdout, stderr = runCLI(t, "enrich", "-input", db, "-apply")
	require.Equal(t, exitOK, code, stderr)

	var report domain.ApplyReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 1, report.Unchanged)
	assert.Zero(t, report.Conflicts)
	assert.Empty(t, report.Failures)

	store, err = sqlite.Open(db)
	require.NoError(t, err)
	defer store.Close()

	after, err := store.GetProduct(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Processors", after.Category)
	assert.Equal(t, "Intel", after.Brand)
	assert.Equal(t, "/images/i5.jpg", after.ImageFields.AliasA)

	// A second run finds nothing left to change.
	code, stdout, stderr = runCLI(t, "enrich", "-input", db, "-apply")
	require.Equal(t, exitOK, code, stderr)
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Zero(t, report.Applied)
	assert.Equal(t, 2, report.Unchanged)
}

func decodeAudits(t *testing.T, stdout string) []auditLine {
	t.Helper()
	var lines []auditLine
	scanner := bufio.NewScanner(bytes.NewBufferString(stdout))
	for scanner.Scan() {
		var line auditLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRun_VerifyImages(t *testing.T) {
	dir := workspace(t)
	public := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(filepath.Join(public, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "images", "i5.jpg"), []byte("jpg"), 0o644))

	code, stdout, stderr := runCLI(t, "verify-images", "-source", "json", "-input", "products.json", "-public-dir", public)
	require.Equal(t, exitOK, code, stderr)

	audits := decodeAudits(t, stdout)
	require.Len(t, audits, 2)

	assert.Equal(t, "1", audits[0].ID)
	assert.True(t, audits[0].Reachable)
	assert.Empty(t, audits[0].Error)

	assert.Equal(t, "2", audits[1].ID)
	assert.Equal(t, domain.ImageMissing, audits[1].Image.Kind)
	assert.False(t, audits[1].Reachable)
}

func TestRun_VerifyImagesMissingFile(t *testing.T) {
	dir := workspace(t)
	public := filepath.Join(dir, "public")
	require.NoError(t, os.MkdirAll(public, 0o755))
	xlsx := filepath.Join(dir, "audit.xlsx")

	code, stdout, stderr := runCLI(t, "verify-images", "-source", "json", "-input", "products.json", "-public-dir", public, "-report", xlsx)
	require.Equal(t, exitOK, code, stderr)

	audits := decodeAudits(t, stdout)
	require.Len(t, audits, 2)
	assert.False(t, audits[0].Reachable)
	assert.Empty(t, audits[0].Error)

	_, err := os.Stat(xlsx)
	assert.NoError(t, err)
}
