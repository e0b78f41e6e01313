package report

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

func sampleChangeset() domain.Changeset {
	return domain.Changeset{
		RunID:       "run-123",
		GeneratedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Version:     "test-1",
		Results: []domain.EnrichmentResult{
			{
				ID:               "1",
				Name:             "Intel Core i7-13700K Processor",
				ProposedCategory: "Processors",
				CategoryRule:     "processors",
				CategorySource:   domain.SourceRule,
				ProposedBrand:    "Intel",
				ProposedImage:    domain.ImageReference{Kind: domain.ImageMissing},
				FallbackImage:    "/images/placeholders/cpu.svg",
				Changed:          domain.ChangedFields{Category: true, Brand: true},
				Current:          domain.ProductRecord{ID: "1", Category: "cpu"},
			},
			{
				ID:               "2",
				Name:             "Mystery Box",
				ProposedCategory: domain.CategoryUnclassified,
				CategorySource:   domain.SourceDefault,
				ProposedBrand:    domain.BrandGeneric,
				ProposedImage:    domain.ImageReference{Kind: domain.ImageLocal, CanonicalValue: "/box.jpg", IsValid: true},
				Current:          domain.ProductRecord{ID: "2", ImageFields: domain.ImageFields{Primary: "box.jpg"}},
			},
		},
		Summary: domain.ChangesetSummary{Total: 2, Changed: 1, CategoryChanges: 1, BrandChanges: 1, Unclassified: 1, GenericBrand: 1, MissingImages: 1},
	}
}

func TestExportChangesetToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "changeset.xlsx")

	audits := []domain.ImageAudit{
		{ID: "2", Image: domain.ImageReference{Kind: domain.ImageLocal, CanonicalValue: "/box.jpg"}, Reachable: false, Err: errors.New("stat failed")},
	}
	require.NoError(t, ExportChangesetToXLSX(sampleChangeset(), audits, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ChangesSheet, SummarySheet, AuditSheet}, f.GetSheetList())

	rows, err := f.GetRows(ChangesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, changeHeaders, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "cpu", rows[1][2])
	assert.Equal(t, "Processors", rows[1][3])
	assert.Equal(t, "TRUE", rows[1][6])
	assert.Equal(t, "/images/placeholders/cpu.svg", rows[1][17])
	assert.Equal(t, "Unclassified", rows[2][3])

	runID, err := f.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-123", runID)
	total, err := f.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	auditErr, err := f.GetCellValue(AuditSheet, "F2")
	require.NoError(t, err)
	assert.Equal(t, "stat failed", auditErr)
}

func TestExportChangesetToXLSX_NoAudits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "changeset.xlsx")
	require.NoError(t, ExportChangesetToXLSX(sampleChangeset(), nil, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ChangesSheet, SummarySheet}, f.GetSheetList())
}
