package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

const (
	ChangesSheet = "Changes"
	SummarySheet = "Summary"
	AuditSheet   = "Image Audit"
)

var changeHeaders = []string{
	"id", "name",
	"current_category", "proposed_category", "category_rule", "category_source", "category_changed",
	"current_brand", "proposed_brand", "brand_rule", "brand_changed",
	"current_img", "current_imageUrl", "current_image",
	"proposed_image", "image_kind", "image_changed", "fallback_image",
}

// ExportChangesetToXLSX writes a reviewable workbook: one row per proposal, a
// summary sheet and, when audits are given, the image reachability results.
func ExportChangesetToXLSX(changeset domain.Changeset, audits []domain.ImageAudit, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ChangesSheet); err != nil {
		return err
	}
	writeHeader(f, ChangesSheet, changeHeaders)

	for i, r := range changeset.Results {
		row := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(ChangesSheet, cell, value)
		}

		set(1, r.ID)
		set(2, r.Name)
		set(3, r.Current.Category)
		set(4, r.ProposedCategory)
		set(5, r.CategoryRule)
		set(6, string(r.CategorySource))
		set(7, r.Changed.Category)
		set(8, r.Current.Brand)
		set(9, r.ProposedBrand)
		set(10, r.BrandRule)
		set(11, r.Changed.Brand)
		set(12, r.Current.Primary)
		set(13, r.Current.AliasA)
		set(14, r.Current.AliasB)
		set(15, r.ProposedImage.CanonicalValue)
		set(16, string(r.ProposedImage.Kind))
		set(17, r.Changed.Image)
		set(18, r.FallbackImage)
	}
	_ = f.SetPanes(ChangesSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	s := changeset.Summary
	summary := [][]any{
		{"run_id", changeset.RunID},
		{"generated_at", changeset.GeneratedAt.Format(time.RFC3339)},
		{"rulebook_version", changeset.Version},
		{"total", s.Total},
		{"changed", s.Changed},
		{"category_changes", s.CategoryChanges},
		{"brand_changes", s.BrandChanges},
		{"image_changes", s.ImageChanges},
		{"unclassified", s.Unclassified},
		{"generic_brand", s.GenericBrand},
		{"missing_images", s.MissingImages},
	}
	for i, pair := range summary {
		_ = f.SetCellValue(SummarySheet, cellName(1, i+1), pair[0])
		_ = f.SetCellValue(SummarySheet, cellName(2, i+1), pair[1])
	}

	if len(audits) > 0 {
		if _, err := f.NewSheet(AuditSheet); err != nil {
			return err
		}
		writeHeader(f, AuditSheet, []string{"id", "image", "kind", "reachable", "cached", "error"})
		for i, a := range audits {
			row := i + 2
			errText := ""
			if a.Err != nil {
				errText = a.Err.Error()
			}
			_ = f.SetCellValue(AuditSheet, cellName(1, row), a.ID)
			_ = f.SetCellValue(AuditSheet, cellName(2, row), a.Image.CanonicalValue)
			_ = f.SetCellValue(AuditSheet, cellName(3, row), string(a.Image.Kind))
			_ = f.SetCellValue(AuditSheet, cellName(4, row), a.Reachable)
			_ = f.SetCellValue(AuditSheet, cellName(5, row), a.Cached)
			_ = f.SetCellValue(AuditSheet, cellName(6, row), errText)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		_ = f.SetCellValue(sheet, cellName(i+1, 1), h)
	}
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
