package usecase

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

// Tables bundles the compiled, read-only lookup tables one pipeline run uses.
type Tables struct {
	Version   string
	Rules     *RuleSet
	Brands    *BrandTable
	Fallbacks *FallbackTable
	ImageSync *FieldSyncPolicy
}

// NewTables compiles a rulebook. Every configuration problem surfaces here,
// before any record is processed.
func NewTables(book domain.Rulebook) (Tables, error) {
	rules, err := NewRuleSet(book.Rules)
	if err != nil {
		return Tables{}, err
	}

	imageSync, err := NewFieldSyncPolicy(book.ImagePrecedence...)
	if err != nil {
		return Tables{}, fmt.Errorf("%w: %v", domain.ErrInvalidRuleSet, err)
	}

	return Tables{
		Version:   book.Version,
		Rules:     rules,
		Brands:    NewBrandTable(book.Brands, WithTokenBoundedBelow(book.BrandTokenBoundedBelow)),
		Fallbacks: NewFallbackTable(book.Fallbacks, book.UniversalImage),
		ImageSync: imageSync,
	}, nil
}

// Pipeline turns product records into enrichment proposals. It never mutates
// its input and never touches storage or the network.
type Pipeline struct {
	tables Tables
	logger *zap.Logger
}

// NewPipeline creates a pipeline over compiled tables. A nil logger disables
// per-record debug output.
func NewPipeline(tables Tables, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{tables: tables, logger: logger}
}

// Tables returns the tables the pipeline runs against.
func (p *Pipeline) Tables() Tables {
	return p.tables
}

// Enrich computes the proposal for a single record.
func (p *Pipeline) Enrich(record domain.ProductRecord) domain.EnrichmentResult {
	name := Normalize(record.Name)

	category := p.tables.Rules.Classify(name, domain.AxisCategory, record.Category)
	brand, brandRule := p.resolveBrand(name, record.Brand)

	canonical, synced := p.tables.ImageSync.Reconcile(record.ImageFields)
	image := ResolveImage(canonical)

	result := domain.EnrichmentResult{
		ID:                  record.ID,
		Name:                record.Name,
		ProposedCategory:    category.Target,
		CategoryRule:        category.MatchedRule,
		CategorySource:      category.Source,
		ProposedBrand:       brand,
		BrandRule:           brandRule,
		ProposedImage:       image,
		ProposedImageFields: synced,
		Current:             record,
		Changed: domain.ChangedFields{
			Category: proposesChange(category.Target, record.Category, domain.CategoryUnclassified),
			Brand:    proposesChange(brand, record.Brand, domain.BrandGeneric),
			Image:    synced != record.ImageFields,
		},
	}
	if image.Kind == domain.ImageMissing {
		result.FallbackImage = p.tables.Fallbacks.FallbackFor(category.Target)
	}

	p.logger.Debug("Enriched product",
		zap.String("product_id", record.ID),
		zap.String("category", result.ProposedCategory),
		zap.String("category_rule", result.CategoryRule),
		zap.String("brand", result.ProposedBrand),
		zap.String("image_kind", string(image.Kind)),
		zap.Bool("changed", result.Changed.Any()))

	return result
}

// resolveBrand runs brand-axis rules first, then the brand dictionary, and
// finally keeps the current brand if it is a known dictionary entry.
func (p *Pipeline) resolveBrand(normalizedName, current string) (string, string) {
	if normalizedName == "" {
		return domain.BrandGeneric, ""
	}

	if c := p.tables.Rules.Classify(normalizedName, domain.AxisBrand, ""); c.Source == domain.SourceRule {
		return c.Target, c.MatchedRule
	}

	if brand := p.tables.Brands.Resolve(normalizedName); brand != domain.BrandGeneric {
		return brand, ""
	}

	if brand, ok := p.tables.Brands.Canonical(current); ok {
		return brand, ""
	}

	return domain.BrandGeneric, ""
}

// proposesChange reports whether proposed should replace current. Sentinel
// proposals never overwrite data.
func proposesChange(proposed, current, sentinel string) bool {
	if proposed == "" || proposed == sentinel {
		return false
	}
	return proposed != strings.TrimSpace(current)
}

// Run returns a lazy sequence of proposals. The sequence can be iterated any
// number of times and yields identical results each time.
func (p *Pipeline) Run(records []domain.ProductRecord) iter.Seq[domain.EnrichmentResult] {
	return func(yield func(domain.EnrichmentResult) bool) {
		for _, record := range records {
			if !yield(p.Enrich(record)) {
				return
			}
		}
	}
}

// RunParallel enriches records on a pool of workers and returns the results
// in input order. Cancelling ctx discards the records not yet handed out.
func (p *Pipeline) RunParallel(ctx context.Context, records []domain.ProductRecord, workers int) ([]domain.EnrichmentResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]domain.EnrichmentResult, len(records))
	if workers == 1 {
		for i, record := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = p.Enrich(record)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	next := make(chan int)

	g.Go(func() error {
		defer close(next)
		for i := range records {
			select {
			case next <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range next {
				results[i] = p.Enrich(records[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// BuildChangeset runs the pipeline and wraps the proposals with run metadata.
func (p *Pipeline) BuildChangeset(ctx context.Context, records []domain.ProductRecord, workers int) (domain.Changeset, error) {
	results, err := p.RunParallel(ctx, records, workers)
	if err != nil {
		return domain.Changeset{}, err
	}

	changeset := domain.Changeset{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Version:     p.tables.Version,
		Results:     results,
		Summary:     Summarize(results),
	}

	p.logger.Info("Built changeset",
		zap.String("run_id", changeset.RunID),
		zap.String("rulebook_version", changeset.Version),
		zap.Int("records", changeset.Summary.Total),
		zap.Int("changed", changeset.Summary.Changed),
		zap.Int("unclassified", changeset.Summary.Unclassified),
		zap.Int("missing_images", changeset.Summary.MissingImages))

	return changeset, nil
}

// Summarize counts changes and sentinel outcomes across a set of proposals.
func Summarize(results []domain.EnrichmentResult) domain.ChangesetSummary {
	summary := domain.ChangesetSummary{Total: len(results)}
	for _, r := range results {
		if r.Changed.Any() {
			summary.Changed++
		}
		if r.Changed.Category {
			summary.CategoryChanges++
		}
		if r.Changed.Brand {
			summary.BrandChanges++
		}
		if r.Changed.Image {
			summary.ImageChanges++
		}
		if r.ProposedCategory == domain.CategoryUnclassified {
			summary.Unclassified++
		}
		if r.ProposedBrand == domain.BrandGeneric {
			summary.GenericBrand++
		}
		if r.ProposedImage.Kind == domain.ImageMissing {
			summary.MissingImages++
		}
	}
	return summary
}
