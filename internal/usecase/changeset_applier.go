package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

// ChangesetApplier writes proposals to the product store. Each record is an
// independent conditional update; one failure never aborts the batch.
type ChangesetApplier struct {
	repo   domain.ProductRepository
	logger *zap.Logger
}

// NewChangesetApplier creates an applier over a product repository.
func NewChangesetApplier(repo domain.ProductRepository, logger *zap.Logger) *ChangesetApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangesetApplier{repo: repo, logger: logger}
}

// Apply writes every changed result. Unchanged results are counted and skipped.
// Only cancellation of ctx stops the batch early.
func (a *ChangesetApplier) Apply(ctx context.Context, results []domain.EnrichmentResult) (domain.ApplyReport, error) {
	var report domain.ApplyReport

	for _, result := range results {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !result.Changed.Any() {
			report.Unchanged++
			continue
		}

		err := a.repo.ApplyEnrichment(ctx, result)
		switch {
		case err == nil:
			report.Applied++
		case errors.Is(err, domain.ErrConflict):
			report.Conflicts++
			report.Failures = append(report.Failures, domain.RecordError{ID: result.ID, Err: err})
			a.logger.Warn("Skipped product modified since read",
				zap.String("product_id", result.ID))
		default:
			report.Failures = append(report.Failures, domain.RecordError{ID: result.ID, Err: err})
			a.logger.Error("Failed to apply enrichment",
				zap.String("product_id", result.ID),
				zap.Error(err))
		}
	}

	a.logger.Info("Applied changeset",
		zap.Int("applied", report.Applied),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("conflicts", report.Conflicts),
		zap.Int("failures", len(report.Failures)))

	return report, nil
}
