package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

// ImageVerifierConfig holds configuration for the image verifier
type ImageVerifierConfig struct {
	CacheTTL    time.Duration
	Concurrency int
}

// ImageVerifier performs the opt-in reachability check for resolved images.
// The enrichment pipeline never calls it.
type ImageVerifier struct {
	cache       domain.CacheRepository
	checker     domain.ReachabilityChecker
	cacheTTL    time.Duration
	concurrency int
	logger      *zap.Logger
}

// NewImageVerifier creates a verifier with dependencies
func NewImageVerifier(
	cache domain.CacheRepository,
	checker domain.ReachabilityChecker,
	config ImageVerifierConfig,
	logger *zap.Logger,
) *ImageVerifier {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 6 * time.Hour
	}

	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ImageVerifier{
		cache:       cache,
		checker:     checker,
		cacheTTL:    cacheTTL,
		concurrency: concurrency,
		logger:      logger,
	}
}

// VerifyReachable checks whether an image can be served.
// Flow: classify -> check cache -> ask checker -> cache -> return
func (v *ImageVerifier) VerifyReachable(ctx context.Context, ref domain.ImageReference) (reachable bool, cached bool, err error) {
	switch ref.Kind {
	case domain.ImageMissing:
		return false, false, nil
	case domain.ImageEmbedded:
		// Inline data is served from the record itself.
		return true, false, nil
	}

	key := reachabilityCacheKey(ref)
	if value, err := v.cache.Get(ctx, key); err == nil {
		if ok, isBool := value.(bool); isBool {
			return ok, true, nil
		}
	}

	reachable, err = v.checker.CheckReachable(ctx, ref)
	if err != nil {
		return false, false, fmt.Errorf("%w: %v", domain.ErrReachabilityCheck, err)
	}

	if err := v.cache.Set(ctx, key, reachable, v.cacheTTL); err != nil {
		v.logger.Warn("Failed to cache reachability result",
			zap.String("image", ref.CanonicalValue),
			zap.Error(err))
	}

	return reachable, false, nil
}

// VerifyBatch audits the proposed image of every result. A failed check is
// recorded on that record's audit and the batch continues.
func (v *ImageVerifier) VerifyBatch(ctx context.Context, results []domain.EnrichmentResult) ([]domain.ImageAudit, error) {
	audits := make([]domain.ImageAudit, len(results))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)

	for i, result := range results {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			reachable, cached, err := v.VerifyReachable(gctx, result.ProposedImage)
			audits[i] = domain.ImageAudit{
				ID:        result.ID,
				Image:     result.ProposedImage,
				Reachable: reachable,
				Cached:    cached,
				Err:       err,
			}
			if err != nil {
				v.logger.Warn("Image reachability check failed",
					zap.String("product_id", result.ID),
					zap.String("image", result.ProposedImage.CanonicalValue),
					zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return audits, nil
}

// reachabilityCacheKey builds the cache key for an image reference.
// Format: "reach:{kind}:{canonical value}"
func reachabilityCacheKey(ref domain.ImageReference) string {
	return fmt.Sprintf("reach:%s:%s", ref.Kind, ref.CanonicalValue)
}
