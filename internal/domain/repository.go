package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductSource supplies raw product records.
type ProductSource interface {
	ListProducts(ctx context.Context) ([]ProductRecord, error)
}

// ProductRepository is the persistence collaborator. ApplyEnrichment must be
// an atomic per-record conditional update: it writes only when the stored row
// still holds result.Current, otherwise it returns ErrConflict.
type ProductRepository interface {
	ProductSource
	GetProduct(ctx context.Context, id string) (*ProductRecord, error)
	UpsertProducts(ctx context.Context, records []ProductRecord) (int, error)
	ApplyEnrichment(ctx context.Context, result EnrichmentResult) error
}

// ReachabilityChecker answers whether an External or Local image can be served.
type ReachabilityChecker interface {
	CheckReachable(ctx context.Context, ref ImageReference) (bool, error)
}
