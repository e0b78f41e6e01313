package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
	"github.com/ather123970/aalacomputer-sub003/internal/usecase"
)

const (
	serviceName    = "aalacomputer-normalize"
	serviceVersion = "1.0.0"

	// maxPreviewProducts bounds a single preview request.
	maxPreviewProducts = 1000
)

// ProductReader is the slice of the product store the API needs.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*domain.ProductRecord, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	pipeline *usecase.Pipeline
	products ProductReader
	verifier *usecase.ImageVerifier
	workers  int
	logger   *zap.Logger
}

// HandlerOptions carries the optional collaborators. A nil Products disables
// the stored-product endpoint; a nil Verifier disables reachability checks.
type HandlerOptions struct {
	Products ProductReader
	Verifier *usecase.ImageVerifier
	Workers  int
}

// NewHandler creates a new HTTP handler
func NewHandler(pipeline *usecase.Pipeline, opts HandlerOptions, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Handler{
		pipeline: pipeline,
		products: opts.Products,
		verifier: opts.Verifier,
		workers:  opts.Workers,
		logger:   logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"service":          serviceName,
		"version":          serviceVersion,
		"rulebook_version": h.pipeline.Tables().Version,
	})
}

// PreviewRequest is the body of POST /api/v1/enrichment/preview.
type PreviewRequest struct {
	Products []domain.ProductRecord `json:"products"`
}

// PreviewEnrichment runs the pipeline over the posted records and returns the
// changeset without writing anything.
func (h *Handler) PreviewEnrichment(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "products must not be empty"})
		return
	}
	if len(req.Products) > maxPreviewProducts {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many products in one request"})
		return
	}

	changeset, err := h.pipeline.BuildChangeset(c.Request.Context(), req.Products, h.workers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, changeset)
}

// ResolveImageRequest is the body of POST /api/v1/images/resolve.
type ResolveImageRequest struct {
	Value    string `json:"value"`
	Category string `json:"category"`
	Verify   bool   `json:"verify"`
}

// ResolveImageResponse describes a resolved image value.
type ResolveImageResponse struct {
	Image     domain.ImageReference `json:"image"`
	Fallback  string                `json:"fallback,omitempty"`
	Reachable *bool                 `json:"reachable,omitempty"`
	Cached    bool                  `json:"cached,omitempty"`
}

// ResolveImage classifies a raw image value. The reachability check only runs
// when the caller asks for it.
func (h *Handler) ResolveImage(c *gin.Context) {
	var req ResolveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ref := usecase.ResolveImage(req.Value)
	resp := ResolveImageResponse{Image: ref}
	if ref.Kind == domain.ImageMissing {
		resp.Fallback = h.pipeline.Tables().Fallbacks.FallbackFor(req.Category)
	}

	if req.Verify {
		if h.verifier == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "image verification not configured"})
			return
		}
		reachable, cached, err := h.verifier.VerifyReachable(c.Request.Context(), ref)
		if err != nil {
			h.respondError(c, err)
			return
		}
		resp.Reachable = &reachable
		resp.Cached = cached
	}

	c.JSON(http.StatusOK, resp)
}

// GetProductEnrichment previews the proposal for one stored product.
func (h *Handler) GetProductEnrichment(c *gin.Context) {
	if h.products == nil {
		h.respondError(c, domain.ErrStoreUnavailable)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.pipeline.Enrich(*product))
}

// respondError maps domain errors onto status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusNotImplemented
	case errors.Is(err, domain.ErrReachabilityCheck):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
