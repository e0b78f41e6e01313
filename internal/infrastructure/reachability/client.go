package reachability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ather123970/aalacomputer-sub003/internal/domain"
)

const (
	defaultTimeout           = 10 * time.Second
	defaultRequestsPerSecond = 5
	defaultBurst             = 10
	defaultMaxRetries        = 3
	defaultUserAgent         = "aalacomputer-normalize/1.0"

	// Bodies are drained up to this size so connections can be reused.
	maxDrainBytes = 64 << 10
)

// errMalformedURL marks a value no request can be built for. It is never retried.
var errMalformedURL = errors.New("malformed image url")

// Config holds configuration for the reachability client
type Config struct {
	// PublicDir is the directory local image paths are served from.
	PublicDir         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	UserAgent         string
}

// Client checks whether image references can actually be served: remote URLs
// over HTTP, local paths against the public directory.
type Client struct {
	httpClient  *http.Client
	publicDir   string
	rateLimiter *rate.Limiter
	maxRetries  int
	userAgent   string
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a new reachability client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		publicDir:   cfg.PublicDir,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:  cfg.MaxRetries,
		userAgent:   cfg.UserAgent,
		backoff:     exponentialBackoff,
		logger:      logger,
	}
}

// exponentialBackoff returns the wait before retrying attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// CheckReachable implements domain.ReachabilityChecker.
func (c *Client) CheckReachable(ctx context.Context, ref domain.ImageReference) (bool, error) {
	switch ref.Kind {
	case domain.ImageMissing:
		return false, nil
	case domain.ImageEmbedded:
		return true, nil
	case domain.ImageLocal:
		return c.checkLocal(ref.CanonicalValue)
	case domain.ImageExternal:
		return c.checkRemote(ctx, ref.CanonicalValue)
	default:
		return false, fmt.Errorf("unknown image kind %q", ref.Kind)
	}
}

// checkLocal resolves a site-relative path under the public directory. The
// path is cleaned as a rooted path so ".." can never escape the directory.
func (c *Client) checkLocal(value string) (bool, error) {
	if c.publicDir == "" {
		return false, errors.New("no public directory configured for local images")
	}

	if i := strings.IndexAny(value, "?#"); i >= 0 {
		value = value[:i]
	}
	rel := path.Clean("/" + value)
	if rel == "/" {
		return false, nil
	}

	info, err := os.Stat(filepath.Join(c.publicDir, filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// checkRemote probes a URL with HEAD, falling back to a one-byte ranged GET
// for servers that refuse HEAD. Server errors and 429 are retried.
func (c *Client) checkRemote(ctx context.Context, url string) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("rate limiter error: %w", err)
		}

		status, err := c.probe(ctx, http.MethodHead, url)
		if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
			status, err = c.probe(ctx, http.MethodGet, url)
		}

		switch {
		case errors.Is(err, errMalformedURL):
			return false, err
		case err != nil:
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			lastErr = err
		case status >= 200 && status < 300:
			return true, nil
		case status == http.StatusTooManyRequests || status >= 500:
			lastErr = fmt.Errorf("status %d", status)
		default:
			// 404, 410, 403 and friends: the image is not servable.
			c.logger.Debug("Image not reachable",
				zap.String("url", url),
				zap.Int("status", status))
			return false, nil
		}

		c.logger.Debug("Retrying reachability check",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		if attempt < c.maxRetries {
			select {
			case <-time.After(c.backoff(attempt)):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
	}

	return false, fmt.Errorf("%s after %d attempts: %w", url, c.maxRetries, lastErr)
}

// probe issues a single request and returns its status code.
func (c *Client) probe(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errMalformedURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return resp.StatusCode, nil
}
