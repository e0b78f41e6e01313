package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// originPattern is one allowed-origin entry. An entry may hold a single '*'
// standing for a non-empty run of characters, as in "http://localhost:*" or
// "https://*.aalacomputer.com".
type originPattern struct {
	prefix   string
	suffix   string
	wildcard bool
}

func parseOriginPattern(entry string) originPattern {
	prefix, suffix, found := strings.Cut(strings.TrimSpace(entry), "*")
	return originPattern{prefix: prefix, suffix: suffix, wildcard: found}
}

func (p originPattern) matches(origin string) bool {
	if !p.wildcard {
		return origin == p.prefix
	}
	return len(origin) > len(p.prefix)+len(p.suffix) &&
		strings.HasPrefix(origin, p.prefix) &&
		strings.HasSuffix(origin, p.suffix)
}

// CORSMiddleware lets the admin dashboard call the preview API from the
// browser. Allowed origins are parsed once; preflights end here with 204.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	patterns := make([]originPattern, 0, len(allowedOrigins))
	for _, entry := range allowedOrigins {
		if strings.TrimSpace(entry) != "" {
			patterns = append(patterns, parseOriginPattern(entry))
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Writer.Header().Add("Vary", "Origin")

		if matchOrigin(origin, patterns) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			h.Set("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func matchOrigin(origin string, patterns []originPattern) bool {
	if origin == "" {
		return false
	}
	for _, p := range patterns {
		if p.matches(origin) {
			return true
		}
	}
	return false
}

// RequestLogger logs each request at DEBUG, or at WARN/ERROR for 4xx/5xx.
// A nil logger disables logging.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}

// RecoveryMiddleware recovers from panics
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
