package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"tessera/internal/cache"
	"tessera/internal/logger"
	"tessera/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Ctx key and helpers for the authenticated scanner id
// Using unexported type to avoid collisions

type ctxKey string

const scannerIDKey ctxKey = "scanner_id"

func ContextWithScannerID(ctx context.Context, scannerID string) context.Context {
	return context.WithValue(ctx, scannerIDKey, scannerID)
}

func ScannerIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(scannerIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// RequestID attaches a request id to the context and response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.NewRequestID()
		}

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// Logger logs completed requests; only failures are logged at error level.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		scannerID, exists := c.Get("scanner_id")

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		if exists {
			logFields = append(logFields, "scanner_id", scannerID)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			slog.Error("Request completed with error", logFields...)
		}
	}
}

// Metrics records per-route latency. The route template is used, not the raw
// path, so ids do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// ScannerAuth authenticates gate devices by HTTP Basic Auth against the
// Valkey credential hash. The username is the scanner id.
func ScannerAuth(valkeyClient *cache.ValkeyClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		scannerID, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		verified, err := valkeyClient.VerifyScanner(c.Request.Context(), scannerID, password)
		if err != nil {
			slog.Error("Scanner auth lookup failed", "error", err, "scanner_id", scannerID)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Auth backend unavailable"})
			return
		}
		if !verified {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		c.Set("scanner_id", scannerID)
		c.Request = c.Request.WithContext(ContextWithScannerID(c.Request.Context(), scannerID))

		c.Next()
	}
}
