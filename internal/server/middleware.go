package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mandolin/internal/shared"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RequestIDHeader carries the per-request id set by [RequestLogger].
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// CORS returns a configured CORS middleware. An empty origin list allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(origins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type"}
	config.ExposeHeaders = []string{RequestIDHeader}

	return cors.New(config)
}

// RequestLogger assigns each request a uuid and logs method, path, status and latency once it completes.
//
// Server errors log at error level, client errors at warn, everything else at info.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = shared.GenerateID()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("request", kv...)
		case status >= 400:
			logger.Warn("request", kv...)
		default:
			logger.Info("request", kv...)
		}
	}
}
