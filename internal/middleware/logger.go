package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cleanteam/internal/logger"
)

const (
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey = "logger"
	// TeamParam is the route parameter carrying the team id
	TeamParam = "teamId"
)

// Logger stores a request-scoped logger tagged with the request id and, on
// team routes, the team id. It logs one line per request: health probes at
// debug, server errors at error, client errors at warn.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := log.WithRequestID(GetRequestID(c))
		if teamID := c.Param(TeamParam); teamID != "" {
			requestLogger = requestLogger.WithTeam(teamID)
		}
		c.Set(LoggerKey, requestLogger)

		c.Next()

		// Staff identity may have replaced the logger further down the chain.
		if scoped := GetLogger(c); scoped != nil {
			requestLogger = scoped
		}

		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if len(c.Request.URL.RawQuery) > 0 {
			fields["query"] = c.Request.URL.RawQuery
		}
		if status >= 400 && len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			requestLogger.Error("Request completed with server error", nil, fields)
		case status >= 400:
			requestLogger.Warn("Request completed with client error", fields)
		case strings.HasPrefix(c.Request.URL.Path, "/health"):
			requestLogger.Debug("Health probe completed", fields)
		default:
			requestLogger.Info("Request completed", fields)
		}
	}
}

// GetLogger retrieves the logger from the Gin context.
// Returns nil if not found.
func GetLogger(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(LoggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return nil
}
