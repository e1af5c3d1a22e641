package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerKey stores the request-scoped logger in the gin context
const LoggerKey = "request_logger"

// Logger derives a logger carrying the correlation id and actor, makes it
// available to handlers through RequestLogger, and writes one access line per
// request. Server errors log at error, client errors at warn.
func Logger(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := logger
		if id := GetCorrelationID(c); id != "" {
			requestLogger = requestLogger.With("correlation_id", id)
		}
		if actor := c.GetString(ActorKey); actor != "" {
			requestLogger = requestLogger.With("actor", actor)
		}
		if subjects := routeSubjects(c); len(subjects) > 0 {
			requestLogger = requestLogger.With(subjects...)
		}
		c.Set(LoggerKey, requestLogger)

		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}
		status := c.Writer.Status()

		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		requestLogger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", path,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

// subjectParams maps route parameters to the log keys used across services
var subjectParams = []struct{ param, key string }{
	{"number", "ledger_id"},
	{"account", "account_number"},
	{"id", "resource_id"},
}

// routeSubjects names the ledger, account or journal the matched route addresses
func routeSubjects(c *gin.Context) []any {
	var attrs []any
	for _, p := range subjectParams {
		if v := c.Param(p.param); v != "" {
			attrs = append(attrs, p.key, v)
		}
	}
	return attrs
}

// RequestLogger returns the logger set by Logger, or fallback outside it
func RequestLogger(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(LoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return fallback
}
