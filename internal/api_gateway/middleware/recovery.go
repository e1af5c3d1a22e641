package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery answers a panicking request with a 500 envelope. The request logger
// is preferred so the line keeps the correlation id and route subjects; before
// Logger has run the subjects are added here.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			RequestLogger(c, logger.With(routeSubjects(c)...)).Error("Panic recovered",
				"error", r,
				"route", c.FullPath(),
				"method", c.Request.Method,
				"stack", string(debug.Stack()),
			)

			c.AbortWithStatusJSON(http.StatusInternalServerError, panicBody(GetCorrelationID(c)))
		}()

		c.Next()
	}
}

func panicBody(correlationID string) gin.H {
	body := gin.H{"error": gin.H{
		"code":    "INTERNAL_SERVER_ERROR",
		"message": "An internal server error occurred",
	}}
	if correlationID != "" {
		body["correlation_id"] = correlationID
	}
	return body
}
