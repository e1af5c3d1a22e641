package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccessRouter(buf *bytes.Buffer, skip ...string) *gin.Engine {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	router := gin.New()
	router.Use(CorrelationID(), Actor(), Logger(logger, skip...))
	return router
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLoggerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("access line carries request details", func(t *testing.T) {
		var buf bytes.Buffer
		router := newAccessRouter(&buf)
		router.GET("/api/v1/ledgers/:number", func(c *gin.Context) { c.Status(http.StatusOK) })

		req, _ := http.NewRequest(http.MethodGet, "/api/v1/ledgers/7?status_date=2024-06-30", nil)
		req.Header.Set("User-Agent", "test-agent")
		req.Header.Set(CorrelationIDHeader, "corr-1")
		req.Header.Set(ActorHeader, "alice")
		router.ServeHTTP(httptest.NewRecorder(), req)

		line := decodeLogLine(t, &buf)
		assert.Equal(t, "INFO", line["level"])
		assert.Equal(t, "HTTP request", line["msg"])
		assert.Equal(t, "GET", line["method"])
		assert.Equal(t, "/api/v1/ledgers/7?status_date=2024-06-30", line["path"])
		assert.Equal(t, "/api/v1/ledgers/:number", line["route"])
		assert.Equal(t, float64(200), line["status"])
		assert.Equal(t, "test-agent", line["user_agent"])
		assert.Equal(t, "corr-1", line["correlation_id"])
		assert.Equal(t, "alice", line["actor"])
		assert.Equal(t, "7", line["ledger_id"])
		assert.Contains(t, line, "latency")
	})

	statusLevels := []struct {
		status int
		level  string
	}{
		{http.StatusAccepted, "INFO"},
		{http.StatusConflict, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range statusLevels {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf bytes.Buffer
			router := newAccessRouter(&buf)
			router.POST("/journals", func(c *gin.Context) { c.Status(tt.status) })

			req, _ := http.NewRequest(http.MethodPost, "/journals", nil)
			router.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.level, decodeLogLine(t, &buf)["level"])
		})
	}

	t.Run("skipped paths are not logged", func(t *testing.T) {
		var buf bytes.Buffer
		router := newAccessRouter(&buf, "/health")
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, buf.String())
	})

	t.Run("handlers log through the request logger", func(t *testing.T) {
		var buf bytes.Buffer
		router := newAccessRouter(&buf, "/work")
		router.GET("/work", func(c *gin.Context) {
			RequestLogger(c, nil).Info("doing work")
			c.Status(http.StatusOK)
		})

		req, _ := http.NewRequest(http.MethodGet, "/work", nil)
		req.Header.Set(CorrelationIDHeader, "corr-2")
		router.ServeHTTP(httptest.NewRecorder(), req)

		line := decodeLogLine(t, &buf)
		assert.Equal(t, "doing work", line["msg"])
		assert.Equal(t, "corr-2", line["correlation_id"])
		assert.Equal(t, SystemActor, line["actor"])
	})
}

func TestRequestLogger_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fallback := slog.Default()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Same(t, fallback, RequestLogger(c, fallback))
}
