package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveLogged(t *testing.T, level zapcore.Level, status int, mutate func(*http.Request)) *observer.LoggedEntry {
	t.Helper()

	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/stock/products", func(c *gin.Context) {
		c.JSON(status, gin.H{"status": status})
	})

	req := httptest.NewRequest("GET", "/stock/products", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, status, w.Code)

	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			e := entry
			return &e
		}
	}
	return nil
}

func logFields(entry *observer.LoggedEntry) map[string]zapcore.Field {
	fields := make(map[string]zapcore.Field, len(entry.Context))
	for _, f := range entry.Context {
		fields[f.Key] = f
	}
	return fields
}

func TestGinMiddleware(t *testing.T) {
	t.Run("successful request logs at info with core fields", func(t *testing.T) {
		entry := serveLogged(t, zapcore.InfoLevel, http.StatusOK, nil)
		require.NotNil(t, entry)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		fields := logFields(entry)
		assert.Contains(t, fields, "status")
		assert.Contains(t, fields, "latency")
		assert.Contains(t, fields, "client_ip")
		assert.Contains(t, fields, "method")
		assert.Contains(t, fields, "path")
	})

	t.Run("4xx logs at warn", func(t *testing.T) {
		entry := serveLogged(t, zapcore.WarnLevel, http.StatusUnprocessableEntity, nil)
		require.NotNil(t, entry)
		assert.Equal(t, zapcore.WarnLevel, entry.Level)
	})

	t.Run("5xx logs at error", func(t *testing.T) {
		entry := serveLogged(t, zapcore.ErrorLevel, http.StatusInternalServerError, nil)
		require.NotNil(t, entry)
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	})

	t.Run("query string is carried when present", func(t *testing.T) {
		entry := serveLogged(t, zapcore.InfoLevel, http.StatusOK, func(req *http.Request) {
			req.URL.RawQuery = "page=1&page_size=20"
		})
		require.NotNil(t, entry)

		fields := logFields(entry)
		require.Contains(t, fields, "query")
		assert.Contains(t, fields["query"].String, "page=1")
	})

	t.Run("terminal header is carried when present", func(t *testing.T) {
		entry := serveLogged(t, zapcore.InfoLevel, http.StatusOK, func(req *http.Request) {
			req.Header.Set("X-Terminal-ID", "pos-07")
		})
		require.NotNil(t, entry)

		fields := logFields(entry)
		require.Contains(t, fields, "terminal_id")
		assert.Equal(t, "pos-07", fields["terminal_id"].String)
	})

	t.Run("terminal field is absent without the header", func(t *testing.T) {
		entry := serveLogged(t, zapcore.InfoLevel, http.StatusOK, nil)
		require.NotNil(t, entry)
		assert.NotContains(t, logFields(entry), "terminal_id")
	})
}

func TestGinMiddleware_WithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("request_id", "test-req-123")
		c.Next()
	})
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	var entry *observer.LoggedEntry
	for _, e := range recorded.All() {
		if e.Message == "HTTP Request" {
			entry = &e
			break
		}
	}
	require.NotNil(t, entry)
	fields := logFields(entry)
	require.Contains(t, fields, "request_id")
	assert.Equal(t, "test-req-123", fields["request_id"].String)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/panic", nil)

	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0].Message, "Panic recovered")
}

func TestGetGinLogger(t *testing.T) {
	t.Run("returns the request-scoped logger", func(t *testing.T) {
		core, _ := observer.New(zapcore.InfoLevel)

		var retrieved *zap.Logger
		router := gin.New()
		router.Use(GinMiddleware(zap.New(core)))
		router.GET("/test", func(c *gin.Context) {
			retrieved = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.NotNil(t, retrieved)
	})

	t.Run("falls back to a nop logger outside the middleware", func(t *testing.T) {
		var retrieved *zap.Logger
		router := gin.New()
		router.GET("/test", func(c *gin.Context) {
			retrieved = GetGinLogger(c)
			c.JSON(http.StatusOK, gin.H{"message": "ok"})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		require.NotNil(t, retrieved)
		assert.NotPanics(t, func() {
			retrieved.Info("test")
		})
	})
}
