package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gemerp/backend/internal/infrastructure/config"
	"github.com/gemerp/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Body.String())
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("generates one when missing or oversized", func(t *testing.T) {
		for _, incoming := range []string{"", strings.Repeat("r", MaxRequestIDLength+1)} {
			req := httptest.NewRequest("GET", "/test", nil)
			if incoming != "" {
				req.Header.Set(RequestIDHeader, incoming)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Len(t, w.Body.String(), 36)
			assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
		}
	})
}

func TestOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Operator())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetOperator(c)+"|"+logger.GetOperator(c.Request.Context()))
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(OperatorHeader, "  kamal ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "kamal|kamal", w.Body.String())

	req = httptest.NewRequest("GET", "/test", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "|", w.Body.String())
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("configured origin is echoed", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS(config.HTTPConfig{CORSAllowOrigins: []string{"https://office.gemerp.local"}}))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		req := httptest.NewRequest("OPTIONS", "/test", nil)
		req.Header.Set("Origin", "https://office.gemerp.local")
		req.Header.Set("Access-Control-Request-Method", "GET")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://office.gemerp.local", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin is refused", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS(config.HTTPConfig{CORSAllowOrigins: []string{"https://office.gemerp.local"}}))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "https://evil.example")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("empty list allows all", func(t *testing.T) {
		router := gin.New()
		router.Use(CORS(config.HTTPConfig{}))
		router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
