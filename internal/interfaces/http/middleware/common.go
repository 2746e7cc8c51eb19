package middleware

import (
	"strings"
	"time"

	"github.com/gemerp/backend/internal/infrastructure/config"
	"github.com/gemerp/backend/internal/infrastructure/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id in and out
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey is the gin context key of the request id
	RequestIDKey = "request_id"
	// OperatorHeader names the person recorded as CreatedBy on new rows
	OperatorHeader = "X-Operator"
	// OperatorKey is the gin context key of the operator
	OperatorKey = "operator"
	// ErrorCodeKey is the gin context key of the failure code a handler answered with
	ErrorCodeKey = "error_code"

	maxOperatorLength = 100
)

// CORS returns the gin-contrib/cors middleware configured from the http section.
// An empty origin list allows every origin, which suits local development only.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     cfg.CORSAllowMethods,
		AllowHeaders:     cfg.CORSAllowHeaders,
		ExposeHeaders:    []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowMethods) == 0 {
		c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(c.AllowHeaders) == 0 {
		c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", RequestIDHeader, OperatorHeader}
	}
	if len(cfg.CORSAllowOrigins) == 0 || (len(cfg.CORSAllowOrigins) == 1 && cfg.CORSAllowOrigins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowOrigins
	}
	return cors.New(c)
}

// RequestID adds a unique request ID to each request
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// Operator records who is acting, taken from the X-Operator header.
// The value ends up as CreatedBy on new rows and as a log field.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := strings.TrimSpace(c.GetHeader(OperatorHeader))
		if len(operator) > maxOperatorLength {
			operator = operator[:maxOperatorLength]
		}
		if operator != "" {
			c.Set(OperatorKey, operator)
			c.Request = c.Request.WithContext(logger.WithOperator(c.Request.Context(), operator))
		}
		c.Next()
	}
}

// GetOperator returns the operator set by the Operator middleware
func GetOperator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}

// GetRequestID returns the request id set by the RequestID middleware,
// falling back to the incoming header
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(RequestIDHeader)
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

// Secure adds the security headers every JSON API response should carry
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}
