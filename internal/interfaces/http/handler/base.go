// Package handler holds the gin handlers of the gemstone ERP API. Handlers
// bind requests straight into the application request structs and answer
// with the dto envelope.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/logger"
	"github.com/gemerp/backend/internal/interfaces/http/dto"
	"github.com/gemerp/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, result any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, result any, total int64, page, pageSize int) {
	page, pageSize = pageOrDefault(page, pageSize)
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(result, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, result any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(result))
}

// Message sends a success response that only carries a message
func (h *BaseHandler) Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(message))
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 validation error response with per-field details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}
	c.Set(middleware.ErrorCodeKey, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		middleware.FormatValidationErrors(err),
	))
}

// HandleError converts an error into the failure envelope. Domain errors keep
// their code and message; anything else is logged and hidden behind a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Warn("request failed",
				zap.String("code", code), zap.Error(err))
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("unexpected error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// BindJSON binds the body into obj, answering 400 on failure
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.ValidationError(c, err)
		return false
	}
	return true
}

// BindQuery binds the query string into obj, answering 400 on failure
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.ValidationError(c, err)
		return false
	}
	return true
}

// ParseID reads a positive integer path parameter, answering 400 on failure
func (h *BaseHandler) ParseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		h.BadRequest(c, "Invalid "+name+": must be a positive integer")
		return 0, false
	}
	return id, true
}

// operator returns who is acting on the request, as set by middleware.Operator
func operator(c *gin.Context) string {
	return middleware.GetOperator(c)
}

func pageOrDefault(page, pageSize int) (int, int) {
	def := shared.DefaultFilter()
	if page < 1 {
		page = def.Page
	}
	if pageSize < 1 {
		pageSize = def.PageSize
	}
	return page, pageSize
}
