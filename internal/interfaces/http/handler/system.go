package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gemerp/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service; the database handle satisfies it
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports the state of the backing services
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// RegisterRoutes mounts /system/info under the API group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/system/info", h.GetSystemInfo)
}

// GetSystemInfo returns the service name, version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health answers 200 when the database responds, 503 otherwise
func (h *SystemHandler) Health(c *gin.Context) {
	if h.db == nil {
		h.Success(c, HealthResponse{Status: "ok", Database: "not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Message: "database unreachable",
			Code:    dto.ErrCodeStorageUnavailable,
			Result:  HealthResponse{Status: "degraded", Database: "down"},
		})
		return
	}
	h.Success(c, HealthResponse{Status: "ok", Database: "up"})
}
