package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gemerp/backend/internal/application/upload"
	"github.com/gemerp/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// UploadHandler stores evidence photos in object storage
type UploadHandler struct {
	BaseHandler
	uploadService *upload.Service
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploadService *upload.Service) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// RegisterRoutes mounts the upload routes under /uploads
func (h *UploadHandler) RegisterRoutes(rg *gin.RouterGroup) {
	uploads := rg.Group("/uploads")
	uploads.POST("/:target/:id", h.UploadPhoto)
	uploads.GET("/url", h.DownloadURL)
}

// UploadPhoto takes a multipart "file" field and links it to the owner.
// Targets: item, cut-polish, heat-treatment.
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	target, err := upload.ParseTarget(c.Param("target"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	ownerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.ValidationError(c, fmt.Errorf("file: %w", err))
		return
	}
	if header.Size > h.uploadService.MaxSize() {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("Photo exceeds %d bytes", h.uploadService.MaxSize()))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable upload")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, h.uploadService.MaxSize()+1))
	if err != nil {
		h.BadRequest(c, "Unreadable upload")
		return
	}

	photo, err := h.uploadService.UploadPhoto(c.Request.Context(), upload.PhotoRequest{
		Target:  target,
		OwnerID: ownerID,
		Data:    data,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, photo)
}

// DownloadURL presigns a stored photo (?key=photos/...)
func (h *UploadHandler) DownloadURL(c *gin.Context) {
	photo, err := h.uploadService.DownloadURL(c.Request.Context(), c.Query("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, photo)
}
