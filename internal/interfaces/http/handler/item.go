package handler

import (
	"strings"

	inventoryapp "github.com/gemerp/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// ItemHandler handles item lifecycle endpoints
type ItemHandler struct {
	BaseHandler
	itemService *inventoryapp.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(itemService *inventoryapp.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// RegisterRoutes mounts the item routes under /items
func (h *ItemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	items := rg.Group("/items")
	items.POST("", h.Create)
	items.GET("", h.List)
	items.GET("/reference", h.ForReference)
	items.GET("/code/:code", h.GetByCode)
	items.GET("/:id", h.GetByID)
	items.PUT("/:id", h.Update)
	items.PATCH("/:id/status", h.ChangeStatus)
	items.DELETE("/:id", h.Deactivate)
}

// Create takes a stone into inventory, optionally with its Buying deal
func (h *ItemHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)

	item, err := h.itemService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetByID returns one live item
func (h *ItemHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetByCode returns one live item by its human-readable code
func (h *ItemHandler) GetByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		h.BadRequest(c, "Item code is required")
		return
	}
	item, err := h.itemService.GetByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List returns a page of items
func (h *ItemHandler) List(c *gin.Context) {
	var filter inventoryapp.ItemListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	items, total, err := h.itemService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ForReference lists in-inventory items of one type for pickers
func (h *ItemHandler) ForReference(c *gin.Context) {
	items, err := h.itemService.ForReference(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Update edits the descriptive fields of an item
func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.itemService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ChangeStatus moves an item along its lifecycle
func (h *ItemHandler) ChangeStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	item, err := h.itemService.ChangeStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Deactivate soft-deletes an item
func (h *ItemHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Item deactivated")
}
