package handler

import (
	inventoryapp "github.com/gemerp/backend/internal/application/inventory"
	partnerapp "github.com/gemerp/backend/internal/application/partner"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer endpoints and the per-customer item views
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
	itemService     *inventoryapp.ItemService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService, itemService *inventoryapp.ItemService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, itemService: itemService}
}

// RegisterRoutes mounts the customer routes under /customers
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.POST("", h.Create)
	customers.GET("", h.List)
	customers.GET("/due", h.Due)
	customers.GET("/lookup", h.Lookup)
	customers.GET("/:id", h.GetByID)
	customers.PUT("/:id", h.Update)
	customers.DELETE("/:id", h.Deactivate)
	customers.GET("/:id/items", h.HeldItems)
	customers.GET("/:id/shares", h.SharedItems)
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	customer, err := h.customerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.CustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

func (h *CustomerHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Customer deactivated")
}

func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

func (h *CustomerHandler) List(c *gin.Context) {
	var filter partnerapp.CustomerListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	customers, total, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, customers, total, filter.Page, filter.PageSize)
}

// Lookup resolves a comma-joined id list (?ids=5,7,9) to live customers
func (h *CustomerHandler) Lookup(c *gin.Context) {
	ids, err := inventory.ParseIDs(c.Query("ids"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	customers, err := h.customerService.Lookup(c.Request.Context(), ids)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customers)
}

// Due lists customers past their payment window with money still owed
func (h *CustomerHandler) Due(c *gin.Context) {
	customers, err := h.customerService.DueCustomers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customers)
}

// HeldItems lists the items out with the customer in a role (?role=cp_by)
func (h *CustomerHandler) HeldItems(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	items, err := h.itemService.HeldBy(c.Request.Context(), id, c.Query("role"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// SharedItems lists the items the customer holds a partner share in
func (h *CustomerHandler) SharedItems(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	items, err := h.itemService.SharedWith(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
