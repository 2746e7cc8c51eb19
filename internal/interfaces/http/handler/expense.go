package handler

import (
	ledger "github.com/gemerp/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles expense endpoints
type ExpenseHandler struct {
	BaseHandler
	expenseService *ledger.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenseService *ledger.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// RegisterRoutes mounts the expense routes under /expenses
func (h *ExpenseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	expenses := rg.Group("/expenses")
	expenses.POST("", h.Create)
	expenses.GET("", h.List)
	expenses.GET("/:id", h.GetByID)
	expenses.PUT("/:id", h.Update)
	expenses.DELETE("/:id", h.Deactivate)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	var req ledger.ExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)
	expense, err := h.expenseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req ledger.ExpenseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	expense, err := h.expenseService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

func (h *ExpenseHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.expenseService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Expense deactivated")
}

func (h *ExpenseHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	expense, err := h.expenseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

func (h *ExpenseHandler) List(c *gin.Context) {
	var filter ledger.ExpenseListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	expenses, total, err := h.expenseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, expenses, total, filter.Page, filter.PageSize)
}
