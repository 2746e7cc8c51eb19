package handler

import (
	"strconv"

	ledger "github.com/gemerp/backend/internal/application/finance"
	"github.com/gemerp/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// TransactionHandler handles deals and their payments
type TransactionHandler struct {
	BaseHandler
	ledgerService *ledger.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *ledger.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// RegisterRoutes mounts the ledger routes under /transactions
func (h *TransactionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	txns := rg.Group("/transactions")
	txns.POST("", h.Create)
	txns.GET("", h.List)
	txns.GET("/due", h.Due)
	txns.GET("/reference", h.ForReference)
	txns.GET("/method/:method", h.MethodLedger)
	txns.GET("/:id", h.GetByID)
	txns.DELETE("/:id", h.Deactivate)
	txns.POST("/:id/payments", h.AddPayment)

	rg.DELETE("/payments/:id", h.DeletePayment)
}

// Create opens a Buying or Selling deal with its initial payment
func (h *TransactionHandler) Create(c *gin.Context) {
	var req ledger.CreateTransactionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)

	txn, err := h.ledgerService.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// AddPayment records a payment against the root in the path
func (h *TransactionHandler) AddPayment(c *gin.Context) {
	rootID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req ledger.AddPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.CreatedBy = operator(c)

	payment, err := h.ledgerService.AddPayment(c.Request.Context(), rootID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// DeletePayment removes a payment and rolls its amount back off the root and item
func (h *TransactionHandler) DeletePayment(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	root, err := h.ledgerService.DeletePayment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, root)
}

// Deactivate soft-deletes a row; ?cascade=true takes the whole chain
func (h *TransactionHandler) Deactivate(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	cascade := false
	if raw := c.Query("cascade"); raw != "" {
		var err error
		if cascade, err = strconv.ParseBool(raw); err != nil {
			h.BadRequest(c, "Invalid cascade: must be true or false")
			return
		}
	}
	rows, err := h.ledgerService.DeactivateTransaction(c.Request.Context(), id, cascade)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CountResponse{Count: rows})
}

// GetByID returns a row; roots come with their payments
func (h *TransactionHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	deal, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// List returns a page of ledger rows
func (h *TransactionHandler) List(c *gin.Context) {
	var filter ledger.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	rows, total, err := h.ledgerService.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rows, total, filter.Page, filter.PageSize)
}

// Due lists overdue deals with their payments
func (h *TransactionHandler) Due(c *gin.Context) {
	deals, err := h.ledgerService.DueTransactions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deals)
}

// MethodLedger is the cash or bank book
func (h *TransactionHandler) MethodLedger(c *gin.Context) {
	var filter ledger.TransactionListFilter
	if !h.BindQuery(c, &filter) {
		return
	}
	rows, total, err := h.ledgerService.MethodLedger(c.Request.Context(), c.Param("method"), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, rows, total, filter.Page, filter.PageSize)
}

// ForReference lists live roots for pickers
func (h *TransactionHandler) ForReference(c *gin.Context) {
	rows, err := h.ledgerService.TransactionsForReference(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}
