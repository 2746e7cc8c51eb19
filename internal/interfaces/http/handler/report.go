package handler

import (
	"bytes"
	"fmt"
	"net/http"

	reportapp "github.com/gemerp/backend/internal/application/report"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard and the spreadsheet exports
type ReportHandler struct {
	BaseHandler
	dashboard *reportapp.DashboardService
	export    *reportapp.ExportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(dashboard *reportapp.DashboardService, export *reportapp.ExportService) *ReportHandler {
	return &ReportHandler{dashboard: dashboard, export: export}
}

// RegisterRoutes mounts /dashboard and /reports
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)

	reports := rg.Group("/reports")
	reports.GET("/due-transactions.xlsx", h.DueTransactionsXLSX)
	reports.GET("/ledger/:method", h.MethodLedgerXLSX)
}

// Dashboard returns stock counts, trade volume and the cash position
func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// DueTransactionsXLSX downloads overdue deals and their payments
func (h *ReportHandler) DueTransactionsXLSX(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.export.WriteDueTransactions(c.Request.Context(), &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, h.export.DueTransactionsFilename(), &buf)
}

// MethodLedgerXLSX downloads the cash or bank book
func (h *ReportHandler) MethodLedgerXLSX(c *gin.Context) {
	method := c.Param("method")
	var buf bytes.Buffer
	if err := h.export.WriteMethodLedger(c.Request.Context(), method, &buf); err != nil {
		h.HandleError(c, err)
		return
	}
	h.attachment(c, h.export.MethodLedgerFilename(finance.ParsePaymentMethod(method)), &buf)
}

// attachment streams a rendered workbook; rendering happens first so failures still get the envelope
func (h *ReportHandler) attachment(c *gin.Context, filename string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, reportapp.XLSXContentType, buf.Bytes())
}
