package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// XLSXContentType is the media type of the exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const dateLayout = "2006-01-02"

var ledgerHeader = []any{
	"Code", "Type", "Root", "Item", "Date", "Method", "Status",
	"Amount", "Payment", "Settled", "Due", "Customer", "Bearer", "Comments",
}

// ExportService renders ledger projections as XLSX workbooks
type ExportService struct {
	txnRepo finance.TransactionRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates a new ExportService
func NewExportService(txnRepo finance.TransactionRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{txnRepo: txnRepo, logger: logger, now: time.Now}
}

// DueTransactionsFilename names the due-transactions export for the current day
func (s *ExportService) DueTransactionsFilename() string {
	return fmt.Sprintf("due-transactions-%s.xlsx", s.now().Format(dateLayout))
}

// MethodLedgerFilename names the cash or bank book export for the current day
func (s *ExportService) MethodLedgerFilename(method finance.PaymentMethod) string {
	return fmt.Sprintf("%s-ledger-%s.xlsx", method, s.now().Format(dateLayout))
}

// WriteDueTransactions writes every overdue root followed by its live payments
func (s *ExportService) WriteDueTransactions(ctx context.Context, w io.Writer) error {
	roots, err := s.txnRepo.FindOverdue(ctx, s.now())
	if err != nil {
		return err
	}
	rows := make([]finance.Transaction, 0, len(roots))
	for _, root := range roots {
		rows = append(rows, root)
		chain, err := s.txnRepo.FindChain(ctx, root.ID)
		if err != nil {
			return err
		}
		rows = append(rows, chain...)
	}
	s.logger.Info("exporting due transactions", zap.Int("roots", len(roots)), zap.Int("rows", len(rows)))
	return writeLedgerWorkbook(w, "Due", rows)
}

// WriteMethodLedger writes every live row moved by one payment method, oldest first
func (s *ExportService) WriteMethodLedger(ctx context.Context, raw string, w io.Writer) error {
	method := finance.ParsePaymentMethod(raw)
	if method != finance.MethodCash && method != finance.MethodBank {
		return shared.NewValidationError("ledger export supports Cash or Bank, got %q", raw)
	}
	rows, _, err := s.txnRepo.FindAll(ctx, finance.TransactionFilter{
		Filter: shared.Filter{OrderBy: "date", OrderDir: "asc"},
		Method: method,
	})
	if err != nil {
		return err
	}
	s.logger.Info("exporting method ledger", zap.String("method", string(method)), zap.Int("rows", len(rows)))
	return writeLedgerWorkbook(w, string(method), rows)
}

func writeLedgerWorkbook(w io.Writer, sheet string, rows []finance.Transaction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &ledgerHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(ledgerHeader))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for k := range rows {
		cell, err := excelize.CoordinatesToCellName(1, k+2)
		if err != nil {
			return err
		}
		values := ledgerRow(&rows[k])
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return err
	}
	return f.Write(w)
}

func ledgerRow(t *finance.Transaction) []any {
	return []any{
		t.Code,
		string(t.Type),
		t.ReferenceTransaction,
		t.Reference,
		t.Date.Format(dateLayout),
		string(t.Method),
		t.Status,
		money(t.Amount),
		money(t.PaymentAmount),
		money(t.AmountSettled),
		money(t.DueAmount),
		idOrBlank(t.Customer),
		idOrBlank(t.Bearer),
		t.Comments,
	}
}

// money renders a decimal as a spreadsheet number; cents survive the float conversion
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func idOrBlank(id *int64) any {
	if id == nil {
		return ""
	}
	return *id
}
