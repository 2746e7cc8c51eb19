package finance

import (
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeTransaction = "Transaction"

// Event type constants
const (
	EventTypeTransactionOpened      = "TransactionOpened"
	EventTypePaymentRecorded        = "PaymentRecorded"
	EventTypePaymentReverted        = "PaymentReverted"
	EventTypeTransactionDeactivated = "TransactionDeactivated"
)

// TransactionOpenedEvent is raised when a deal root receives its code
type TransactionOpenedEvent struct {
	shared.BaseDomainEvent
	Code          string          `json:"code"`
	Type          TransactionType `json:"type"`
	ItemID        int64           `json:"item_id"`
	Amount        decimal.Decimal `json:"amount"`
	AmountSettled decimal.Decimal `json:"amount_settled"`
	DueAmount     decimal.Decimal `json:"due_amount"`
}

// NewTransactionOpenedEvent creates a new TransactionOpenedEvent
func NewTransactionOpenedEvent(t *Transaction) *TransactionOpenedEvent {
	return &TransactionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionOpened, AggregateTypeTransaction, t.ID),
		Code:            t.Code,
		Type:            t.Type,
		ItemID:          t.Reference,
		Amount:          t.Amount,
		AmountSettled:   t.AmountSettled,
		DueAmount:       t.DueAmount,
	}
}

// PaymentRecordedEvent is raised when a payment lands on a root
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	RootCode      string          `json:"root_code"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	AmountSettled decimal.Decimal `json:"amount_settled"`
	DueAmount     decimal.Decimal `json:"due_amount"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(root, payment *Transaction) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeTransaction, root.ID),
		RootCode:        root.Code,
		PaymentAmount:   payment.PaymentAmount,
		AmountSettled:   root.AmountSettled,
		DueAmount:       root.DueAmount,
	}
}

// PaymentRevertedEvent is raised when a payment is deleted
type PaymentRevertedEvent struct {
	shared.BaseDomainEvent
	RootCode      string          `json:"root_code"`
	PaymentCode   string          `json:"payment_code"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	AmountSettled decimal.Decimal `json:"amount_settled"`
	DueAmount     decimal.Decimal `json:"due_amount"`
}

// NewPaymentRevertedEvent creates a new PaymentRevertedEvent
func NewPaymentRevertedEvent(root, payment *Transaction) *PaymentRevertedEvent {
	return &PaymentRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReverted, AggregateTypeTransaction, root.ID),
		RootCode:        root.Code,
		PaymentCode:     payment.Code,
		PaymentAmount:   payment.PaymentAmount,
		AmountSettled:   root.AmountSettled,
		DueAmount:       root.DueAmount,
	}
}

// TransactionDeactivatedEvent is raised when a row or a whole chain is retired
type TransactionDeactivatedEvent struct {
	shared.BaseDomainEvent
	Code     string `json:"code"`
	Cascade  bool   `json:"cascade"`
	RowCount int64  `json:"row_count"`
}

// NewTransactionDeactivatedEvent creates a new TransactionDeactivatedEvent
func NewTransactionDeactivatedEvent(t *Transaction, cascade bool, rows int64) *TransactionDeactivatedEvent {
	return &TransactionDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionDeactivated, AggregateTypeTransaction, t.ID),
		Code:            t.Code,
		Cascade:         cascade,
		RowCount:        rows,
	}
}
