package finance

import (
	"strings"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/domain/shared/codegen"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes deal roots from the payments made against them
type TransactionType string

const (
	TypeBuying      TransactionType = "Buying"
	TypeSelling     TransactionType = "Selling"
	TypeBuyPayment  TransactionType = "B Payment"
	TypeSellPayment TransactionType = "S Payment"
)

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeBuying, TypeSelling, TypeBuyPayment, TypeSellPayment:
		return true
	}
	return false
}

// IsRoot reports whether the type opens a deal
func (t TransactionType) IsRoot() bool {
	return t == TypeBuying || t == TypeSelling
}

// IsPayment reports whether the type is a child payment
func (t TransactionType) IsPayment() bool {
	return t == TypeBuyPayment || t == TypeSellPayment
}

// PaymentType returns the payment type for a root type
func (t TransactionType) PaymentType() TransactionType {
	switch t {
	case TypeBuying:
		return TypeBuyPayment
	case TypeSelling:
		return TypeSellPayment
	}
	return ""
}

// PaymentMethod is how money moved
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "Cash"
	MethodBank   PaymentMethod = "Bank"
	MethodCheque PaymentMethod = "Cheque"
)

// ParsePaymentMethod normalises a method label. An empty label defaults to cash;
// known labels are matched case-insensitively and anything else is kept as entered.
func ParsePaymentMethod(raw string) PaymentMethod {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MethodCash
	}
	for _, m := range []PaymentMethod{MethodCash, MethodBank, MethodCheque} {
		if strings.EqualFold(raw, string(m)) {
			return m
		}
	}
	return PaymentMethod(raw)
}

// Transaction is one ledger row. A root (Buying/Selling) opens a deal over an
// item and references itself; payments reference their root.
//
// AmountSettled and DueAmount hold the chain's cumulative figures on every
// active row of the chain, not the row's own movement.
type Transaction struct {
	shared.BaseAggregateRoot
	Code                 string
	Type                 TransactionType
	Reference            int64
	ReferenceTransaction int64
	Amount               decimal.Decimal
	PaymentAmount        decimal.Decimal
	AmountSettled        decimal.Decimal
	DueAmount            decimal.Decimal
	Method               PaymentMethod
	Status               string
	Date                 time.Time
	Customer             *int64
	Bearer               *int64
	ShareHolders         []int64
	SharePercentage      decimal.Decimal
	ShareValue           decimal.Decimal
	OtherShares          string
	Comments             string
	PaymentETAStart      *time.Time
	PaymentETAEnd        *time.Time
	DateFinished         *time.Time
	CreatedBy            string
}

// RootParams holds the values a deal is opened with
type RootParams struct {
	Type            TransactionType
	ItemID          int64
	Amount          decimal.Decimal
	InitialPayment  decimal.Decimal
	Method          PaymentMethod
	Status          string
	Date            time.Time
	Customer        *int64
	Bearer          *int64
	ShareHolders    []int64
	SharePercentage decimal.Decimal
	OtherShares     string
	Comments        string
	PaymentETAStart *time.Time
	PaymentETAEnd   *time.Time
	DateFinished    *time.Time
	CreatedBy       string
}

// NewRootTransaction opens a deal: settled is the initial payment and due the remainder
func NewRootTransaction(p RootParams) (*Transaction, error) {
	if !p.Type.IsRoot() {
		return nil, shared.NewValidationError("transaction type %q cannot open a deal", p.Type)
	}
	if p.ItemID <= 0 {
		return nil, shared.NewValidationError("a deal must reference an item")
	}
	if p.Amount.IsNegative() {
		return nil, shared.NewValidationError("amount cannot be negative")
	}
	if p.InitialPayment.IsNegative() {
		return nil, shared.NewValidationError("initial payment cannot be negative")
	}
	if p.SharePercentage.IsNegative() || p.SharePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewValidationError("share percentage must be between 0 and 100")
	}
	if p.Method == "" {
		p.Method = MethodCash
	}
	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}

	txn := &Transaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              p.Type,
		Reference:         p.ItemID,
		Amount:            p.Amount,
		PaymentAmount:     p.InitialPayment,
		AmountSettled:     p.InitialPayment,
		DueAmount:         p.Amount.Sub(p.InitialPayment),
		Method:            p.Method,
		Status:            p.Status,
		Date:              date,
		Customer:          p.Customer,
		Bearer:            p.Bearer,
		ShareHolders:      p.ShareHolders,
		SharePercentage:   p.SharePercentage,
		OtherShares:       p.OtherShares,
		Comments:          p.Comments,
		PaymentETAStart:   p.PaymentETAStart,
		PaymentETAEnd:     p.PaymentETAEnd,
		DateFinished:      p.DateFinished,
		CreatedBy:         p.CreatedBy,
	}
	if !p.SharePercentage.IsZero() {
		txn.ShareValue = p.Amount.Mul(p.SharePercentage).Div(decimal.NewFromInt(100)).Round(4)
	}
	return txn, nil
}

// IsRoot reports whether this row opens its chain
func (t *Transaction) IsRoot() bool {
	return t.Type.IsRoot()
}

// AssignCode derives the code from the persisted id. A root also becomes
// its own chain reference here, since both need the id.
func (t *Transaction) AssignCode() error {
	code, err := codegen.Generate(codegen.Kind(t.Type), "", t.ID)
	if err != nil {
		return err
	}
	t.Code = code
	if t.IsRoot() {
		t.ReferenceTransaction = t.ID
		t.AddDomainEvent(NewTransactionOpenedEvent(t))
	}
	return nil
}

// PaymentParams holds the values of a payment against a root
type PaymentParams struct {
	Amount    decimal.Decimal
	Method    PaymentMethod
	Status    string
	Date      time.Time
	Customer  *int64
	Bearer    *int64
	Comments  string
	CreatedBy string
}

// RecordPayment applies a payment to the root and returns the payment row,
// which carries the chain's new cumulative settled and due figures.
// Overpayment is accepted and leaves a negative due.
func (t *Transaction) RecordPayment(p PaymentParams) (*Transaction, error) {
	if err := t.ensureOpenRoot(); err != nil {
		return nil, err
	}
	if !p.Amount.IsPositive() {
		return nil, shared.NewValidationError("payment amount must be positive")
	}
	if p.Method == "" {
		p.Method = t.Method
	}
	date := p.Date
	if date.IsZero() {
		date = time.Now()
	}
	customer := p.Customer
	if customer == nil {
		customer = t.Customer
	}
	bearer := p.Bearer
	if bearer == nil {
		bearer = t.Bearer
	}
	status := p.Status
	if status == "" {
		status = t.Status
	}

	t.AmountSettled = t.AmountSettled.Add(p.Amount)
	t.DueAmount = t.DueAmount.Sub(p.Amount)
	t.Status = status
	t.Touch()

	payment := &Transaction{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		Type:                 t.Type.PaymentType(),
		Reference:            t.Reference,
		ReferenceTransaction: t.ID,
		Amount:               t.Amount,
		PaymentAmount:        p.Amount,
		AmountSettled:        t.AmountSettled,
		DueAmount:            t.DueAmount,
		Method:               p.Method,
		Status:               status,
		Date:                 date,
		Customer:             customer,
		Bearer:               bearer,
		Comments:             p.Comments,
		CreatedBy:            p.CreatedBy,
	}
	t.AddDomainEvent(NewPaymentRecordedEvent(t, payment))
	return payment, nil
}

// RevertPayment undoes a payment's effect on the root by delta and soft-deletes the payment.
// Works against the root's current figures, so deletion order does not matter.
func (t *Transaction) RevertPayment(payment *Transaction) error {
	if !t.IsRoot() {
		return shared.NewValidationError("%s is not a deal root", t.Code)
	}
	if !payment.Type.IsPayment() {
		return shared.NewValidationError("%s is not a payment", payment.Code)
	}
	if payment.ReferenceTransaction != t.ID {
		return shared.NewValidationError("payment %s does not belong to %s", payment.Code, t.Code)
	}
	if !payment.IsActive {
		return shared.NewNotFoundError("payment", payment.ID)
	}

	t.AmountSettled = t.AmountSettled.Sub(payment.PaymentAmount)
	t.DueAmount = t.DueAmount.Add(payment.PaymentAmount)
	t.Touch()

	payment.Deactivate()
	payment.AmountSettled = t.AmountSettled
	payment.DueAmount = t.DueAmount

	t.AddDomainEvent(NewPaymentRevertedEvent(t, payment))
	return nil
}

// Deactivate soft-deletes the row
func (t *Transaction) Deactivate() {
	t.BaseEntity.Deactivate()
}

// IsOverdue reports whether an open root is past its payment window
func (t *Transaction) IsOverdue(now time.Time) bool {
	return t.IsActive && t.IsRoot() && t.DueAmount.IsPositive() &&
		t.PaymentETAEnd != nil && t.PaymentETAEnd.Before(now)
}

func (t *Transaction) ensureOpenRoot() error {
	if !t.IsRoot() {
		return shared.NewValidationError("payments can only be made against a Buying or Selling transaction")
	}
	if !t.IsActive {
		return shared.NewInvalidStateError("transaction %s is deactivated", t.Code)
	}
	return nil
}
