package finance

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/gemerp/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LedgerService runs the deal and payment workflows. Every workflow locks the
// chain (and, when opening a deal, the item), then reads the rows FOR UPDATE
// inside one transaction scope so the root, its payments and the item mirror
// always move together.
type LedgerService struct {
	txnRepo        finance.TransactionRepository
	scope          common.TransactionScope
	locker         common.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// LedgerServiceOption is a functional option for configuring LedgerService
type LedgerServiceOption func(*LedgerService)

// WithLedgerLocker sets the distributed locker used before a workflow opens its transaction
func WithLedgerLocker(locker common.Locker) LedgerServiceOption {
	return func(s *LedgerService) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithLedgerEventPublisher sets the publisher that receives committed domain events
func WithLedgerEventPublisher(publisher shared.EventPublisher) LedgerServiceOption {
	return func(s *LedgerService) {
		s.eventPublisher = publisher
	}
}

// WithLedgerLogger sets the logger
func WithLedgerLogger(logger *zap.Logger) LedgerServiceOption {
	return func(s *LedgerService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// withLedgerClock overrides the clock used for overdue checks
func withLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *LedgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(txnRepo finance.TransactionRepository, scope common.TransactionScope, opts ...LedgerServiceOption) *LedgerService {
	s := &LedgerService{
		txnRepo: txnRepo,
		scope:   scope,
		locker:  common.NoopLocker{},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTransaction opens a Buying or Selling deal over an item and mirrors it onto the item
func (s *LedgerService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (_ *TransactionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "create_transaction", "item_id", req.ItemID, "type", req.Type)
	defer func() { telemetry.End(span, err) }()

	params, err := rootParams(req)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, common.ItemLockKey(req.ItemID))
	if err != nil {
		return nil, err
	}
	defer release()

	var root *finance.Transaction
	events := &common.EventCollector{}
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, req.ItemID)
		if err != nil {
			return err
		}
		root, err = OpenDeal(ctx, repos, item, params)
		if err != nil {
			return err
		}
		events.Collect(root, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("deal opened",
		zap.Int64("transaction_id", root.ID),
		zap.String("code", root.Code),
		zap.Int64("item_id", root.Reference),
		zap.String("amount", root.Amount.String()),
		zap.String("due_amount", root.DueAmount.String()),
	)
	resp := ToTransactionResponse(root)
	return &resp, nil
}

// AddPayment records a payment against a root and pushes the new cumulative
// settled and due figures onto every live row of the chain and onto the item
func (s *LedgerService) AddPayment(ctx context.Context, rootID int64, req AddPaymentRequest) (_ *PaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "add_payment", "root_id", rootID)
	defer func() { telemetry.End(span, err) }()

	release, err := s.locker.Acquire(ctx, common.LedgerLockKey(rootID))
	if err != nil {
		return nil, err
	}
	defer release()

	var root, payment *finance.Transaction
	events := &common.EventCollector{}
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		txns := repos.TransactionRepo()
		root, err = txns.FindByIDForUpdate(ctx, rootID)
		if err != nil {
			return err
		}
		if !root.IsActive {
			return shared.NewNotFoundError("transaction", rootID)
		}
		if _, err := dealStatus(req.Status); err != nil {
			return err
		}
		payment, err = root.RecordPayment(finance.PaymentParams{
			Amount:    req.Amount,
			Method:    methodOrEmpty(req.Method),
			Status:    req.Status,
			Date:      timeOrZero(req.Date),
			Customer:  req.Customer,
			Bearer:    req.Bearer,
			Comments:  req.Comments,
			CreatedBy: req.CreatedBy,
		})
		if err != nil {
			return err
		}

		if err := txns.Create(ctx, payment); err != nil {
			return err
		}
		if err := payment.AssignCode(); err != nil {
			return err
		}
		if err := txns.Save(ctx, payment); err != nil {
			return err
		}
		if err := txns.Save(ctx, root); err != nil {
			return err
		}
		if err := s.pushChain(ctx, repos, root); err != nil {
			return err
		}

		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, root.Reference)
		if err != nil {
			return err
		}
		if err := mirrorChain(item, root, payment, req.Status); err != nil {
			return err
		}
		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}
		events.Collect(root, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("payment recorded",
		zap.Int64("transaction_id", root.ID),
		zap.String("code", root.Code),
		zap.String("payment_code", payment.Code),
		zap.String("payment_amount", payment.PaymentAmount.String()),
		zap.String("amount_settled", root.AmountSettled.String()),
		zap.String("due_amount", root.DueAmount.String()),
	)
	return &PaymentResponse{
		Payment: ToTransactionResponse(payment),
		Root:    ToTransactionResponse(root),
	}, nil
}

// DeletePayment reverses a payment by its own amount and soft-deletes it. The
// reversal is a delta on the root's current figures, so payments can be
// deleted in any order.
func (s *LedgerService) DeletePayment(ctx context.Context, paymentID int64) (_ *TransactionResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "delete_payment", "payment_id", paymentID)
	defer func() { telemetry.End(span, err) }()

	current, err := s.txnRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !current.Type.IsPayment() {
		return nil, shared.NewValidationError("%s is not a payment", current.Code)
	}
	rootID := current.ReferenceTransaction

	release, err := s.locker.Acquire(ctx, common.LedgerLockKey(rootID))
	if err != nil {
		return nil, err
	}
	defer release()

	var root *finance.Transaction
	events := &common.EventCollector{}
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		txns := repos.TransactionRepo()
		root, err = txns.FindByIDForUpdate(ctx, rootID)
		if err != nil {
			return err
		}
		if !root.IsActive {
			return shared.NewNotFoundError("transaction", rootID)
		}
		payment, err := txns.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := root.RevertPayment(payment); err != nil {
			return err
		}
		if err := txns.Save(ctx, payment); err != nil {
			return err
		}
		if err := txns.Save(ctx, root); err != nil {
			return err
		}
		if err := s.pushChain(ctx, repos, root); err != nil {
			return err
		}

		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, root.Reference)
		if err != nil {
			return err
		}
		if err := mirrorChain(item, root, nil, ""); err != nil {
			return err
		}
		if err := repos.ItemRepo().Save(ctx, item); err != nil {
			return err
		}
		events.Collect(root, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	events.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("payment deleted",
		zap.Int64("transaction_id", root.ID),
		zap.Int64("payment_id", paymentID),
		zap.String("amount_settled", root.AmountSettled.String()),
		zap.String("due_amount", root.DueAmount.String()),
	)
	resp := ToTransactionResponse(root)
	return &resp, nil
}

// DeactivateTransaction soft-deletes one row, or with cascade every row of its chain
func (s *LedgerService) DeactivateTransaction(ctx context.Context, id int64, cascade bool) (_ int64, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "deactivate", "transaction_id", id, "cascade", cascade)
	defer func() { telemetry.End(span, err) }()

	txn, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	rootID := txn.ReferenceTransaction

	release, err := s.locker.Acquire(ctx, common.LedgerLockKey(rootID))
	if err != nil {
		return 0, err
	}
	defer release()

	var rows int64
	err = s.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		if cascade {
			rows, err = repos.TransactionRepo().DeactivateChain(ctx, rootID)
		} else {
			rows, err = repos.TransactionRepo().Deactivate(ctx, id)
		}
		if err != nil {
			return err
		}
		if rows == 0 {
			return shared.NewWriteFailedError("transaction %s was not deactivated", txn.Code)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	txn.AddDomainEvent(finance.NewTransactionDeactivatedEvent(txn, cascade, rows))
	events := &common.EventCollector{}
	events.Collect(txn)
	events.Publish(ctx, s.eventPublisher, s.logger)

	s.logger.Info("transaction deactivated",
		zap.Int64("transaction_id", id),
		zap.String("code", txn.Code),
		zap.Bool("cascade", cascade),
		zap.Int64("rows", rows),
	)
	return rows, nil
}

// GetTransaction returns a row; roots come with their live payments
func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (*DealResponse, error) {
	txn, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &DealResponse{TransactionResponse: ToTransactionResponse(txn), Payments: []TransactionResponse{}}
	if txn.IsRoot() {
		chain, err := s.txnRepo.FindChain(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		resp.Payments = ToTransactionResponses(chain)
	}
	return resp, nil
}

// ListTransactions lists live ledger rows
func (s *LedgerService) ListTransactions(ctx context.Context, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	f, err := toTransactionFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.txnRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(rows), total, nil
}

// DueTransactions lists open roots past their payment window, each with its payments
func (s *LedgerService) DueTransactions(ctx context.Context) ([]DealResponse, error) {
	roots, err := s.txnRepo.FindOverdue(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return s.withPayments(ctx, roots)
}

// MethodLedger lists the live roots and payments moved by one method (cash or bank book)
func (s *LedgerService) MethodLedger(ctx context.Context, method string, filter TransactionListFilter) ([]TransactionResponse, int64, error) {
	filter.Method = method
	return s.ListTransactions(ctx, filter)
}

// TransactionsForReference lists live roots for payment pickers
func (s *LedgerService) TransactionsForReference(ctx context.Context) ([]TransactionResponse, error) {
	roots, err := s.txnRepo.FindOpenRoots(ctx)
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(roots), nil
}

func (s *LedgerService) withPayments(ctx context.Context, roots []finance.Transaction) ([]DealResponse, error) {
	out := make([]DealResponse, 0, len(roots))
	for k := range roots {
		chain, err := s.txnRepo.FindChain(ctx, roots[k].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, DealResponse{
			TransactionResponse: ToTransactionResponse(&roots[k]),
			Payments:            ToTransactionResponses(chain),
		})
	}
	return out, nil
}

// pushChain writes the root's cumulative figures onto the root and its live payments
func (s *LedgerService) pushChain(ctx context.Context, repos common.TransactionalRepositories, root *finance.Transaction) error {
	rows, err := repos.TransactionRepo().UpdateChainSettlement(ctx, root.ID, finance.ChainSettlement{
		AmountSettled: root.AmountSettled,
		DueAmount:     root.DueAmount,
		Status:        root.Status,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return shared.NewWriteFailedError("chain of %s was not updated", root.Code)
	}
	return nil
}

func rootParams(req CreateTransactionRequest) (finance.RootParams, error) {
	t := finance.TransactionType(req.Type)
	if !t.IsRoot() {
		return finance.RootParams{}, shared.NewValidationError("transaction type must be Buying or Selling, got %q", req.Type)
	}
	return finance.RootParams{
		Type:            t,
		ItemID:          req.ItemID,
		Amount:          req.Amount,
		InitialPayment:  req.InitialPayment,
		Method:          finance.ParsePaymentMethod(req.Method),
		Status:          req.Status,
		Date:            timeOrZero(req.Date),
		Customer:        req.Customer,
		Bearer:          req.Bearer,
		ShareHolders:    req.ShareHolders,
		SharePercentage: req.SharePercentage,
		OtherShares:     req.OtherShares,
		Comments:        req.Comments,
		PaymentETAStart: req.PaymentETAStart,
		PaymentETAEnd:   req.PaymentETAEnd,
		DateFinished:    req.DateFinished,
		CreatedBy:       req.CreatedBy,
	}, nil
}

func toTransactionFilter(in TransactionListFilter) (finance.TransactionFilter, error) {
	f := finance.TransactionFilter{
		Filter:     listFilter(in.Search, in.Page, in.PageSize, in.OrderBy, in.OrderDir),
		ItemID:     in.ItemID,
		CustomerID: in.CustomerID,
		BearerID:   in.BearerID,
		RootsOnly:  in.RootsOnly,
	}
	if in.Method != "" {
		f.Method = finance.ParsePaymentMethod(in.Method)
	}
	for _, raw := range in.Types {
		t := finance.TransactionType(raw)
		if !t.IsValid() {
			return f, shared.NewValidationError("unknown transaction type %q", raw)
		}
		f.Types = append(f.Types, t)
	}
	return f, nil
}

func listFilter(search string, page, pageSize int, orderBy, orderDir string) shared.Filter {
	f := shared.DefaultFilter()
	f.Search = search
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}

// methodOrEmpty keeps an omitted method empty so the payment inherits the root's
func methodOrEmpty(raw string) finance.PaymentMethod {
	if raw == "" {
		return ""
	}
	return finance.ParsePaymentMethod(raw)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
