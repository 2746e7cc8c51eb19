package finance

import (
	"context"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
)

// OpenDeal opens a root transaction over an item locked by the caller's scope
// and mirrors it onto the item. Both rows are written before it returns.
func OpenDeal(ctx context.Context, repos common.TransactionalRepositories, item *inventory.Item, p finance.RootParams) (*finance.Transaction, error) {
	if err := item.EnsureActive(); err != nil {
		return nil, err
	}
	if p.Type == finance.TypeSelling && p.Status == "" {
		p.Status = string(inventory.StatusSold)
	}
	if _, err := dealStatus(p.Status); err != nil {
		return nil, err
	}
	p.ItemID = item.ID

	root, err := finance.NewRootTransaction(p)
	if err != nil {
		return nil, err
	}
	txns := repos.TransactionRepo()
	if err := txns.Create(ctx, root); err != nil {
		return nil, err
	}
	if err := root.AssignCode(); err != nil {
		return nil, err
	}
	if err := txns.Save(ctx, root); err != nil {
		return nil, err
	}

	if err := mirrorRoot(item, root); err != nil {
		return nil, err
	}
	item.ApplyDealTerms(inventory.DealTerms{
		Comments:        root.Comments,
		ShareHolders:    root.ShareHolders,
		SharePercentage: root.SharePercentage,
		OtherShares:     root.OtherShares,
		PaymentETAStart: root.PaymentETAStart,
		PaymentETAEnd:   root.PaymentETAEnd,
		DateFinished:    root.DateFinished,
	})
	if err := repos.ItemRepo().Save(ctx, item); err != nil {
		return nil, err
	}
	return root, nil
}

// mirrorRoot copies a freshly opened root onto the item, including how it was
// paid and the status the deal was opened with
func mirrorRoot(item *inventory.Item, root *finance.Transaction) error {
	switch root.Type {
	case finance.TypeBuying:
		item.RecordPurchase(root.Amount, root.AmountSettled, root.Customer, string(root.Method))
	case finance.TypeSelling:
		soldAt := root.Date
		item.RecordSale(root.Amount, root.AmountSettled, root.DueAmount, root.Customer, root.Bearer, &soldAt)
	}
	return applyDealStatus(item, root.Status)
}

// mirrorChain copies the chain's cumulative figures onto the item after a
// payment was added or removed. parties is the row whose customer and bearer
// the item takes over; nil keeps the item's current parties. status is the one
// sent with the payment; empty leaves the item's status alone.
func mirrorChain(item *inventory.Item, root, parties *finance.Transaction, status string) error {
	var customer, bearer *int64
	if parties != nil {
		customer, bearer = parties.Customer, parties.Bearer
	}
	switch root.Type {
	case finance.TypeBuying:
		item.RecordPurchase(root.Amount, root.AmountSettled, customer, "")
	case finance.TypeSelling:
		item.RecordSale(root.Amount, root.AmountSettled, root.DueAmount, customer, bearer, nil)
	}
	return applyDealStatus(item, status)
}

func applyDealStatus(item *inventory.Item, raw string) error {
	status, err := dealStatus(raw)
	if err != nil {
		return err
	}
	return item.ChangeStatus(status)
}

// dealStatus validates the item status carried by a deal. Empty means unchanged.
func dealStatus(raw string) (inventory.ItemStatus, error) {
	if raw == "" {
		return "", nil
	}
	return inventory.ParseItemStatus(raw)
}
