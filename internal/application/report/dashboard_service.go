// Package report serves the read-only projections: the dashboard and the spreadsheet exports.
package report

import (
	"context"
	"time"

	"github.com/gemerp/backend/internal/domain/finance"
	"github.com/gemerp/backend/internal/domain/inventory"
	"github.com/gemerp/backend/internal/domain/report"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DashboardResponse is the whole dashboard in one payload
type DashboardResponse struct {
	Inventory report.InventoryCounts `json:"inventory"`
	Sold      report.SoldCounts      `json:"sold"`
	Volume    report.TradeVolume     `json:"volume"`
	Cash      report.CashPosition    `json:"cash"`
}

// DashboardService aggregates stock, trade volume and cash figures
type DashboardService struct {
	repo   report.DashboardRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repo report.DashboardRepository, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, logger: logger, now: time.Now}
}

// Summary computes every dashboard figure
func (s *DashboardService) Summary(ctx context.Context) (*DashboardResponse, error) {
	start := time.Now()
	inv, err := s.InventoryCounts(ctx)
	if err != nil {
		return nil, err
	}
	sold, err := s.SoldCounts(ctx)
	if err != nil {
		return nil, err
	}
	volume, err := s.TradeVolume(ctx)
	if err != nil {
		return nil, err
	}
	cash, err := s.CashPosition(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("dashboard computed", zap.Duration("elapsed", time.Since(start)))
	return &DashboardResponse{Inventory: *inv, Sold: *sold, Volume: *volume, Cash: *cash}, nil
}

// InventoryCounts counts live in-inventory items per subtype, for each item type
func (s *DashboardService) InventoryCounts(ctx context.Context) (*report.InventoryCounts, error) {
	var out report.InventoryCounts
	targets := []struct {
		itemType inventory.ItemType
		dst      *[]report.SubtypeCount
	}{
		{inventory.TypeRough, &out.Rough},
		{inventory.TypeLots, &out.Lots},
		{inventory.TypeSortedLots, &out.SortedLots},
		{inventory.TypeCutAndPolished, &out.CutAndPolished},
	}
	for _, t := range targets {
		counts, err := s.repo.CountInInventoryBySubtype(ctx, string(t.itemType))
		if err != nil {
			return nil, err
		}
		if counts == nil {
			counts = []report.SubtypeCount{}
		}
		*t.dst = counts
	}
	return &out, nil
}

// SoldCounts counts live sold items per item type
func (s *DashboardService) SoldCounts(ctx context.Context) (*report.SoldCounts, error) {
	var out report.SoldCounts
	targets := []struct {
		itemType inventory.ItemType
		dst      *int64
	}{
		{inventory.TypeRough, &out.Rough},
		{inventory.TypeLots, &out.Lots},
		{inventory.TypeSortedLots, &out.SortedLots},
		{inventory.TypeCutAndPolished, &out.CutAndPolished},
	}
	for _, t := range targets {
		n, err := s.repo.CountSold(ctx, string(t.itemType))
		if err != nil {
			return nil, err
		}
		*t.dst = n
	}
	return &out, nil
}

// TradeVolume sums buy-side and sell-side payments per calendar month since
// January 1 of the previous year. Both years fold into the same twelve buckets.
func (s *DashboardService) TradeVolume(ctx context.Context) (*report.TradeVolume, error) {
	now := s.now()
	since := time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location())
	out := &report.TradeVolume{Since: since, Buy: report.NewMonthlySeries(), Sell: report.NewMonthlySeries()}

	buy, err := s.repo.SumPaymentsByMonth(ctx, report.SideBuy, since)
	if err != nil {
		return nil, err
	}
	for _, m := range buy {
		out.Buy.Add(m.Month, m.Amount)
	}
	sell, err := s.repo.SumPaymentsByMonth(ctx, report.SideSell, since)
	if err != nil {
		return nil, err
	}
	for _, m := range sell {
		out.Sell.Add(m.Month, m.Amount)
	}
	return out, nil
}

// CashPosition totals money out on buys and in on sells, per method, plus expenses
func (s *DashboardService) CashPosition(ctx context.Context) (*report.CashPosition, error) {
	var out report.CashPosition
	targets := []struct {
		side   report.Side
		method finance.PaymentMethod
		dst    *decimal.Decimal
	}{
		{report.SideBuy, finance.MethodCash, &out.BuyCashOut},
		{report.SideSell, finance.MethodCash, &out.SellCashIn},
		{report.SideBuy, finance.MethodBank, &out.BuyBankOut},
		{report.SideSell, finance.MethodBank, &out.SellBankIn},
	}
	for _, t := range targets {
		total, err := s.repo.SumPayments(ctx, t.side, string(t.method))
		if err != nil {
			return nil, err
		}
		*t.dst = total
	}
	expenses, err := s.repo.SumExpenses(ctx)
	if err != nil {
		return nil, err
	}
	out.TotalExpenses = expenses
	out.Settle()
	return &out, nil
}
