package inventory

import (
	"errors"
	"testing"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestItem(t *testing.T, id int64) *Item {
	t.Helper()
	item, err := NewItem(NewItemParams{
		Type:    TypeRough,
		Subtype: "Blue Sapphire Natural",
		Weight:  decimal.RequireFromString("2.35"),
	})
	require.NoError(t, err)
	item.ID = id
	require.NoError(t, item.AssignCode())
	item.ClearDomainEvents()
	return item
}

func int64Ptr(v int64) *int64 { return &v }

func TestNewItem(t *testing.T) {
	t.Run("creates active in-inventory item", func(t *testing.T) {
		item, err := NewItem(NewItemParams{Type: TypeLots, Subtype: "Lots Mines"})

		require.NoError(t, err)
		assert.True(t, item.IsActive)
		assert.True(t, item.IsInInventory)
		assert.Equal(t, StatusInStock, item.Status)
		assert.Zero(t, item.ID)
		assert.Empty(t, item.Code)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		_, err := NewItem(NewItemParams{Type: "Emerald", Subtype: "Mix"})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects subtype without code format", func(t *testing.T) {
		_, err := NewItem(NewItemParams{Type: TypeRough, Subtype: "Lots Blue"})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects duplicate share holders", func(t *testing.T) {
		_, err := NewItem(NewItemParams{Type: TypeRough, Subtype: "Mix", ShareHolders: []int64{3, 3}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects share above 100", func(t *testing.T) {
		_, err := NewItem(NewItemParams{Type: TypeRough, Subtype: "Mix", SharePercentage: decimal.NewFromInt(101)})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestItem_AssignCode(t *testing.T) {
	item, err := NewItem(NewItemParams{Type: TypeRough, Subtype: "Blue Sapphire Natural"})
	require.NoError(t, err)
	item.ID = 1

	require.NoError(t, item.AssignCode())

	assert.Equal(t, "BSN0001", item.Code)
	require.Len(t, item.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeItemCreated, item.GetDomainEvents()[0].EventType())
}

func TestItem_ChangeStatus(t *testing.T) {
	t.Run("working to holder", func(t *testing.T) {
		item := createTestItem(t, 1)
		require.NoError(t, item.ChangeStatus(StatusWithPreformer))
		assert.Equal(t, StatusWithPreformer, item.Status)
		require.Len(t, item.GetDomainEvents(), 1)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		item := createTestItem(t, 1)
		require.NoError(t, item.ChangeStatus(StatusInStock))
		assert.Empty(t, item.GetDomainEvents())
	})

	t.Run("sold is terminal", func(t *testing.T) {
		item := createTestItem(t, 1)
		require.NoError(t, item.ChangeStatus(StatusSold))
		err := item.ChangeStatus(StatusWithSalesPerson)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, StatusSold, item.Status)
	})

	t.Run("unknown label rejected", func(t *testing.T) {
		item := createTestItem(t, 1)
		err := item.ChangeStatus(ItemStatus("Lost"))
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("manual move cannot reach a terminal status", func(t *testing.T) {
		item := createTestItem(t, 1)
		require.NoError(t, item.MoveTo(StatusWithCP))
		for _, status := range terminalStatuses {
			assert.ErrorIs(t, item.MoveTo(status), shared.ErrInvalidState)
		}
		assert.Equal(t, StatusWithCP, item.Status)

		require.NoError(t, item.ChangeStatus(StatusSold))
		assert.NoError(t, item.MoveTo(StatusSold), "re-writing the current status is a no-op")
	})
}

func TestItemStatus_TransitionTable(t *testing.T) {
	for _, from := range AllStatuses() {
		assert.True(t, from.CanTransitionTo(from), "%s -> itself", from)
		for _, to := range AllStatuses() {
			if from.IsTerminal() && from != to {
				assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
			if !from.IsTerminal() {
				assert.True(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	}
	assert.False(t, ItemStatus("nope").CanTransitionTo(StatusInStock))
}

func TestItem_RecordPurchaseAndSale(t *testing.T) {
	t.Run("purchase mirrors cost and given amount", func(t *testing.T) {
		item := createTestItem(t, 1)
		item.RecordPurchase(decimal.NewFromInt(1000), decimal.NewFromInt(600), int64Ptr(4), "Cash")

		assert.True(t, item.Cost.Equal(decimal.NewFromInt(1000)))
		assert.True(t, item.GivenAmount.Equal(decimal.NewFromInt(600)))
		assert.Equal(t, int64(4), *item.Buyer)
		assert.True(t, item.IsTransaction)
		assert.True(t, item.IsInInventory)
	})

	t.Run("sale mirrors received and due and leaves inventory", func(t *testing.T) {
		item := createTestItem(t, 1)
		item.RecordSale(decimal.NewFromInt(500), decimal.NewFromInt(200), decimal.NewFromInt(300), int64Ptr(8), nil, nil)

		assert.True(t, item.SoldAmount.Equal(decimal.NewFromInt(500)))
		assert.True(t, item.AmountReceived.Equal(decimal.NewFromInt(200)))
		assert.True(t, item.DueAmount.Equal(decimal.NewFromInt(300)))
		assert.False(t, item.IsInInventory)
	})
}

func TestItem_DeriveCutPolished(t *testing.T) {
	source := createTestItem(t, 7)
	source.Cost = decimal.NewFromInt(900)
	source.Status = StatusWithCP
	source.CPColor = "old"

	derived, err := source.DeriveCutPolished(CutPolishParams{
		Subtype:       "Blue Sapphire Heated",
		CPBy:          int64Ptr(3),
		CPColor:       "Royal Blue",
		Shape:         "Oval",
		WeightAfterCP: decimal.RequireFromString("1.10"),
		TotalCost:     decimal.NewFromInt(150),
	})

	require.NoError(t, err)
	assert.Equal(t, TypeCutAndPolished, derived.Type)
	assert.Equal(t, "Blue Sapphire Heated", derived.Subtype)
	assert.Equal(t, int64(7), *derived.ReferenceIDCP)
	assert.Equal(t, "Royal Blue", derived.CPColor)
	assert.Equal(t, StatusInStock, derived.Status)
	assert.Empty(t, derived.Code)
	assert.False(t, derived.IsInInventory)
	assert.True(t, derived.Cost.IsZero())
	assert.True(t, derived.Weight.Equal(source.Weight))
	assert.Equal(t, StatusWithCP, source.Status, "source is not mutated")

	_, err = source.DeriveCutPolished(CutPolishParams{Subtype: "Blue Sapphire Geuda"})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestNewSortedLot(t *testing.T) {
	t.Run("keeps source order", func(t *testing.T) {
		lot, err := NewSortedLot([]int64{5, 7, 9}, SortedLotParams{Subtype: "Lots Blue"})

		require.NoError(t, err)
		assert.Equal(t, TypeSortedLots, lot.Type)
		assert.Equal(t, []int64{5, 7, 9}, lot.LotSources)
		assert.Equal(t, "5,7,9", lot.ReferenceIDLots())
		assert.False(t, lot.IsInInventory)
	})

	t.Run("rejects empty and duplicate sources", func(t *testing.T) {
		_, err := NewSortedLot(nil, SortedLotParams{Subtype: "Lots Blue"})
		assert.True(t, errors.Is(err, shared.ErrValidation))

		_, err = NewSortedLot([]int64{5, 5}, SortedLotParams{Subtype: "Lots Blue"})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestItem_ReleaseAndConsume(t *testing.T) {
	lot, err := NewSortedLot([]int64{5}, SortedLotParams{Subtype: "Lots Mix"})
	require.NoError(t, err)
	lot.ID = 20
	source := createTestItem(t, 5)

	require.NoError(t, lot.Release())
	require.NoError(t, source.Consume(StatusAddedToLot))

	assert.True(t, lot.IsInInventory)
	assert.True(t, lot.IsActive)
	assert.False(t, source.IsInInventory)
	assert.Equal(t, StatusAddedToLot, source.Status)

	sold := createTestItem(t, 6)
	require.NoError(t, sold.ChangeStatus(StatusSold))
	err = sold.Consume(StatusAddedToLot)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestItem_ApplyHeatTreatment(t *testing.T) {
	item := createTestItem(t, 3)
	require.NoError(t, item.ChangeStatus(StatusWithHeatT))

	err := item.ApplyHeatTreatment(HeatTreatmentResult{
		WeightAfterHT:     decimal.RequireFromString("2.10"),
		HTBy:              int64Ptr(9),
		PhotosAfterHTLink: "s3://bucket/ht/3.jpg",
		AfterStatus:       StatusHeatTreated,
	})

	require.NoError(t, err)
	assert.True(t, item.IsHeatTreated)
	assert.True(t, item.WeightAfterHT.Equal(decimal.RequireFromString("2.1")))
	assert.Equal(t, StatusHeatTreated, item.Status)
	assert.Equal(t, int64(9), *item.HTBy)
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs(" 5, 7 ,9 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 7, 9}, ids)
	assert.Equal(t, "5,7,9", JoinIDs(ids))

	ids, err = ParseIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseIDs("5,x")
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestShareValue(t *testing.T) {
	assert.True(t, ShareValue(decimal.NewFromInt(1000), decimal.NewFromInt(25)).Equal(decimal.NewFromInt(250)))
	assert.True(t, ShareValue(decimal.NewFromInt(1000), decimal.Zero).IsZero())
}
