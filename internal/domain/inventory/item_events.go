package inventory

import (
	"github.com/gemerp/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeItem = "Item"

// Event type constants
const (
	EventTypeItemCreated       = "ItemCreated"
	EventTypeItemStatusChanged = "ItemStatusChanged"
)

// ItemCreatedEvent is raised once an item has its code
type ItemCreatedEvent struct {
	shared.BaseDomainEvent
	ItemID  int64    `json:"item_id"`
	Code    string   `json:"code"`
	Type    ItemType `json:"type"`
	Subtype string   `json:"subtype"`
}

// NewItemCreatedEvent creates a new ItemCreatedEvent
func NewItemCreatedEvent(item *Item) *ItemCreatedEvent {
	return &ItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemCreated, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		Code:            item.Code,
		Type:            item.Type,
		Subtype:         item.Subtype,
	}
}

// ItemStatusChangedEvent is raised on every lifecycle transition
type ItemStatusChangedEvent struct {
	shared.BaseDomainEvent
	ItemID int64      `json:"item_id"`
	Code   string     `json:"code"`
	From   ItemStatus `json:"from"`
	To     ItemStatus `json:"to"`
}

// NewItemStatusChangedEvent creates a new ItemStatusChangedEvent
func NewItemStatusChangedEvent(item *Item, from ItemStatus) *ItemStatusChangedEvent {
	return &ItemStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemStatusChanged, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		Code:            item.Code,
		From:            from,
		To:              item.Status,
	}
}
