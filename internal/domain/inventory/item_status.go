package inventory

import (
	"strings"

	"github.com/gemerp/backend/internal/domain/shared"
)

// ItemStatus is the lifecycle label of an item.
// The set is closed; labels outside it are rejected at the boundary.
type ItemStatus string

const (
	StatusInStock         ItemStatus = "In Stock"
	StatusWithSalesPerson ItemStatus = "With Sales Person"
	StatusWithPreformer   ItemStatus = "With Preformer"
	StatusWithCP          ItemStatus = "With C&P"
	StatusWithElectricT   ItemStatus = "With Electric T"
	StatusWithHeatT       ItemStatus = "With Heat T"
	StatusCP              ItemStatus = "C&P"
	StatusPreformed       ItemStatus = "Preformed"
	StatusHeatTreated     ItemStatus = "Heat Treated"
	StatusAddedToLot      ItemStatus = "Added to a lot"
	StatusSold            ItemStatus = "Sold"
)

// workingStatuses are held while the stone is still owned and movable
var workingStatuses = []ItemStatus{
	StatusInStock,
	StatusWithSalesPerson,
	StatusWithPreformer,
	StatusWithCP,
	StatusWithElectricT,
	StatusWithHeatT,
	StatusCP,
	StatusPreformed,
	StatusHeatTreated,
}

// terminalStatuses end the item's own lifecycle
var terminalStatuses = []ItemStatus{
	StatusAddedToLot,
	StatusSold,
}

// transitions lists, for every status, the statuses it may move to.
// A working stone can be handed to any processor, returned, sold or folded into a lot.
// Terminal statuses only accept a re-write of themselves.
var transitions = buildTransitions()

func buildTransitions() map[ItemStatus]map[ItemStatus]bool {
	all := append(append([]ItemStatus{}, workingStatuses...), terminalStatuses...)
	t := make(map[ItemStatus]map[ItemStatus]bool, len(all))
	for _, from := range workingStatuses {
		t[from] = make(map[ItemStatus]bool, len(all))
		for _, to := range all {
			t[from][to] = true
		}
	}
	for _, from := range terminalStatuses {
		t[from] = map[ItemStatus]bool{from: true}
	}
	return t
}

// AllStatuses returns every known status label
func AllStatuses() []ItemStatus {
	return append(append([]ItemStatus{}, workingStatuses...), terminalStatuses...)
}

// IsValid reports whether the status is part of the closed set
func (s ItemStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether the item lifecycle has ended
func (s ItemStatus) IsTerminal() bool {
	return s == StatusSold || s == StatusAddedToLot
}

// CanTransitionTo reports whether moving to next is allowed
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	allowed, ok := transitions[s]
	if !ok {
		return false
	}
	return allowed[next]
}

// String returns the label
func (s ItemStatus) String() string {
	return string(s)
}

// ParseItemStatus validates a caller-supplied label
func ParseItemStatus(raw string) (ItemStatus, error) {
	s := ItemStatus(strings.TrimSpace(raw))
	if !s.IsValid() {
		return "", shared.NewValidationError("unknown item status %q", raw)
	}
	return s, nil
}

// HolderRole names the customer link an item is "with" while out for work
type HolderRole string

const (
	RolePerformer   HolderRole = "performer"
	RoleCutPolisher HolderRole = "cp_by"
	RoleElectricT   HolderRole = "et_by"
	RoleHeatT       HolderRole = "ht_by"
	RoleBearer      HolderRole = "bearer"
)

// holderStatus maps a role to the status an item carries while held in that role
var holderStatus = map[HolderRole]ItemStatus{
	RolePerformer:   StatusWithPreformer,
	RoleCutPolisher: StatusWithCP,
	RoleElectricT:   StatusWithElectricT,
	RoleHeatT:       StatusWithHeatT,
	RoleBearer:      StatusWithSalesPerson,
}

// Status returns the status an item has while held in this role
func (r HolderRole) Status() (ItemStatus, bool) {
	s, ok := holderStatus[r]
	return s, ok
}

// ParseHolderRole validates a role name
func ParseHolderRole(raw string) (HolderRole, error) {
	r := HolderRole(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := holderStatus[r]; !ok {
		return "", shared.NewValidationError("unknown holder role %q", raw)
	}
	return r, nil
}
