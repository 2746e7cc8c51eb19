package common

import (
	"context"
	"fmt"
	"sort"
)

// Locker serialises workflows on the same records across service replicas.
// Row locks inside the database transaction remain the source of truth; the
// locker only keeps replicas from queueing on the same rows.
type Locker interface {
	// Acquire obtains every key or none. The returned release func is never nil.
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// NoopLocker grants every lock immediately
type NoopLocker struct{}

// Acquire implements Locker
func (NoopLocker) Acquire(context.Context, ...string) (func(), error) {
	return func() {}, nil
}

// ItemLockKey is the lock key for an item
func ItemLockKey(id int64) string {
	return fmt.Sprintf("inventory:item:%d", id)
}

// LedgerLockKey is the lock key for a ledger chain, by root id
func LedgerLockKey(rootID int64) string {
	return fmt.Sprintf("ledger:txn:%d", rootID)
}

// ItemLockKeys returns the sorted, de-duplicated lock keys for several items.
// Sorting keeps concurrent multi-item workflows from deadlocking on each other.
func ItemLockKeys(ids ...int64) []string {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })
	keys := make([]string, 0, len(sorted))
	var prev int64
	for k, id := range sorted {
		if k > 0 && id == prev {
			continue
		}
		keys = append(keys, ItemLockKey(id))
		prev = id
	}
	return keys
}
