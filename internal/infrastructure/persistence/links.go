package persistence

import (
	"context"

	"gorm.io/gorm"
)

// linkRow is one (owner, target) pair of an ordered link table
type linkRow struct {
	OwnerID  int64
	TargetID int64
}

// loadLinks reads an ordered link table for several owners at once
func loadLinks[M any](ctx context.Context, db *gorm.DB, ownerCol, targetCol string, ownerIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(ownerIDs))
	if len(ownerIDs) == 0 {
		return out, nil
	}
	var rows []linkRow
	err := db.WithContext(ctx).Model(new(M)).
		Select(ownerCol+" AS owner_id, "+targetCol+" AS target_id").
		Where(ownerCol+" IN ?", ownerIDs).
		Order(ownerCol + ", position").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError("load links", err)
	}
	for _, row := range rows {
		out[row.OwnerID] = append(out[row.OwnerID], row.TargetID)
	}
	return out, nil
}

// replaceLinks rewrites the link rows of one owner
func replaceLinks[M any](ctx context.Context, db *gorm.DB, ownerCol string, ownerID int64, rows []M) error {
	if err := db.WithContext(ctx).Where(ownerCol+" = ?", ownerID).Delete(new(M)).Error; err != nil {
		return translateError("clear links", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return translateError("write links", err)
	}
	return nil
}

// ownerIDs collects the ids of a page of models for link loading
func ownerIDs[T any](items []T, id func(*T) int64) []int64 {
	ids := make([]int64, len(items))
	for k := range items {
		ids[k] = id(&items[k])
	}
	return ids
}
