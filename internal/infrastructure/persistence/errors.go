package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/gemerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver and GORM errors onto the domain taxonomy.
// Domain errors pass through untouched; anything unrecognised is wrapped with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, shared.ErrAlreadyExists)
	case isConnectionError(err):
		return fmt.Errorf("%s: %w: %v", op, shared.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// notFound maps a missing row to a not-found error naming the entity
func notFound(entity string, id any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, id)
	}
	return translateError("find "+entity, err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// expectRows turns an update that touched no rows into a write failure
func expectRows(result *gorm.DB, format string, args ...any) error {
	if result.Error != nil {
		return translateError(fmt.Sprintf(format, args...), result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewWriteFailedError(format+" affected no rows", args...)
	}
	return nil
}

// checkVersionedWrite inspects a version-guarded update. No rows means the row
// either moved on since it was read or does not exist.
func checkVersionedWrite(ctx context.Context, db *gorm.DB, result *gorm.DB, model any, entity string, id int64) error {
	if result.Error != nil {
		return translateError("save "+entity, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError("save "+entity, err)
	}
	if count > 0 {
		return fmt.Errorf("save %s %d: %w", entity, id, shared.ErrConcurrencyConflict)
	}
	return shared.NewWriteFailedError("save %s %d affected no rows", entity, id)
}
