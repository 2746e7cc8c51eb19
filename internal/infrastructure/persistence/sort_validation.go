package persistence

import (
	"strings"

	"github.com/gemerp/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// applyFilter applies pagination and whitelisted ordering to a list query
func applyFilter(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	sortField := ValidateSortField(filter.OrderBy, allowed, "id")
	return query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
}

// likePattern builds a case-insensitive contains pattern for use with LOWER(column) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// CommonSortFields contains fields common to every table
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// ItemSortFields contains allowed sort fields for items
var ItemSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"code":          true,
	"item_type":     true,
	"status":        true,
	"weight":        true,
	"cost":          true,
	"sold_amount":   true,
	"due_amount":    true,
	"date_sold":     true,
	"date_finished": true,
}

// TransactionSortFields contains allowed sort fields for ledger rows
var TransactionSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"code":            true,
	"date":            true,
	"amount":          true,
	"payment_amount":  true,
	"due_amount":      true,
	"payment_eta_end": true,
}

// ExpenseSortFields contains allowed sort fields for expenses
var ExpenseSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"date":       true,
	"amount":     true,
	"category":   true,
	"title":      true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"company":    true,
}

// RecordSortFields contains allowed sort fields for processing records
var RecordSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"code":        true,
	"approved_at": true,
}
