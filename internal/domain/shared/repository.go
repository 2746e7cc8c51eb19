package shared

// Filter carries paging, ordering and free-text search for list queries.
// Column names in OrderBy are checked against a per-table whitelist by the store.
type Filter struct {
	Page     int
	PageSize int // zero returns every row
	OrderBy  string
	OrderDir string
	Search   string
}

// DefaultFilter is page one of twenty, newest first
func DefaultFilter() Filter {
	return Filter{Page: 1, PageSize: 20, OrderBy: "id", OrderDir: "desc"}
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page < 1 || f.PageSize < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
