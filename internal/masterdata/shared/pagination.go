package shared

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// Offset returns the SQL offset for the filter page.
func (f ListFilters) Offset() int {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	page := f.Page
	if page <= 0 {
		page = DefaultPage
	}
	return (page - 1) * limit
}
