package shared

// ListFilters is the common filter envelope for masterdata listings.
type ListFilters struct {
	Search  string
	Page    int
	Limit   int
	SortBy  string
	SortDir string
}
