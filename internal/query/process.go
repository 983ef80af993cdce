package query

import "mskboard/pkg/domain"

// Options configures Process. Zero values fall back to the list defaults.
type Options struct {
	Search string
	SortBy SortKey
	Order  SortOrder
}

// DefaultOptions sorts by most recently updated first.
func DefaultOptions() Options {
	return Options{SortBy: SortByDateUpdated, Order: Desc}
}

// Process runs filter, search and sort in that order.
func Process(suggestions []domain.Suggestion, filters domain.FilterState, employees []domain.Employee, opts Options) []domain.Suggestion {
	if opts.SortBy == "" {
		opts.SortBy = SortByDateUpdated
	}
	if opts.Order == "" {
		opts.Order = Desc
	}
	filtered := Filter(suggestions, filters, employees)
	searched := Search(filtered, opts.Search, employees)
	return Sort(searched, opts.SortBy, opts.Order)
}
