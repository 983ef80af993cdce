package query

import (
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"mskboard/pkg/domain"
)

// SortKey names a sortable suggestion attribute.
type SortKey string

// Sortable attributes.
const (
	SortByDateCreated SortKey = "dateCreated"
	SortByDateUpdated SortKey = "dateUpdated"
	SortByPriority    SortKey = "priority"
	SortByStatus      SortKey = "status"
	SortByType        SortKey = "type"
)

// SortOrder is asc or desc.
type SortOrder string

// Sort directions.
const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

var priorityRank = map[domain.Priority]int{
	domain.PriorityLow:    1,
	domain.PriorityMedium: 2,
	domain.PriorityHigh:   3,
}

var statusRank = map[domain.SuggestionStatus]int{
	domain.StatusPending:    1,
	domain.StatusInProgress: 2,
	domain.StatusCompleted:  3,
	domain.StatusDismissed:  4,
	domain.StatusOverdue:    5,
}

// SortKeys lists the accepted sort keys.
func SortKeys() []SortKey {
	return []SortKey{SortByDateCreated, SortByDateUpdated, SortByPriority, SortByStatus, SortByType}
}

// ParseSortKey validates a user-supplied key.
func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(raw)
	if !slices.Contains(SortKeys(), key) {
		return "", fmt.Errorf("unknown sort key %q (want one of %v)", raw, SortKeys())
	}
	return key, nil
}

// ParseSortOrder validates a user-supplied direction.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch SortOrder(raw) {
	case Asc, Desc:
		return SortOrder(raw), nil
	default:
		return "", fmt.Errorf("unknown sort order %q (want asc or desc)", raw)
	}
}

// Sort returns a stably sorted copy of suggestions. Unknown keys and values
// outside the ranked enumerations compare equal, so their input order survives.
func Sort(suggestions []domain.Suggestion, key SortKey, order SortOrder) []domain.Suggestion {
	out := slices.Clone(suggestions)
	if out == nil {
		out = []domain.Suggestion{}
	}
	cmp := comparator(key)
	if cmp == nil {
		return out
	}
	if order == Desc {
		asc := cmp
		cmp = func(a, b domain.Suggestion) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

func comparator(key SortKey) func(a, b domain.Suggestion) int {
	switch key {
	case SortByDateCreated:
		return func(a, b domain.Suggestion) int { return a.DateCreated.Compare(b.DateCreated) }
	case SortByDateUpdated:
		return func(a, b domain.Suggestion) int { return a.DateUpdated.Compare(b.DateUpdated) }
	case SortByPriority:
		return func(a, b domain.Suggestion) int { return priorityRank[a.Priority] - priorityRank[b.Priority] }
	case SortByStatus:
		return func(a, b domain.Suggestion) int { return statusRank[a.Status] - statusRank[b.Status] }
	case SortByType:
		c := collate.New(language.English)
		return func(a, b domain.Suggestion) int { return c.CompareString(string(a.Type), string(b.Type)) }
	default:
		return nil
	}
}
