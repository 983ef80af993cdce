package domain

import (
	"context"
	"time"
)

// Transaction exposes the state transitions a store must support within an
// atomic scope. Lookups of unknown ids are no-ops rather than errors.
type Transaction interface {
	Snapshot() TransactionView
	Now() time.Time
	ReplaceEmployees([]Employee)
	ReplaceSuggestions([]Suggestion)
	AddSuggestion(Suggestion) (Suggestion, error)
	UpdateSuggestion(id string, mutator func(*Suggestion)) bool
	DeleteSuggestion(id string) bool
	SetCurrentUser(*AdminUser)
	SetFilters(FilterPatch)
	ClearFilters()
	SetLoading(bool)
	SetError(string)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	CurrentUser() (AdminUser, bool)
	Filters() FilterState
}

// StateObserver receives the persisted subset after every committed transition
// that touched it. Observers run while the store's writer lock is held and
// must not call back into the store.
type StateObserver interface {
	StateChanged(ctx context.Context, snapshot Snapshot)
}

// StateObserverFunc adapts a function to StateObserver.
type StateObserverFunc func(ctx context.Context, snapshot Snapshot)

// StateChanged calls f.
func (f StateObserverFunc) StateChanged(ctx context.Context, snapshot Snapshot) {
	f(ctx, snapshot)
}
