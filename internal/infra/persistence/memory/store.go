// Package memory provides the in-memory transactional suggestion store. It is
// the single source of truth at runtime; durable slots only ever receive
// snapshots of it.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mskboard/pkg/domain"
)

type (
	// Employee aliases domain.Employee for in-memory persistence operations.
	Employee = domain.Employee
	// Suggestion aliases domain.Suggestion.
	Suggestion = domain.Suggestion
	// AdminUser aliases domain.AdminUser.
	AdminUser = domain.AdminUser
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// ErrDuplicateID is returned when an insertion would reuse an existing id.
type ErrDuplicateID struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrDuplicateID) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.ID)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides the generator used for suggestions inserted without an id.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithViolationReporter registers fn to receive non-blocking rule violations
// from committed transactions.
func WithViolationReporter(fn func(context.Context, Result)) Option {
	return func(s *Store) {
		s.report = fn
	}
}

// NewSuggestionID returns a time-ordered suggestion identifier.
func NewSuggestionID() string {
	return "sug-" + uuid.Must(uuid.NewV7()).String()
}

// Store provides an in-memory transactional store for suggestions.
type Store struct {
	mu        sync.RWMutex
	state     domain.State
	engine    *RulesEngine
	nowFn     func() time.Time
	newID     func() string
	observers []domain.StateObserver
	report    func(context.Context, Result)
	hydrated  bool
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  domain.NewState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		newID:  NewSuggestionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers an observer notified after each committed transition
// touching persisted fields.
func (s *Store) Subscribe(observer domain.StateObserver) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Hydrate imports snapshot the first time it is called and reports whether it did.
func (s *Store) Hydrate(snapshot domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated {
		return false
	}
	s.hydrated = true
	s.state = snapshot.State()
	return true
}

type transaction struct {
	store     *Store
	state     domain.State
	changes   []Change
	now       time.Time
	persisted bool
}

// RunInTransaction applies fn to a private copy of the state and swaps it in
// only when fn succeeds and no blocking rule fires. Concurrent readers see the
// state before or after the transaction, never in between.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.Clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	if s.report != nil && len(result.Violations) > 0 {
		s.report(ctx, result)
	}
	if tx.persisted {
		for _, observer := range s.observers {
			observer.StateChanged(ctx, s.state.Snapshot())
		}
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.Clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// State returns a deep copy of the full state, transient flags included.
func (s *Store) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Suggestions returns the suggestions in insertion order.
func (s *Store) Suggestions() []Suggestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSuggestions(s.state.Suggestions)
}

// Employees returns the employees in insertion order.
func (s *Store) Employees() []Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Employee, len(s.state.Employees))
	copy(out, s.state.Employees)
	return out
}

// GetSuggestion looks up a suggestion by id.
func (s *Store) GetSuggestion(id string) (Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := indexOfSuggestion(s.state.Suggestions, id)
	if idx < 0 {
		return Suggestion{}, false
	}
	return s.state.Suggestions[idx].Clone(), true
}

// Filters returns the current filter selection.
func (s *Store) Filters() domain.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Filters.Clone()
}

// CurrentUser returns the signed-in administrator, if any.
func (s *Store) CurrentUser() (AdminUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.CurrentUser == nil {
		return AdminUser{}, false
	}
	return s.state.CurrentUser.Clone(), true
}

// InitialiseData populates an empty store from seed and clears the transient
// flags. It is a no-op returning false when either collection already holds data.
func (s *Store) InitialiseData(ctx context.Context, seed domain.Seed) (bool, error) {
	applied := false
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		view := tx.Snapshot()
		if len(view.ListEmployees()) > 0 || len(view.ListSuggestions()) > 0 {
			return nil
		}
		tx.ReplaceEmployees(seed.Employees)
		tx.ReplaceSuggestions(seed.Suggestions)
		tx.SetCurrentUser(seed.CurrentUser)
		tx.SetLoading(false)
		tx.SetError("")
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// SetEmployees replaces the employee collection.
func (s *Store) SetEmployees(ctx context.Context, employees []Employee) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.ReplaceEmployees(employees)
		return nil
	})
	return err
}

// SetSuggestions replaces the suggestion collection.
func (s *Store) SetSuggestions(ctx context.Context, suggestions []Suggestion) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.ReplaceSuggestions(suggestions)
		return nil
	})
	return err
}

// AddSuggestion appends a suggestion, assigning an id when blank.
func (s *Store) AddSuggestion(ctx context.Context, suggestion Suggestion) (Suggestion, error) {
	var created Suggestion
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.AddSuggestion(suggestion)
		return err
	})
	return created, err
}

// UpdateSuggestion merges update over the suggestion with id. A status field
// goes through the same transition as UpdateSuggestionStatus, so completing a
// suggestion here stamps dateCompleted. Unknown ids are ignored.
func (s *Store) UpdateSuggestion(ctx context.Context, id string, update domain.SuggestionUpdate) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		mutate := update.Apply
		if update.Status != nil {
			transition := statusMutator(*update.Status, "", tx.Now())
			mutate = func(sg *Suggestion) {
				update.Apply(sg)
				transition(sg)
			}
		}
		tx.UpdateSuggestion(id, mutate)
		return nil
	})
	return err
}

// DeleteSuggestion removes the suggestion with id. Unknown ids are ignored.
func (s *Store) DeleteSuggestion(ctx context.Context, id string) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.DeleteSuggestion(id)
		return nil
	})
	return err
}

// UpdateSuggestionStatus moves one suggestion to status. Notes are replaced
// only when non-empty; dateCompleted is stamped on completion and kept afterwards.
func (s *Store) UpdateSuggestionStatus(ctx context.Context, id string, status domain.SuggestionStatus, notes string) error {
	return s.BulkUpdateStatus(ctx, []string{id}, status, notes)
}

// BulkUpdateStatus applies the status transition to every listed suggestion in
// a single transaction sharing one timestamp.
func (s *Store) BulkUpdateStatus(ctx context.Context, ids []string, status domain.SuggestionStatus, notes string) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		now := tx.Now()
		for _, id := range ids {
			tx.UpdateSuggestion(id, statusMutator(status, notes, now))
		}
		return nil
	})
	return err
}

func statusMutator(status domain.SuggestionStatus, notes string, now time.Time) func(*Suggestion) {
	return func(sg *Suggestion) {
		sg.Status = status
		if status == domain.StatusCompleted {
			completed := now
			sg.DateCompleted = &completed
		}
		if notes != "" {
			sg.Notes = notes
		}
	}
}

// SetFilters shallow-merges patch into the filter selection.
func (s *Store) SetFilters(ctx context.Context, patch domain.FilterPatch) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SetFilters(patch)
		return nil
	})
	return err
}

// ClearFilters empties every filter field.
func (s *Store) ClearFilters(ctx context.Context) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.ClearFilters()
		return nil
	})
	return err
}

// SetCurrentUser replaces the signed-in administrator; nil signs out.
func (s *Store) SetCurrentUser(ctx context.Context, user *AdminUser) error {
	_, err := s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SetCurrentUser(user)
		return nil
	})
	return err
}

// SetLoading toggles the transient busy flag.
func (s *Store) SetLoading(ctx context.Context, loading bool) {
	_, _ = s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SetLoading(loading)
		return nil
	})
}

// SetError records the last user-facing error message; empty clears it.
func (s *Store) SetError(ctx context.Context, message string) {
	_, _ = s.RunInTransaction(ctx, func(tx Transaction) error {
		tx.SetError(message)
		return nil
	})
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
	tx.persisted = true
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// Now is the single instant stamped on every record touched by the transaction.
func (tx *transaction) Now() time.Time {
	return tx.now
}

func (tx *transaction) ReplaceEmployees(employees []Employee) {
	next := make([]Employee, len(employees))
	copy(next, employees)
	for _, e := range next {
		tx.recordChange(Change{Entity: domain.EntityEmployee, Action: domain.ActionCreate, After: e})
	}
	tx.state.Employees = next
	tx.persisted = true
}

func (tx *transaction) ReplaceSuggestions(suggestions []Suggestion) {
	next := cloneSuggestions(suggestions)
	for _, sg := range next {
		tx.recordChange(Change{Entity: domain.EntitySuggestion, Action: domain.ActionCreate, After: sg.Clone()})
	}
	tx.state.Suggestions = next
	tx.persisted = true
}

func (tx *transaction) AddSuggestion(sg Suggestion) (Suggestion, error) {
	if sg.ID == "" {
		sg.ID = tx.store.newID()
	}
	if indexOfSuggestion(tx.state.Suggestions, sg.ID) >= 0 {
		return Suggestion{}, ErrDuplicateID{Entity: domain.EntitySuggestion, ID: sg.ID}
	}
	sg = sg.Clone()
	tx.state.Suggestions = append(tx.state.Suggestions, sg)
	tx.recordChange(Change{Entity: domain.EntitySuggestion, Action: domain.ActionCreate, After: sg.Clone()})
	return sg.Clone(), nil
}

func (tx *transaction) UpdateSuggestion(id string, mutator func(*Suggestion)) bool {
	idx := indexOfSuggestion(tx.state.Suggestions, id)
	if idx < 0 {
		return false
	}
	current := tx.state.Suggestions[idx]
	before := current.Clone()
	if mutator != nil {
		mutator(&current)
	}
	current.ID = before.ID
	current.DateCreated = before.DateCreated
	current.DateUpdated = tx.now
	tx.state.Suggestions[idx] = current
	tx.recordChange(Change{Entity: domain.EntitySuggestion, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return true
}

func (tx *transaction) DeleteSuggestion(id string) bool {
	idx := indexOfSuggestion(tx.state.Suggestions, id)
	if idx < 0 {
		return false
	}
	before := tx.state.Suggestions[idx]
	next := make([]Suggestion, 0, len(tx.state.Suggestions)-1)
	next = append(next, tx.state.Suggestions[:idx]...)
	next = append(next, tx.state.Suggestions[idx+1:]...)
	tx.state.Suggestions = next
	tx.recordChange(Change{Entity: domain.EntitySuggestion, Action: domain.ActionDelete, Before: before})
	return true
}

func (tx *transaction) SetCurrentUser(user *AdminUser) {
	var before any
	if tx.state.CurrentUser != nil {
		before = *tx.state.CurrentUser
	}
	if user == nil {
		tx.state.CurrentUser = nil
		tx.recordChange(Change{Entity: domain.EntityCurrentUser, Action: domain.ActionDelete, Before: before})
		return
	}
	cp := user.Clone()
	tx.state.CurrentUser = &cp
	tx.recordChange(Change{Entity: domain.EntityCurrentUser, Action: domain.ActionUpdate, Before: before, After: cp})
}

func (tx *transaction) SetFilters(patch domain.FilterPatch) {
	before := tx.state.Filters.Clone()
	patch.Apply(&tx.state.Filters)
	tx.recordChange(Change{Entity: domain.EntityFilters, Action: domain.ActionUpdate, Before: before, After: tx.state.Filters.Clone()})
}

func (tx *transaction) ClearFilters() {
	before := tx.state.Filters.Clone()
	tx.state.Filters = domain.NewFilterState()
	tx.recordChange(Change{Entity: domain.EntityFilters, Action: domain.ActionUpdate, Before: before, After: tx.state.Filters.Clone()})
}

func (tx *transaction) SetLoading(loading bool) {
	tx.state.Loading = loading
}

func (tx *transaction) SetError(message string) {
	tx.state.Error = message
}

type transactionView struct {
	state *domain.State
}

func newTransactionView(state *domain.State) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListEmployees() []Employee {
	out := make([]Employee, len(v.state.Employees))
	copy(out, v.state.Employees)
	return out
}

func (v transactionView) ListSuggestions() []Suggestion {
	return cloneSuggestions(v.state.Suggestions)
}

func (v transactionView) FindEmployee(id string) (Employee, bool) {
	for _, e := range v.state.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}

func (v transactionView) FindSuggestion(id string) (Suggestion, bool) {
	idx := indexOfSuggestion(v.state.Suggestions, id)
	if idx < 0 {
		return Suggestion{}, false
	}
	return v.state.Suggestions[idx].Clone(), true
}

func (v transactionView) CurrentUser() (AdminUser, bool) {
	if v.state.CurrentUser == nil {
		return AdminUser{}, false
	}
	return v.state.CurrentUser.Clone(), true
}

func (v transactionView) Filters() domain.FilterState {
	return v.state.Filters.Clone()
}

func indexOfSuggestion(suggestions []Suggestion, id string) int {
	for i := range suggestions {
		if suggestions[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneSuggestions(in []Suggestion) []Suggestion {
	out := make([]Suggestion, len(in))
	for i, sg := range in {
		out[i] = sg.Clone()
	}
	return out
}
