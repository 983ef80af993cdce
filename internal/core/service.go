package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"mskboard/internal/infra/persistence/memory"
	"mskboard/internal/query"
	"mskboard/pkg/domain"
)

// User-facing messages stored in the error slot when an operation fails.
const (
	MsgCreateFailed = "Failed to create suggestion. Please try again."
	MsgUpdateFailed = "Failed to update suggestion. Please try again."
	MsgStatusFailed = "Failed to update suggestion status. Please try again."
	MsgBulkFailed   = "Failed to update suggestions. Please try again."
	MsgDeleteFailed = "Failed to delete suggestion. Please try again."
	MsgFilterFailed = "Failed to update filters. Please try again."
)

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the per-operation metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithClock overrides the clock used for creation timestamps and timings.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLatency delays every mutating operation, emulating a remote round trip.
func WithLatency(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.latency = d
		}
	}
}

// Service wraps the store with the bookkeeping the list and form screens need:
// input validation, id assignment, the loading flag and the error slot.
type Service struct {
	store    *memory.Store
	logger   Logger
	metrics  MetricsRecorder
	clock    Clock
	latency  time.Duration
	validate *validator.Validate
}

// NewService constructs a service backed by the supplied store.
func NewService(store *memory.Store, opts ...ServiceOption) *Service {
	svc := &Service{
		store:    store,
		logger:   noopLogger{},
		metrics:  noopMetrics{},
		clock:    systemClock{},
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// NewInMemoryService creates a service and a fresh store using engine, or the
// default rules when engine is nil.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	svc := NewService(nil, opts...)
	svc.store = memory.NewStore(engine,
		memory.WithClock(svc.clock.Now),
		memory.WithViolationReporter(ViolationReporter(svc.logger)),
	)
	return svc
}

// ViolationReporter logs non-blocking rule violations through logger.
func ViolationReporter(logger Logger) func(context.Context, domain.Result) {
	return func(_ context.Context, res domain.Result) {
		for _, v := range res.Violations {
			logger.Warn("rule violation", "rule", v.Rule, "severity", string(v.Severity), "entity", string(v.Entity), "id", v.EntityID, "message", v.Message)
		}
	}
}

// Store returns the underlying store.
func (s *Service) Store() *memory.Store {
	return s.store
}

// NewSuggestion is the creation form input.
type NewSuggestion struct {
	EmployeeID    string                `json:"employeeId" validate:"required"`
	Type          domain.SuggestionType `json:"type" validate:"required,oneof=exercise equipment behavioural lifestyle"`
	Description   string                `json:"description" validate:"required,min=10"`
	Priority      domain.Priority       `json:"priority" validate:"required,oneof=low medium high"`
	Source        domain.Source         `json:"source" validate:"omitempty,oneof=vida admin"`
	CreatedBy     string                `json:"createdBy"`
	Notes         string                `json:"notes"`
	EstimatedCost string                `json:"estimatedCost"`
}

// ValidationError reports rejected input before any state is touched.
type ValidationError struct {
	Problems []string
	Err      error
}

func (e ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

func (e ValidationError) Unwrap() error { return e.Err }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

func (s *Service) check(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationError{Problems: []string{err.Error()}, Err: err}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			problems = append(problems, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return ValidationError{Problems: problems, Err: err}
}

// run times op, logs its outcome and feeds the metrics recorder.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.clock.Now()
	s.logger.Debug("operation start", "operation", op)
	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err, "duration", elapsed)
		return err
	}
	s.logger.Info("operation complete", "operation", op, "duration", elapsed)
	return nil
}

// mutate brackets fn with the loading flag and records failure in the error slot.
func (s *Service) mutate(ctx context.Context, op, failure string, fn func(context.Context) error) error {
	s.store.SetLoading(ctx, true)
	s.store.SetError(ctx, "")
	defer s.store.SetLoading(ctx, false)

	err := s.run(ctx, op, func(ctx context.Context) error {
		if err := s.wait(ctx); err != nil {
			return err
		}
		return fn(ctx)
	})
	if err != nil {
		s.store.SetError(ctx, failure)
	}
	return err
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// EnsureSeeded populates the store from seed when it holds no data.
func (s *Service) EnsureSeeded(ctx context.Context, seed domain.Seed) (bool, error) {
	var applied bool
	err := s.run(ctx, "initialise_data", func(ctx context.Context) error {
		var err error
		applied, err = s.store.InitialiseData(ctx, seed)
		return err
	})
	return applied, err
}

// CreateSuggestion validates input and appends a new pending suggestion.
func (s *Service) CreateSuggestion(ctx context.Context, input NewSuggestion) (domain.Suggestion, error) {
	input.Description = strings.TrimSpace(input.Description)
	input.Notes = strings.TrimSpace(input.Notes)
	input.EstimatedCost = strings.TrimSpace(input.EstimatedCost)
	if err := s.check(input); err != nil {
		return domain.Suggestion{}, err
	}
	if input.Source == "" {
		input.Source = domain.SourceAdmin
	}
	if input.CreatedBy == "" {
		if user, ok := s.store.CurrentUser(); ok {
			input.CreatedBy = user.Role
		}
	}

	var created domain.Suggestion
	err := s.mutate(ctx, "create_suggestion", MsgCreateFailed, func(ctx context.Context) error {
		now := s.clock.Now()
		var err error
		created, err = s.store.AddSuggestion(ctx, domain.Suggestion{
			EmployeeID:    input.EmployeeID,
			Type:          input.Type,
			Description:   input.Description,
			Status:        domain.StatusPending,
			Priority:      input.Priority,
			Source:        input.Source,
			CreatedBy:     input.CreatedBy,
			DateCreated:   now,
			DateUpdated:   now,
			Notes:         input.Notes,
			EstimatedCost: input.EstimatedCost,
		})
		return err
	})
	return created, err
}

// UpdateSuggestion merges update into the suggestion with id. A status field
// follows the same transition as UpdateStatus.
func (s *Service) UpdateSuggestion(ctx context.Context, id string, update domain.SuggestionUpdate) error {
	if update.Description != nil {
		trimmed := strings.TrimSpace(*update.Description)
		if len([]rune(trimmed)) < 10 {
			return ValidationError{Problems: []string{"description must be at least 10 characters"}}
		}
		update.Description = &trimmed
	}
	if err := checkEnums(update); err != nil {
		return err
	}
	return s.mutate(ctx, "update_suggestion", MsgUpdateFailed, func(ctx context.Context) error {
		return s.store.UpdateSuggestion(ctx, id, update)
	})
}

func checkEnums(update domain.SuggestionUpdate) error {
	var problems []string
	if update.Status != nil && !update.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not recognised", *update.Status))
	}
	if update.Type != nil && !update.Type.Valid() {
		problems = append(problems, fmt.Sprintf("type %q is not recognised", *update.Type))
	}
	if update.Priority != nil && !update.Priority.Valid() {
		problems = append(problems, fmt.Sprintf("priority %q is not recognised", *update.Priority))
	}
	if update.Source != nil && !update.Source.Valid() {
		problems = append(problems, fmt.Sprintf("source %q is not recognised", *update.Source))
	}
	if len(problems) > 0 {
		return ValidationError{Problems: problems}
	}
	return nil
}

// UpdateStatus moves one suggestion to status.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.SuggestionStatus, notes string) error {
	if !status.Valid() {
		return ValidationError{Problems: []string{fmt.Sprintf("status %q is not recognised", status)}}
	}
	return s.mutate(ctx, "update_status", MsgStatusFailed, func(ctx context.Context) error {
		return s.store.UpdateSuggestionStatus(ctx, id, status, strings.TrimSpace(notes))
	})
}

// BulkUpdateStatus moves every listed suggestion to status atomically.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []string, status domain.SuggestionStatus, notes string) error {
	if !status.Valid() {
		return ValidationError{Problems: []string{fmt.Sprintf("status %q is not recognised", status)}}
	}
	return s.mutate(ctx, "bulk_update_status", MsgBulkFailed, func(ctx context.Context) error {
		return s.store.BulkUpdateStatus(ctx, ids, status, strings.TrimSpace(notes))
	})
}

// DeleteSuggestion removes the suggestion with id.
func (s *Service) DeleteSuggestion(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_suggestion", MsgDeleteFailed, func(ctx context.Context) error {
		return s.store.DeleteSuggestion(ctx, id)
	})
}

// SetFilters merges patch into the saved filter selection.
func (s *Service) SetFilters(ctx context.Context, patch domain.FilterPatch) error {
	return s.run(ctx, "set_filters", func(ctx context.Context) error {
		if err := s.store.SetFilters(ctx, patch); err != nil {
			s.store.SetError(ctx, MsgFilterFailed)
			return err
		}
		return nil
	})
}

// ClearFilters resets the saved filter selection.
func (s *Service) ClearFilters(ctx context.Context) error {
	return s.run(ctx, "clear_filters", func(ctx context.Context) error {
		return s.store.ClearFilters(ctx)
	})
}

// ProcessedSuggestions applies the saved filters, then search and sort from opts.
func (s *Service) ProcessedSuggestions(opts query.Options) []domain.Suggestion {
	state := s.store.State()
	return query.Process(state.Suggestions, state.Filters, state.Employees, opts)
}

// Stats summarizes every suggestion in the store.
func (s *Service) Stats() query.Stats {
	return query.SuggestionStats(s.store.Suggestions())
}

// FilteredStats summarizes the suggestions passing the saved filters.
func (s *Service) FilteredStats() query.Stats {
	state := s.store.State()
	return query.SuggestionStats(query.Filter(state.Suggestions, state.Filters, state.Employees))
}

// Suggestion looks up one suggestion.
func (s *Service) Suggestion(id string) (domain.Suggestion, bool) {
	return s.store.GetSuggestion(id)
}

// Employees lists employees in insertion order.
func (s *Service) Employees() []domain.Employee {
	return s.store.Employees()
}

// Employee resolves an employee id.
func (s *Service) Employee(id string) (domain.Employee, bool) {
	for _, e := range s.store.Employees() {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Employee{}, false
}

// Filters returns the saved filter selection.
func (s *Service) Filters() domain.FilterState {
	return s.store.Filters()
}

// LastError returns the message in the error slot, if any.
func (s *Service) LastError() string {
	return s.store.State().Error
}
