// Package domain defines the suggestion-tracking entities, value types, and
// rule evaluation primitives used by mskboard.
package domain

import (
	"slices"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records.
const (
	// EntityEmployee identifies an employee record.
	EntityEmployee EntityType = "employee"
	// EntitySuggestion identifies a suggestion record.
	EntitySuggestion EntityType = "suggestion"
	// EntityCurrentUser identifies the signed-in administrator slot.
	EntityCurrentUser EntityType = "current_user"
	// EntityFilters identifies the list filter selection.
	EntityFilters EntityType = "filters"
)

// RiskLevel captures an employee's assessed MSK risk.
type RiskLevel string

// Risk levels assigned during workstation assessments.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SuggestionType classifies the recommended action.
type SuggestionType string

// Suggestion categories.
const (
	TypeExercise    SuggestionType = "exercise"
	TypeEquipment   SuggestionType = "equipment"
	TypeBehavioural SuggestionType = "behavioural"
	TypeLifestyle   SuggestionType = "lifestyle"
)

// SuggestionStatus tracks where a suggestion sits in its lifecycle.
type SuggestionStatus string

// Lifecycle statuses. New suggestions start as StatusPending.
const (
	StatusPending    SuggestionStatus = "pending"
	StatusInProgress SuggestionStatus = "in_progress"
	StatusCompleted  SuggestionStatus = "completed"
	StatusDismissed  SuggestionStatus = "dismissed"
	StatusOverdue    SuggestionStatus = "overdue"
)

// Priority expresses urgency.
type Priority string

// Priorities in ascending order of urgency.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Source records who raised a suggestion.
type Source string

// Suggestion origins: the VIDA assessment tool or a manual admin entry.
const (
	SourceVida  Source = "vida"
	SourceAdmin Source = "admin"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Permission strings carried on an AdminUser.
const (
	PermissionViewSuggestions   = "view_suggestions"
	PermissionCreateSuggestions = "create_suggestions"
	PermissionUpdateSuggestions = "update_suggestions"
	PermissionDeleteSuggestions = "delete_suggestions"
)

// Statuses lists every declared status in rank order.
func Statuses() []SuggestionStatus {
	return []SuggestionStatus{StatusPending, StatusInProgress, StatusCompleted, StatusDismissed, StatusOverdue}
}

// SuggestionTypes lists every declared suggestion type.
func SuggestionTypes() []SuggestionType {
	return []SuggestionType{TypeExercise, TypeEquipment, TypeBehavioural, TypeLifestyle}
}

// Priorities lists every declared priority in rank order.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Valid reports whether the status is one of the declared values.
func (s SuggestionStatus) Valid() bool { return slices.Contains(Statuses(), s) }

// Valid reports whether the type is one of the declared values.
func (t SuggestionType) Valid() bool { return slices.Contains(SuggestionTypes(), t) }

// Valid reports whether the priority is one of the declared values.
func (p Priority) Valid() bool { return slices.Contains(Priorities(), p) }

// Valid reports whether the source is one of the declared values.
func (s Source) Valid() bool { return s == SourceVida || s == SourceAdmin }

// Valid reports whether the risk level is one of the declared values.
func (r RiskLevel) Valid() bool { return r == RiskLow || r == RiskMedium || r == RiskHigh }

// Employee is a member of staff who can receive suggestions.
type Employee struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Department     string    `json:"department" yaml:"department"`
	RiskLevel      RiskLevel `json:"riskLevel" yaml:"riskLevel"`
	JobTitle       string    `json:"jobTitle" yaml:"jobTitle"`
	Workstation    string    `json:"workstation" yaml:"workstation"`
	LastAssessment time.Time `json:"lastAssessment" yaml:"lastAssessment"`
}

// Suggestion is a recommended MSK-health action assigned to an employee.
type Suggestion struct {
	ID            string           `json:"id" yaml:"id"`
	EmployeeID    string           `json:"employeeId" yaml:"employeeId"`
	Type          SuggestionType   `json:"type" yaml:"type"`
	Description   string           `json:"description" yaml:"description"`
	Status        SuggestionStatus `json:"status" yaml:"status"`
	Priority      Priority         `json:"priority" yaml:"priority"`
	Source        Source           `json:"source" yaml:"source"`
	CreatedBy     string           `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	DateCreated   time.Time        `json:"dateCreated" yaml:"dateCreated"`
	DateUpdated   time.Time        `json:"dateUpdated" yaml:"dateUpdated"`
	DateCompleted *time.Time       `json:"dateCompleted,omitempty" yaml:"dateCompleted,omitempty"`
	Notes         string           `json:"notes" yaml:"notes"`
	EstimatedCost string           `json:"estimatedCost" yaml:"estimatedCost"`
}

// Clone returns a deep copy so callers never share the completion pointer.
func (s Suggestion) Clone() Suggestion {
	if s.DateCompleted != nil {
		completed := *s.DateCompleted
		s.DateCompleted = &completed
	}
	return s
}

// SuggestionUpdate carries the optional fields merged by an update. The id,
// creation timestamp and completion timestamp are not settable here; a status
// change to completed stamps dateCompleted in the store.
type SuggestionUpdate struct {
	EmployeeID    *string
	Type          *SuggestionType
	Description   *string
	Status        *SuggestionStatus
	Priority      *Priority
	Source        *Source
	CreatedBy     *string
	Notes         *string
	EstimatedCost *string
}

// Apply merges the set fields over s.
func (u SuggestionUpdate) Apply(s *Suggestion) {
	if u.EmployeeID != nil {
		s.EmployeeID = *u.EmployeeID
	}
	if u.Type != nil {
		s.Type = *u.Type
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Priority != nil {
		s.Priority = *u.Priority
	}
	if u.Source != nil {
		s.Source = *u.Source
	}
	if u.CreatedBy != nil {
		s.CreatedBy = *u.CreatedBy
	}
	if u.Notes != nil {
		s.Notes = *u.Notes
	}
	if u.EstimatedCost != nil {
		s.EstimatedCost = *u.EstimatedCost
	}
}

// Empty reports whether the update carries no fields.
func (u SuggestionUpdate) Empty() bool {
	return u == SuggestionUpdate{}
}

// AdminUser is the single administrator allowed to manage suggestions.
type AdminUser struct {
	ID          string   `json:"id" yaml:"id"`
	Email       string   `json:"email" yaml:"email"`
	Name        string   `json:"name" yaml:"name"`
	Role        string   `json:"role" yaml:"role"`
	Department  string   `json:"department" yaml:"department"`
	Permissions []string `json:"permissions" yaml:"permissions"`
}

// Clone returns a copy with its own permission slice.
func (u AdminUser) Clone() AdminUser {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}

// HasPermission reports whether the user carries permission.
func (u AdminUser) HasPermission(permission string) bool {
	return slices.Contains(u.Permissions, permission)
}

// HasAnyPermission reports whether at least one of permissions is carried.
func (u AdminUser) HasAnyPermission(permissions ...string) bool {
	for _, p := range permissions {
		if u.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every one of permissions is carried.
func (u AdminUser) HasAllPermissions(permissions ...string) bool {
	for _, p := range permissions {
		if !u.HasPermission(p) {
			return false
		}
	}
	return true
}

// FilterState holds the selected values per list field. Values within a field
// are alternatives; fields combine conjunctively; an empty field is unconstrained.
type FilterState struct {
	Status   []string `json:"status" yaml:"status"`
	Type     []string `json:"type" yaml:"type"`
	Priority []string `json:"priority" yaml:"priority"`
	Employee []string `json:"employee" yaml:"employee"`
}

// NewFilterState returns a filter state with every field empty but non-nil so
// it serializes as empty arrays.
func NewFilterState() FilterState {
	return FilterState{Status: []string{}, Type: []string{}, Priority: []string{}, Employee: []string{}}
}

// Clone returns a copy that shares no backing arrays.
func (f FilterState) Clone() FilterState {
	return FilterState{
		Status:   cloneSet(f.Status),
		Type:     cloneSet(f.Type),
		Priority: cloneSet(f.Priority),
		Employee: cloneSet(f.Employee),
	}
}

// IsEmpty reports whether no field constrains the list.
func (f FilterState) IsEmpty() bool {
	return len(f.Status) == 0 && len(f.Type) == 0 && len(f.Priority) == 0 && len(f.Employee) == 0
}

// FilterPatch is a shallow partial update of FilterState; nil fields are left untouched.
type FilterPatch struct {
	Status   *[]string
	Type     *[]string
	Priority *[]string
	Employee *[]string
}

// Apply merges the set fields over f.
func (p FilterPatch) Apply(f *FilterState) {
	if p.Status != nil {
		f.Status = cloneSet(*p.Status)
	}
	if p.Type != nil {
		f.Type = cloneSet(*p.Type)
	}
	if p.Priority != nil {
		f.Priority = cloneSet(*p.Priority)
	}
	if p.Employee != nil {
		f.Employee = cloneSet(*p.Employee)
	}
}

func cloneSet(values []string) []string {
	if values == nil {
		return []string{}
	}
	return slices.Clone(values)
}

// Seed bundles the records used to populate an empty store.
type Seed struct {
	Employees   []Employee
	Suggestions []Suggestion
	CurrentUser *AdminUser
}

// Action represents the type of mutation performed on an entity.
type Action string

// Supported mutation actions recorded in transaction change logs.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Violation reports a rule outcome.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if any violations block commit.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
