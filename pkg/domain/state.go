package domain

// State is the full content of the suggestion store, including the transient
// busy and error flags that are never persisted.
type State struct {
	Employees   []Employee
	Suggestions []Suggestion
	CurrentUser *AdminUser
	Filters     FilterState
	Loading     bool
	Error       string
}

// Snapshot is the persisted subset of State. Its JSON shape is the on-disk
// layout of the durable slot.
type Snapshot struct {
	Employees   []Employee   `json:"employees"`
	Suggestions []Suggestion `json:"suggestions"`
	CurrentUser *AdminUser   `json:"currentUser"`
	Filters     FilterState  `json:"filters"`
}

// NewState returns an empty state with non-nil collections.
func NewState() State {
	return State{
		Employees:   []Employee{},
		Suggestions: []Suggestion{},
		Filters:     NewFilterState(),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := State{
		Employees:   make([]Employee, len(s.Employees)),
		Suggestions: make([]Suggestion, len(s.Suggestions)),
		Filters:     s.Filters.Clone(),
		Loading:     s.Loading,
		Error:       s.Error,
	}
	copy(out.Employees, s.Employees)
	for i, sg := range s.Suggestions {
		out.Suggestions[i] = sg.Clone()
	}
	if s.CurrentUser != nil {
		user := s.CurrentUser.Clone()
		out.CurrentUser = &user
	}
	return out
}

// Snapshot extracts the persisted subset.
func (s State) Snapshot() Snapshot {
	c := s.Clone()
	return Snapshot{
		Employees:   c.Employees,
		Suggestions: c.Suggestions,
		CurrentUser: c.CurrentUser,
		Filters:     c.Filters,
	}
}

// Normalize fills nil collections left behind by older or hand-written payloads.
func (s Snapshot) Normalize() Snapshot {
	if s.Employees == nil {
		s.Employees = []Employee{}
	}
	if s.Suggestions == nil {
		s.Suggestions = []Suggestion{}
	}
	s.Filters = s.Filters.Clone()
	return s
}

// State rebuilds a store state from the snapshot with transient flags cleared.
func (s Snapshot) State() State {
	n := s.Normalize()
	return State{
		Employees:   n.Employees,
		Suggestions: n.Suggestions,
		CurrentUser: n.CurrentUser,
		Filters:     n.Filters,
	}.Clone()
}
