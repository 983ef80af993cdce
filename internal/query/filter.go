// Package query holds the pure list pipeline applied to the store contents on
// every read: filter, then search, then sort, with stats computed on any input.
package query

import (
	"slices"

	"mskboard/pkg/domain"
)

// Filter keeps the suggestions matching every non-empty field of filters.
// Values inside a field are alternatives. When the employee field is set, a
// suggestion whose employee id resolves to no known employee never matches.
// Input order is preserved and the input slice is not modified.
func Filter(suggestions []domain.Suggestion, filters domain.FilterState, employees []domain.Employee) []domain.Suggestion {
	index := employeeIndex(employees)
	out := make([]domain.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if matchesFilters(s, filters, index) {
			out = append(out, s)
		}
	}
	return out
}

func matchesFilters(s domain.Suggestion, f domain.FilterState, employees map[string]domain.Employee) bool {
	if len(f.Status) > 0 && !slices.Contains(f.Status, string(s.Status)) {
		return false
	}
	if len(f.Type) > 0 && !slices.Contains(f.Type, string(s.Type)) {
		return false
	}
	if len(f.Priority) > 0 && !slices.Contains(f.Priority, string(s.Priority)) {
		return false
	}
	if len(f.Employee) > 0 {
		employee, ok := employees[s.EmployeeID]
		if !ok || !slices.Contains(f.Employee, employee.ID) {
			return false
		}
	}
	return true
}

func employeeIndex(employees []domain.Employee) map[string]domain.Employee {
	index := make(map[string]domain.Employee, len(employees))
	for _, e := range employees {
		if _, seen := index[e.ID]; !seen {
			index[e.ID] = e
		}
	}
	return index
}
