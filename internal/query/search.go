package query

import (
	"strings"

	"golang.org/x/text/cases"

	"mskboard/pkg/domain"
)

// Search keeps suggestions whose description, notes, or resolved employee
// name contains term, ignoring case. A blank term returns the input as is.
func Search(suggestions []domain.Suggestion, term string, employees []domain.Employee) []domain.Suggestion {
	if strings.TrimSpace(term) == "" {
		return suggestions
	}
	fold := cases.Fold()
	needle := fold.String(term)
	index := employeeIndex(employees)

	out := make([]domain.Suggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if strings.Contains(fold.String(s.Description), needle) ||
			strings.Contains(fold.String(s.Notes), needle) {
			out = append(out, s)
			continue
		}
		if e, ok := index[s.EmployeeID]; ok && strings.Contains(fold.String(e.Name), needle) {
			out = append(out, s)
		}
	}
	return out
}
