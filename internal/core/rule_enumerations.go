package core

import (
	"context"
	"fmt"

	"mskboard/pkg/domain"
)

// NewEnumerationRule warns about suggestion fields holding values outside the
// declared enumerations. Such records stay in the store but never match a
// filter or rank in a sort.
func NewEnumerationRule() domain.Rule {
	return enumerationRule{}
}

type enumerationRule struct{}

func (enumerationRule) Name() string { return "enumerations" }

func (enumerationRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		after, ok := change.After.(domain.Suggestion)
		if !ok {
			continue
		}
		var bad []string
		if !after.Status.Valid() {
			bad = append(bad, fmt.Sprintf("status=%q", after.Status))
		}
		if !after.Type.Valid() {
			bad = append(bad, fmt.Sprintf("type=%q", after.Type))
		}
		if !after.Priority.Valid() {
			bad = append(bad, fmt.Sprintf("priority=%q", after.Priority))
		}
		if after.Source != "" && !after.Source.Valid() {
			bad = append(bad, fmt.Sprintf("source=%q", after.Source))
		}
		if len(bad) == 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "enumerations",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("suggestion %s has undeclared values %v", after.ID, bad),
			Entity:   domain.EntitySuggestion,
			EntityID: after.ID,
		})
	}
	return res, nil
}
