package core

import (
	"context"
	"fmt"

	"mskboard/pkg/domain"
)

// NewUniqueIDRule returns the rule blocking any transaction that leaves two
// employees or two suggestions sharing an id.
func NewUniqueIDRule() domain.Rule {
	return uniqueIDRule{}
}

type uniqueIDRule struct{}

func (uniqueIDRule) Name() string { return "unique_ids" }

func (r uniqueIDRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var touchedEmployees, touchedSuggestions bool
	for _, change := range changes {
		if change.Action != domain.ActionCreate {
			continue
		}
		switch change.Entity {
		case domain.EntityEmployee:
			touchedEmployees = true
		case domain.EntitySuggestion:
			touchedSuggestions = true
		}
	}

	res := domain.Result{}
	if touchedEmployees {
		ids := make([]string, 0)
		for _, e := range view.ListEmployees() {
			ids = append(ids, e.ID)
		}
		res.Merge(r.duplicates(domain.EntityEmployee, ids))
	}
	if touchedSuggestions {
		ids := make([]string, 0)
		for _, s := range view.ListSuggestions() {
			ids = append(ids, s.ID)
		}
		res.Merge(r.duplicates(domain.EntitySuggestion, ids))
	}
	return res, nil
}

func (uniqueIDRule) duplicates(entity domain.EntityType, ids []string) domain.Result {
	seen := make(map[string]int, len(ids))
	res := domain.Result{}
	for _, id := range ids {
		seen[id]++
		if seen[id] != 2 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "unique_ids",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("%s id %q is used more than once", entity, id),
			Entity:   entity,
			EntityID: id,
		})
	}
	return res
}
