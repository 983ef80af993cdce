package core

import (
	"context"
	"fmt"
	"time"

	"mskboard/pkg/domain"
)

// NewTimestampOrderRule warns when a created or updated suggestion reports an
// update time before its creation time.
func NewTimestampOrderRule() domain.Rule {
	return timestampOrderRule{}
}

type timestampOrderRule struct{}

func (timestampOrderRule) Name() string { return "timestamp_order" }

func (timestampOrderRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntitySuggestion {
			continue
		}
		after, ok := change.After.(domain.Suggestion)
		if !ok {
			continue
		}
		if after.DateUpdated.Before(after.DateCreated) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "timestamp_order",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("suggestion %s updated at %s before its creation at %s", after.ID, after.DateUpdated.Format(time.RFC3339), after.DateCreated.Format(time.RFC3339)),
				Entity:   domain.EntitySuggestion,
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}
