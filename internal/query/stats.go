package query

import (
	"math"

	"mskboard/pkg/domain"
)

// Stats summarizes suggestions by status.
type Stats struct {
	Total          int `json:"total" yaml:"total"`
	Pending        int `json:"pending" yaml:"pending"`
	InProgress     int `json:"inProgress" yaml:"inProgress"`
	Completed      int `json:"completed" yaml:"completed"`
	Dismissed      int `json:"dismissed" yaml:"dismissed"`
	Overdue        int `json:"overdue" yaml:"overdue"`
	CompletionRate int `json:"completionRate" yaml:"completionRate"`
}

// SuggestionStats counts suggestions per status and derives the completion rate.
func SuggestionStats(suggestions []domain.Suggestion) Stats {
	stats := Stats{Total: len(suggestions)}
	for _, s := range suggestions {
		switch s.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusInProgress:
			stats.InProgress++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusDismissed:
			stats.Dismissed++
		case domain.StatusOverdue:
			stats.Overdue++
		}
	}
	stats.CompletionRate = CompletionRate(stats.Completed, stats.Total)
	return stats
}

// CompletionRate is completed/total as a whole percentage; 0 when total is 0.
func CompletionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
