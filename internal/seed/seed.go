// Package seed holds the sample board loaded into an empty store.
package seed

import (
	"time"

	"mskboard/internal/auth"
	"mskboard/pkg/domain"
)

func day(month time.Month, d, hour int) time.Time {
	return time.Date(2024, month, d, hour, 0, 0, 0, time.UTC)
}

func completedAt(t time.Time) *time.Time { return &t }

// Employees returns the sample staff list.
func Employees() []domain.Employee {
	return []domain.Employee{
		{ID: "emp-001", Name: "Sarah Johnson", Department: "Finance", RiskLevel: domain.RiskHigh, JobTitle: "Senior Accountant", Workstation: "Desk F-12, Floor 3", LastAssessment: day(time.September, 12, 10)},
		{ID: "emp-002", Name: "Michael Chen", Department: "Engineering", RiskLevel: domain.RiskMedium, JobTitle: "Software Engineer", Workstation: "Hot desk zone B", LastAssessment: day(time.August, 28, 14)},
		{ID: "emp-003", Name: "Priya Patel", Department: "Customer Support", RiskLevel: domain.RiskHigh, JobTitle: "Support Team Lead", Workstation: "Call centre pod 4", LastAssessment: day(time.September, 3, 9)},
		{ID: "emp-004", Name: "James O'Connor", Department: "Warehouse", RiskLevel: domain.RiskHigh, JobTitle: "Logistics Operative", Workstation: "Packing line 2", LastAssessment: day(time.July, 19, 8)},
		{ID: "emp-005", Name: "Emma Williams", Department: "Marketing", RiskLevel: domain.RiskLow, JobTitle: "Content Designer", Workstation: "Desk M-04, Floor 2", LastAssessment: day(time.June, 5, 11)},
		{ID: "emp-006", Name: "David Okafor", Department: "Engineering", RiskLevel: domain.RiskLow, JobTitle: "QA Analyst", Workstation: "Remote (home office)", LastAssessment: day(time.August, 2, 15)},
		{ID: "emp-007", Name: "Laura Martinez", Department: "Human Resources", RiskLevel: domain.RiskMedium, JobTitle: "HR Business Partner", Workstation: "Desk H-07, Floor 1", LastAssessment: day(time.September, 20, 13)},
		{ID: "emp-008", Name: "Tom Fletcher", Department: "Facilities", RiskLevel: domain.RiskMedium, JobTitle: "Maintenance Technician", Workstation: "Workshop bench 1", LastAssessment: day(time.May, 30, 10)},
	}
}

// Suggestions returns sample suggestions covering every status, type,
// priority and source.
func Suggestions() []domain.Suggestion {
	const manager = "Health & Safety Manager"
	return []domain.Suggestion{
		{ID: "sug-001", EmployeeID: "emp-001", Type: domain.TypeEquipment, Description: "Provide an adjustable monitor arm to bring the screen to eye level", Status: domain.StatusPending, Priority: domain.PriorityHigh, Source: domain.SourceVida, DateCreated: day(time.September, 13, 9), DateUpdated: day(time.September, 13, 9), EstimatedCost: "£120"},
		{ID: "sug-002", EmployeeID: "emp-001", Type: domain.TypeExercise, Description: "Complete neck and shoulder stretches every two hours", Status: domain.StatusInProgress, Priority: domain.PriorityMedium, Source: domain.SourceVida, DateCreated: day(time.September, 13, 9), DateUpdated: day(time.September, 20, 16), Notes: "Reminder set in calendar"},
		{ID: "sug-003", EmployeeID: "emp-002", Type: domain.TypeBehavioural, Description: "Take a five minute screen break every hour", Status: domain.StatusCompleted, Priority: domain.PriorityLow, Source: domain.SourceAdmin, CreatedBy: manager, DateCreated: day(time.August, 29, 10), DateUpdated: day(time.September, 10, 12), DateCompleted: completedAt(day(time.September, 10, 12)), Notes: "Employee reports reduced eye strain"},
		{ID: "sug-004", EmployeeID: "emp-003", Type: domain.TypeEquipment, Description: "Supply a headset with an adjustable boom to reduce neck tilt", Status: domain.StatusCompleted, Priority: domain.PriorityHigh, Source: domain.SourceVida, DateCreated: day(time.September, 4, 9), DateUpdated: day(time.September, 9, 14), DateCompleted: completedAt(day(time.September, 9, 14)), EstimatedCost: "£85"},
		{ID: "sug-005", EmployeeID: "emp-003", Type: domain.TypeLifestyle, Description: "Join the lunchtime walking group twice a week", Status: domain.StatusDismissed, Priority: domain.PriorityLow, Source: domain.SourceAdmin, CreatedBy: manager, DateCreated: day(time.September, 4, 11), DateUpdated: day(time.September, 18, 10), Notes: "Employee prefers gym membership"},
		{ID: "sug-006", EmployeeID: "emp-004", Type: domain.TypeBehavioural, Description: "Refresher training on safe lifting technique for heavy parcels", Status: domain.StatusOverdue, Priority: domain.PriorityHigh, Source: domain.SourceAdmin, CreatedBy: manager, DateCreated: day(time.July, 20, 8), DateUpdated: day(time.August, 20, 8), Notes: "Training slot missed twice"},
		{ID: "sug-007", EmployeeID: "emp-004", Type: domain.TypeEquipment, Description: "Install an anti-fatigue mat at the packing station", Status: domain.StatusInProgress, Priority: domain.PriorityMedium, Source: domain.SourceVida, DateCreated: day(time.July, 20, 9), DateUpdated: day(time.September, 1, 11), EstimatedCost: "£60", Notes: "Awaiting delivery"},
		{ID: "sug-008", EmployeeID: "emp-005", Type: domain.TypeExercise, Description: "Wrist and forearm mobility routine before design sessions", Status: domain.StatusPending, Priority: domain.PriorityLow, Source: domain.SourceVida, DateCreated: day(time.June, 6, 10), DateUpdated: day(time.June, 6, 10)},
		{ID: "sug-009", EmployeeID: "emp-006", Type: domain.TypeEquipment, Description: "Loan a laptop stand and external keyboard for the home office", Status: domain.StatusCompleted, Priority: domain.PriorityMedium, Source: domain.SourceAdmin, CreatedBy: manager, DateCreated: day(time.August, 3, 9), DateUpdated: day(time.August, 15, 17), DateCompleted: completedAt(day(time.August, 15, 17)), EstimatedCost: "£75"},
		{ID: "sug-010", EmployeeID: "emp-006", Type: domain.TypeLifestyle, Description: "Set a fixed end to the working day to avoid evening laptop use on the sofa", Status: domain.StatusPending, Priority: domain.PriorityMedium, Source: domain.SourceVida, DateCreated: day(time.August, 3, 10), DateUpdated: day(time.August, 3, 10)},
		{ID: "sug-011", EmployeeID: "emp-007", Type: domain.TypeExercise, Description: "Lower back strengthening exercises three times per week", Status: domain.StatusInProgress, Priority: domain.PriorityHigh, Source: domain.SourceAdmin, CreatedBy: manager, DateCreated: day(time.September, 21, 9), DateUpdated: day(time.September, 27, 15)},
		{ID: "sug-012", EmployeeID: "emp-007", Type: domain.TypeBehavioural, Description: "Alternate between sitting and standing during long meetings", Status: domain.StatusOverdue, Priority: domain.PriorityMedium, Source: domain.SourceVida, DateCreated: day(time.September, 21, 10), DateUpdated: day(time.October, 5, 9)},
		{ID: "sug-013", EmployeeID: "emp-008", Type: domain.TypeEquipment, Description: "Provide knee pads for floor level maintenance work", Status: domain.StatusPending, Priority: domain.PriorityHigh, Source: domain.SourceAdmin, CreatedBy: manager, DateCreated: day(time.May, 31, 8), DateUpdated: day(time.May, 31, 8), EstimatedCost: "£30"},
		{ID: "sug-014", EmployeeID: "emp-008", Type: domain.TypeLifestyle, Description: "Referral to the occupational health physiotherapy clinic", Status: domain.StatusDismissed, Priority: domain.PriorityMedium, Source: domain.SourceVida, DateCreated: day(time.June, 1, 9), DateUpdated: day(time.June, 20, 14), Notes: "Already under GP care"},
	}
}

// Data returns the full sample board, including the signed-in administrator.
func Data() domain.Seed {
	user := auth.AdminUser()
	return domain.Seed{
		Employees:   Employees(),
		Suggestions: Suggestions(),
		CurrentUser: &user,
	}
}
