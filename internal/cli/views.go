package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mskboard/internal/query"
	"mskboard/pkg/domain"
)

const dateLayout = "2006-01-02 15:04"

type suggestionRow struct {
	domain.Suggestion `yaml:",inline"`
	EmployeeName      string `json:"employeeName,omitempty" yaml:"employeeName,omitempty"`
}

func rowsFor(suggestions []domain.Suggestion, employees []domain.Employee) []suggestionRow {
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}
	rows := make([]suggestionRow, len(suggestions))
	for i, s := range suggestions {
		rows[i] = suggestionRow{Suggestion: s, EmployeeName: names[s.EmployeeID]}
	}
	return rows
}

type suggestionList struct {
	Count       int             `json:"count" yaml:"count"`
	Suggestions []suggestionRow `json:"suggestions" yaml:"suggestions"`
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (l suggestionList) RenderText(w io.Writer) error {
	if l.Count == 0 {
		_, err := fmt.Fprintln(w, "No suggestions match.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMPLOYEE\tTYPE\tPRIORITY\tSTATUS\tUPDATED\tDESCRIPTION")
	for _, r := range l.Suggestions {
		employee := r.EmployeeName
		if employee == "" {
			employee = r.EmployeeID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, employee, r.Type, r.Priority, r.Status,
			r.DateUpdated.Format(dateLayout), truncate(r.Description, 48))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d suggestion(s)\n", l.Count)
	return err
}

type suggestionDetail struct {
	Action     string        `json:"action" yaml:"action"`
	Suggestion suggestionRow `json:"suggestion" yaml:"suggestion"`
}

func (d suggestionDetail) RenderText(w io.Writer) error {
	s := d.Suggestion
	fmt.Fprintf(w, "%s %s\n", d.Action, s.ID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	employee := s.EmployeeID
	if s.EmployeeName != "" {
		employee = fmt.Sprintf("%s (%s)", s.EmployeeName, s.EmployeeID)
	}
	fmt.Fprintf(tw, "  employee:\t%s\n", employee)
	fmt.Fprintf(tw, "  type:\t%s\n", s.Type)
	fmt.Fprintf(tw, "  priority:\t%s\n", s.Priority)
	fmt.Fprintf(tw, "  status:\t%s\n", s.Status)
	fmt.Fprintf(tw, "  source:\t%s\n", s.Source)
	fmt.Fprintf(tw, "  description:\t%s\n", s.Description)
	if s.Notes != "" {
		fmt.Fprintf(tw, "  notes:\t%s\n", s.Notes)
	}
	if s.EstimatedCost != "" {
		fmt.Fprintf(tw, "  estimated cost:\t%s\n", s.EstimatedCost)
	}
	if s.CreatedBy != "" {
		fmt.Fprintf(tw, "  created by:\t%s\n", s.CreatedBy)
	}
	fmt.Fprintf(tw, "  created:\t%s\n", s.DateCreated.Format(dateLayout))
	fmt.Fprintf(tw, "  updated:\t%s\n", s.DateUpdated.Format(dateLayout))
	if s.DateCompleted != nil {
		fmt.Fprintf(tw, "  completed:\t%s\n", s.DateCompleted.Format(dateLayout))
	}
	return tw.Flush()
}

type statsView struct {
	Scope       string `json:"scope" yaml:"scope"`
	query.Stats `yaml:",inline"`
}

func (v statsView) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Suggestions (%s)\t%d\t\n", v.Scope, v.Total)
	fmt.Fprintf(tw, "Pending\t%d\t\n", v.Pending)
	fmt.Fprintf(tw, "In progress\t%d\t\n", v.InProgress)
	fmt.Fprintf(tw, "Completed\t%d\t\n", v.Completed)
	fmt.Fprintf(tw, "Dismissed\t%d\t\n", v.Dismissed)
	fmt.Fprintf(tw, "Overdue\t%d\t\n", v.Overdue)
	fmt.Fprintf(tw, "Completion rate\t%d%%\t\n", v.CompletionRate)
	return tw.Flush()
}

type userView struct {
	domain.AdminUser `yaml:",inline"`
}

func (v userView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s <%s>\n  role: %s\n  department: %s\n  permissions: %s\n",
		v.Name, v.Email, v.Role, v.Department, strings.Join(v.Permissions, ", "))
	return err
}

type filtersView struct {
	domain.FilterState `yaml:",inline"`
}

func (v filtersView) RenderText(w io.Writer) error {
	if v.IsEmpty() {
		_, err := fmt.Fprintln(w, "No filters set.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, f := range []struct {
		name   string
		values []string
	}{
		{"status", v.Status},
		{"type", v.Type},
		{"priority", v.Priority},
		{"employee", v.Employee},
	} {
		if len(f.values) > 0 {
			fmt.Fprintf(tw, "%s:\t%s\n", f.name, strings.Join(f.values, ", "))
		}
	}
	return tw.Flush()
}

type employeeList struct {
	Count     int               `json:"count" yaml:"count"`
	Employees []domain.Employee `json:"employees" yaml:"employees"`
}

func (l employeeList) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tRISK\tJOB TITLE\tLAST ASSESSMENT")
	for _, e := range l.Employees {
		assessed := "-"
		if !e.LastAssessment.IsZero() {
			assessed = e.LastAssessment.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Name, e.Department, e.RiskLevel, e.JobTitle, assessed)
	}
	return tw.Flush()
}

type bulkResult struct {
	Status  domain.SuggestionStatus `json:"status" yaml:"status"`
	Updated []string                `json:"updated" yaml:"updated"`
	Missing []string                `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func (r bulkResult) RenderText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Moved %d suggestion(s) to %s\n", len(r.Updated), r.Status); err != nil {
		return err
	}
	if len(r.Missing) > 0 {
		_, err := fmt.Fprintf(w, "Skipped unknown id(s): %s\n", strings.Join(r.Missing, ", "))
		return err
	}
	return nil
}

type messageView struct {
	Message string `json:"message" yaml:"message"`
}

func (m messageView) RenderText(w io.Writer) error {
	_, err := fmt.Fprintln(w, m.Message)
	return err
}
