package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"mskboard/internal/core"
	"mskboard/internal/query"
	"mskboard/pkg/domain"
)

func newListCommand(rt *runtime) *cobra.Command {
	var (
		flags         = &filterFlags{}
		search        string
		sortBy, order string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List suggestions through the saved filters, search and sort",
		Long: `List suggestions. The saved filters apply unless a filter flag is given,
in which case that flag replaces the saved dimension for this listing only.
Use "mskboard filters set" to persist a selection.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
		if _, err := app.Gate.Require(ctx, domain.PermissionViewSuggestions); err != nil {
			return err
		}
		key, err := query.ParseSortKey(sortBy)
		if err != nil {
			return core.ValidationError{Problems: []string{err.Error()}, Err: err}
		}
		dir, err := query.ParseSortOrder(order)
		if err != nil {
			return core.ValidationError{Problems: []string{err.Error()}, Err: err}
		}

		state := app.Service.Store().State()
		filters := state.Filters.Clone()
		flags.patch(cmd.Flags()).Apply(&filters)
		out.VerboseLog("filters: status=%v type=%v priority=%v employee=%v",
			filters.Status, filters.Type, filters.Priority, filters.Employee)

		processed := query.Process(state.Suggestions, filters, state.Employees,
			query.Options{Search: search, SortBy: key, Order: dir})
		return out.Success(suggestionList{
			Count:       len(processed),
			Suggestions: rowsFor(processed, state.Employees),
		})
	})
	flags.bind(cmd.Flags())
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search over description, notes and employee name")
	cmd.Flags().StringVar(&sortBy, "sort", string(query.SortByDateUpdated), fmt.Sprintf("sort key %v", query.SortKeys()))
	cmd.Flags().StringVar(&order, "order", string(query.Desc), "sort order (asc|desc)")
	return cmd
}

func newStatsCommand(rt *runtime) *cobra.Command {
	var filtered bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize suggestions by status",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
			if _, err := app.Gate.Require(ctx, domain.PermissionViewSuggestions); err != nil {
				return err
			}
			if filtered {
				return out.Success(statsView{Scope: "filtered", Stats: app.Service.FilteredStats()})
			}
			return out.Success(statsView{Scope: "all", Stats: app.Service.Stats()})
		}),
	}
	cmd.Flags().BoolVar(&filtered, "filtered", false, "only count suggestions passing the saved filters")
	return cmd
}

func newCreateCommand(rt *runtime) *cobra.Command {
	var input core.NewSuggestion
	var kind, priority, source string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pending suggestion for an employee",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
			if _, err := app.Gate.Require(ctx, domain.PermissionCreateSuggestions); err != nil {
				return err
			}
			if _, ok := app.Service.Employee(input.EmployeeID); !ok && input.EmployeeID != "" {
				return notFound("employee", input.EmployeeID)
			}
			input.Type = domain.SuggestionType(kind)
			input.Priority = domain.Priority(priority)
			input.Source = domain.Source(source)
			created, err := app.Service.CreateSuggestion(ctx, input)
			if err != nil {
				return err
			}
			return out.Success(suggestionDetail{
				Action:     "Created",
				Suggestion: rowsFor([]domain.Suggestion{created}, app.Service.Employees())[0],
			})
		}),
	}
	cmd.Flags().StringVar(&input.EmployeeID, "employee", "", "employee id")
	cmd.Flags().StringVar(&kind, "type", "", "suggestion type (exercise|equipment|behavioural|lifestyle)")
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityMedium), "priority (low|medium|high)")
	cmd.Flags().StringVar(&input.Description, "description", "", "what the employee should do (at least 10 characters)")
	cmd.Flags().StringVar(&input.Notes, "notes", "", "free-form notes")
	cmd.Flags().StringVar(&input.EstimatedCost, "cost", "", "estimated cost, e.g. £120")
	cmd.Flags().StringVar(&source, "source", string(domain.SourceAdmin), "origin of the suggestion (vida|admin)")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newUpdateCommand(rt *runtime) *cobra.Command {
	var (
		employee, kind, description, status, priority, source, notes, cost string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a suggestion",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, args []string) error {
		if _, err := app.Gate.Require(ctx, domain.PermissionUpdateSuggestions); err != nil {
			return err
		}
		id := args[0]
		if _, ok := app.Service.Suggestion(id); !ok {
			return notFound("suggestion", id)
		}
		fs := cmd.Flags()
		var update domain.SuggestionUpdate
		if fs.Changed("employee") {
			if _, ok := app.Service.Employee(employee); !ok {
				return notFound("employee", employee)
			}
			update.EmployeeID = &employee
		}
		if fs.Changed("type") {
			t := domain.SuggestionType(kind)
			update.Type = &t
		}
		if fs.Changed("description") {
			update.Description = &description
		}
		if fs.Changed("status") {
			s := domain.SuggestionStatus(status)
			update.Status = &s
		}
		if fs.Changed("priority") {
			p := domain.Priority(priority)
			update.Priority = &p
		}
		if fs.Changed("source") {
			s := domain.Source(source)
			update.Source = &s
		}
		if fs.Changed("notes") {
			update.Notes = &notes
		}
		if fs.Changed("cost") {
			update.EstimatedCost = &cost
		}
		if update.Empty() {
			return NewExitError(ExitCommandError, ErrCodeUsage, "nothing to update: pass at least one field flag")
		}
		if err := app.Service.UpdateSuggestion(ctx, id, update); err != nil {
			return err
		}
		return detail(app, out, "Updated", id)
	})
	fs := cmd.Flags()
	fs.StringVar(&employee, "employee", "", "employee id")
	fs.StringVar(&kind, "type", "", "suggestion type")
	fs.StringVar(&description, "description", "", "description (at least 10 characters)")
	fs.StringVar(&status, "status", "", "status")
	fs.StringVar(&priority, "priority", "", "priority")
	fs.StringVar(&source, "source", "", "source")
	fs.StringVar(&notes, "notes", "", "notes")
	fs.StringVar(&cost, "cost", "", "estimated cost")
	return cmd
}

func newStatusCommand(rt *runtime) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Move a suggestion to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, args []string) error {
			if _, err := app.Gate.Require(ctx, domain.PermissionUpdateSuggestions); err != nil {
				return err
			}
			id := args[0]
			if _, ok := app.Service.Suggestion(id); !ok {
				return notFound("suggestion", id)
			}
			if err := app.Service.UpdateStatus(ctx, id, domain.SuggestionStatus(args[1]), notes); err != nil {
				return err
			}
			return detail(app, out, "Updated", id)
		}),
	}
	cmd.Flags().StringVar(&notes, "notes", "", "replace the notes as part of the transition")
	return cmd
}

func newBulkStatusCommand(rt *runtime) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "bulk-status <status> <id>...",
		Short: "Move several suggestions to a status in one change",
		Args:  cobra.MinimumNArgs(2),
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, args []string) error {
			if _, err := app.Gate.Require(ctx, domain.PermissionUpdateSuggestions); err != nil {
				return err
			}
			status := domain.SuggestionStatus(args[0])
			result := bulkResult{Status: status, Updated: []string{}}
			for _, id := range args[1:] {
				if _, ok := app.Service.Suggestion(id); ok {
					result.Updated = append(result.Updated, id)
				} else {
					result.Missing = append(result.Missing, id)
				}
			}
			if len(result.Updated) == 0 {
				return notFound("suggestion", args[1])
			}
			if err := app.Service.BulkUpdateStatus(ctx, result.Updated, status, notes); err != nil {
				return err
			}
			return out.Success(result)
		}),
	}
	cmd.Flags().StringVar(&notes, "notes", "", "replace the notes on every listed suggestion")
	return cmd
}

func newDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, args []string) error {
			if _, err := app.Gate.Require(ctx, domain.PermissionDeleteSuggestions); err != nil {
				return err
			}
			id := args[0]
			if _, ok := app.Service.Suggestion(id); !ok {
				return notFound("suggestion", id)
			}
			if err := app.Service.DeleteSuggestion(ctx, id); err != nil {
				return err
			}
			return out.Success(messageView{Message: fmt.Sprintf("Deleted %s.", id)})
		}),
	}
}

func newEmployeesCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "employees",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
			if _, err := app.Gate.Require(ctx, domain.PermissionViewSuggestions); err != nil {
				return err
			}
			employees := app.Service.Employees()
			return out.Success(employeeList{Count: len(employees), Employees: employees})
		}),
	}
}

func detail(app *App, out *OutputFormatter, action, id string) error {
	s, ok := app.Service.Suggestion(id)
	if !ok {
		return notFound("suggestion", id)
	}
	return out.Success(suggestionDetail{
		Action:     action,
		Suggestion: rowsFor([]domain.Suggestion{s}, app.Service.Employees())[0],
	})
}
