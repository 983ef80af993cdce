package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mskboard/pkg/domain"
)

// filterFlags binds the four filter dimensions to repeatable flags.
type filterFlags struct {
	status, kind, priority, employee []string
}

func (f *filterFlags) bind(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.status, "status", nil, "status values to include (repeatable or comma separated)")
	fs.StringSliceVar(&f.kind, "type", nil, "suggestion types to include")
	fs.StringSliceVar(&f.priority, "priority", nil, "priorities to include")
	fs.StringSliceVar(&f.employee, "employee", nil, "employee ids to include")
}

// patch builds a FilterPatch from the flags the user actually passed, so an
// explicit empty value clears a dimension while an absent flag leaves it alone.
func (f *filterFlags) patch(fs *pflag.FlagSet) domain.FilterPatch {
	var p domain.FilterPatch
	set := func(name string, values []string) *[]string {
		if !fs.Changed(name) {
			return nil
		}
		v := append([]string{}, values...)
		return &v
	}
	p.Status = set("status", f.status)
	p.Type = set("type", f.kind)
	p.Priority = set("priority", f.priority)
	p.Employee = set("employee", f.employee)
	return p
}

func newFiltersCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Show or change the saved list filters",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the saved filters",
			Args:  cobra.NoArgs,
			RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
				if _, err := app.Gate.Require(ctx, domain.PermissionViewSuggestions); err != nil {
					return err
				}
				return out.Success(filtersView{FilterState: app.Service.Filters()})
			}),
		},
		newFiltersSetCommand(rt),
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every saved filter",
			Args:  cobra.NoArgs,
			RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
				if _, err := app.Gate.Require(ctx, domain.PermissionViewSuggestions); err != nil {
					return err
				}
				if err := app.Service.ClearFilters(ctx); err != nil {
					return err
				}
				return out.Success(filtersView{FilterState: app.Service.Filters()})
			}),
		},
	)
	return cmd
}

func newFiltersSetCommand(rt *runtime) *cobra.Command {
	flags := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Merge the given dimensions into the saved filters",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
		if _, err := app.Gate.Require(ctx, domain.PermissionViewSuggestions); err != nil {
			return err
		}
		if err := app.Service.SetFilters(ctx, flags.patch(cmd.Flags())); err != nil {
			return err
		}
		return out.Success(filtersView{FilterState: app.Service.Filters()})
	})
	flags.bind(cmd.Flags())
	return cmd
}
