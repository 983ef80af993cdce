// Package cli implements the mskboard command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"mskboard/internal/auth"
	"mskboard/internal/config"
	"mskboard/internal/core"
	"mskboard/internal/infra/persistence/memory"
	"mskboard/pkg/domain"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigPath string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// runtime carries the options and, inside a shell, the shared App.
type runtime struct {
	opts   *RootOptions
	app    *App
	shared bool
}

// NewRootCommand creates the root command for the mskboard CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&runtime{opts: &RootOptions{Format: "text"}})
}

func newRootCommand(rt *runtime) *cobra.Command {
	opts := rt.opts
	cmd := &cobra.Command{
		Use:   "mskboard",
		Short: "MSK suggestion board",
		Long: `Track musculoskeletal health suggestions issued to employees.

Sign in with "mskboard login", then list, filter, create and update
suggestions. State is kept in the configured storage slot between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, ErrCodeUsage,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", opts.Format, "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "path to a YAML config file")

	cmd.AddCommand(
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newListCommand(rt),
		newStatsCommand(rt),
		newCreateCommand(rt),
		newUpdateCommand(rt),
		newStatusCommand(rt),
		newBulkStatusCommand(rt),
		newDeleteCommand(rt),
		newFiltersCommand(rt),
		newEmployeesCommand(rt),
		newShellCommand(rt),
	)
	return cmd
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.reported {
			fmt.Fprintf(stderr, "Error [%s]: %s\n", exitErr.ErrCode, exitErr.Error())
		}
		return exitErr.Code
	}
	// Flag and argument errors raised by cobra itself.
	fmt.Fprintf(stderr, "Error [%s]: %v\n", ErrCodeUsage, err)
	return ExitCommandError
}

func (rt *runtime) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    rt.opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rt.opts.Verbose,
	}
}

func (rt *runtime) acquire(cmd *cobra.Command) (*App, func() error, error) {
	if rt.app != nil {
		return rt.app, func() error { return nil }, nil
	}
	cfg, err := config.Load(rt.opts.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, ErrCodeUsage, "load configuration", err)
	}
	app, err := OpenApp(cmd.Context(), cfg, cmd.ErrOrStderr(), rt.opts.Verbose)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, ErrCodeStorage, "open application", err)
	}
	return app, app.Close, nil
}

type handler func(ctx context.Context, app *App, out *OutputFormatter, args []string) error

// withApp opens the App around h and turns any failure into a reported
// ExitError.
func (rt *runtime) withApp(h handler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		out := rt.formatter(cmd)
		app, release, err := rt.acquire(cmd)
		if err != nil {
			return report(out, classify(err, nil))
		}
		runErr := h(cmd.Context(), app, out, args)
		closeErr := release()
		if runErr != nil {
			return report(out, classify(runErr, app))
		}
		if closeErr != nil {
			return report(out, WrapExitError(ExitCommandError, ErrCodeStorage, "save state", closeErr))
		}
		return nil
	}
}

func report(out *OutputFormatter, ee *ExitError) error {
	var details any
	if ee.Err != nil {
		var verr core.ValidationError
		if errors.As(ee.Err, &verr) {
			details = verr.Problems
		} else if out.Verbose {
			details = ee.Err.Error()
		}
	}
	_ = out.Error(ee.ErrCode, ee.Message, details)
	ee.reported = true
	return ee
}

// classify maps domain and infrastructure errors onto exit codes. When the
// store recorded a user-facing message for the failure, that message wins.
func classify(err error, app *App) *ExitError {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	var (
		verr  core.ValidationError
		rverr domain.RuleViolationError
		dup   memory.ErrDuplicateID
		perm  auth.PermissionError
	)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return WrapExitError(ExitFailure, ErrCodeCredentials, auth.MsgInvalidCredentials, err)
	case errors.Is(err, auth.ErrUnauthenticated):
		return WrapExitError(ExitFailure, ErrCodeUnauthenticated, `not signed in; run "mskboard login" first`, err)
	case errors.As(err, &perm):
		return WrapExitError(ExitFailure, ErrCodeForbidden, fmt.Sprintf("permission %q required", perm.Permission), err)
	case errors.As(err, &verr):
		return WrapExitError(ExitFailure, ErrCodeValidation, verr.Error(), err)
	case errors.As(err, &rverr), errors.As(err, &dup):
		return WrapExitError(ExitFailure, ErrCodeValidation, "change rejected", err)
	case errors.Is(err, errNotFound):
		return WrapExitError(ExitFailure, ErrCodeNotFound, err.Error(), err)
	}
	message := err.Error()
	if app != nil {
		if msg := app.Service.LastError(); msg != "" {
			message = msg
		}
	}
	return WrapExitError(ExitFailure, ErrCodeGeneric, message, err)
}

var errNotFound = errors.New("not found")

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q %w", kind, id, errNotFound)
}
