package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const shellPrompt = "msk> "

func newShellCommand(rt *runtime) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run commands against one open store until exit",
		Long: `Start an interactive session. Every line is parsed as an mskboard command
line and runs against the same open store, so the login, filters and
suggestions carry across lines. Type "exit" or "quit" to leave.`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
		if rt.shared {
			return NewExitError(ExitCommandError, ErrCodeUsage, "already inside a shell")
		}
		if metricsAddr == "" {
			metricsAddr = app.Config.Metrics.Addr
		}
		if metricsAddr != "" {
			stop := serveMetrics(app, metricsAddr)
			defer stop()
		}
		return runShell(ctx, rt, app, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	})
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve metrics on this address while the shell runs")
	return cmd
}

func serveMetrics(app *App, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle(app.Metrics.Path(), app.Metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("metrics listener stopped", "addr", addr, "error", err)
		}
	}()
	app.Logger.Info("serving metrics", "addr", addr, "path", app.Metrics.Path())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func runShell(ctx context.Context, rt *runtime, app *App, in io.Reader, stdout, stderr io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(stdout, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(stdout)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintf(stderr, "Error [%s]: %v\n", ErrCodeUsage, err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		}

		opts := *rt.opts
		line := newRootCommand(&runtime{opts: &opts, app: app, shared: true})
		line.SetArgs(args)
		line.SetIn(in)
		line.SetOut(stdout)
		line.SetErr(stderr)
		if err := line.ExecuteContext(ctx); err != nil {
			var exitErr *ExitError
			switch {
			case errors.As(err, &exitErr):
				if !exitErr.reported {
					fmt.Fprintf(stderr, "Error [%s]: %s\n", exitErr.ErrCode, exitErr.Error())
				}
			default:
				fmt.Fprintf(stderr, "Error [%s]: %v\n", ErrCodeUsage, err)
			}
		}
		if err := app.Service.Flush(ctx); err != nil {
			fmt.Fprintf(stderr, "Error [%s]: save state: %v\n", ErrCodeStorage, err)
		}
	}
}

// splitArgs splits a shell line into words. Single and double quotes group
// words and a backslash escapes the next rune outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, current.String())
	}
	return args, nil
}
