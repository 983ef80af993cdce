package cli

import (
	"context"

	"github.com/spf13/cobra"

	"mskboard/internal/auth"
)

func newLoginCommand(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as the health and safety manager",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
			user, err := app.Gate.Login(ctx, email, password)
			if err != nil {
				return err
			}
			out.VerboseLog("session stored under %s", auth.SessionKey)
			return out.Success(userView{AdminUser: user})
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the session",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
			if err := app.Gate.Logout(ctx); err != nil {
				return err
			}
			return out.Success(messageView{Message: "Signed out."})
		}),
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: rt.withApp(func(ctx context.Context, app *App, out *OutputFormatter, _ []string) error {
			user, err := app.Gate.CurrentUser(ctx)
			if err != nil {
				return err
			}
			return out.Success(userView{AdminUser: user})
		}),
	}
}
