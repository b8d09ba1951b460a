package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/auth"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand() *cobra.Command {
	var email, password, confirm string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Long: `Create a new account on the text-to-SQL service.

The username is derived from the email address (the part before the @).
On success you are logged in immediately.`,
		Example: `  # Interactive registration
  sqlpilot register

  # Non-interactive
  sqlpilot register --email ada@example.com --password secret --confirm secret`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if email == "" {
				email, err = promptLine(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
			}
			if confirm == "" {
				confirm, err = promptPassword(cmd, "Confirm password: ")
				if err != nil {
					return err
				}
			}

			orch := auth.New(cmdCtx.Client, cmdCtx.Store, cmdCtx.Source, cmdCtx.Logger)
			ctx, cancel := cmdCtx.RequestContext(cmd.Context())
			defer cancel()

			if err := orch.Register(ctx, email, password, confirm); err != nil {
				return err
			}

			sess, _ := cmdCtx.Store.Current()
			cmdCtx.Renderer.Success(fmt.Sprintf("Account created. Logged in as %s", sess.User.Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Password confirmation (prompted when omitted)")

	return cmd
}
