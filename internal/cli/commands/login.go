package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/sqlpilot/internal/auth"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var email, password, googleToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the text-to-SQL service",
		Long: `Log in and persist the session locally.

The session token is stored in the session database and reused by every
subsequent command until you log out.`,
		Example: `  # Interactive login (prompts for credentials)
  sqlpilot login

  # Non-interactive
  sqlpilot login --email ada@example.com --password secret

  # Sign in with a Google ID token
  sqlpilot login --google-token "$ID_TOKEN"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			orch := auth.New(cmdCtx.Client, cmdCtx.Store, cmdCtx.Source, cmdCtx.Logger)
			ctx, cancel := cmdCtx.RequestContext(cmd.Context())
			defer cancel()

			if googleToken != "" {
				if err := orch.LoginWithGoogleCredential(ctx, googleToken); err != nil {
					return err
				}
			} else {
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
				if err := orch.LoginWithPassword(ctx, email, password); err != nil {
					return err
				}
			}

			sess, _ := cmdCtx.Store.Current()
			cmdCtx.Renderer.Success(fmt.Sprintf("Logged in as %s", sess.User.Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	cmd.Flags().StringVar(&googleToken, "google-token", "", "Google ID token for federated sign-in")

	return cmd
}

// promptLine reads one line of input from the command's stdin.
func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echoing when stdin is a terminal.
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	// Piped input: fall back to a plain line read
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
