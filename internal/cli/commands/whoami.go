package commands

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/cli/output"
)

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the user behind the stored session.

By default this reads the local session only. With --remote the profile
is fetched from the server, which also verifies the token is still
accepted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			sess, err := cmdCtx.RequireSession()
			if err != nil {
				return err
			}

			profile := &api.Profile{
				ID:       sess.User.ID,
				Username: sess.User.Username,
				Email:    sess.User.Email,
			}

			if remote {
				ctx, cancel := cmdCtx.RequestContext(cmd.Context())
				defer cancel()
				profile, err = cmdCtx.Client.GetProfile(ctx)
				if err != nil {
					return err
				}
			}

			if err := cmdCtx.Renderer.RenderProfile(profile); err != nil {
				return err
			}

			// Tokens are decoded without verification; the server is the
			// authority, this is purely informational.
			if exp := tokenExpiry(sess.Token); !exp.IsZero() && cmdCtx.Renderer.EffectiveMode() != output.ModeJSON {
				style := cmdCtx.Renderer.Styles().Muted
				if time.Now().After(exp) {
					style = cmdCtx.Renderer.Styles().Error
				}
				cmdCtx.Renderer.Println(style.Render("  Token expires: " + exp.Local().Format(time.RFC1123)))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Fetch the profile from the server")

	return cmd
}

// tokenExpiry extracts the exp claim from a JWT without verifying it.
// Returns the zero time when the token is opaque or carries no expiry.
func tokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
