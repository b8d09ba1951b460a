package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/auth"
)

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Long:  `Remove the persisted session. Logging out twice is not an error.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			orch := auth.New(cmdCtx.Client, cmdCtx.Store, cmdCtx.Source, cmdCtx.Logger)
			if err := orch.Logout(); err != nil {
				return err
			}

			cmdCtx.Renderer.Success("Logged out")
			return nil
		},
	}
}
