package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/upload"
)

// NewUploadCommand creates the upload command.
func NewUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a dataset file",
		Long: `Upload a local data file as a new dataset.

Accepted formats are CSV, JSON, and Excel (.xls), up to 10MB. The file is
validated locally before anything is sent to the server.`,
		Example: `  sqlpilot upload sales.csv
  sqlpilot upload events.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := cmdCtx.RequireSession(); err != nil {
				return err
			}

			orch := upload.New(cmdCtx.Client, nil, cmdCtx.Logger)
			ctx, cancel := cmdCtx.RequestContext(cmd.Context())
			defer cancel()

			out := orch.HandleFile(ctx, args[0])
			if out.State != upload.Succeeded {
				return errors.New(out.Message)
			}
			cmdCtx.Renderer.Success(out.Message)
			return nil
		},
	}

	return cmd
}
