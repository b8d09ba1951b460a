package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/history"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent queries",
		Long: `List your most recent queries, newest first.

Each entry shows the question, the SQL the service generated, and whether
the query succeeded.`,
		Example: `  # Last 20 queries
  sqlpilot history

  # More of them, as JSON
  sqlpilot history --limit 100 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := cmdCtx.RequireSession(); err != nil {
				return err
			}

			if limit <= 0 {
				limit = cmdCtx.Cfg.HistoryLimit
			}

			feed := history.New(cmdCtx.Client, cmdCtx.Logger)
			ctx, cancel := cmdCtx.RequestContext(cmd.Context())
			defer cancel()

			entries := feed.Load(ctx, limit)
			if !feed.Loaded() {
				return errLoadFailed("history")
			}
			return cmdCtx.Renderer.RenderHistory(entries)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries to fetch (default from config)")

	return cmd
}
