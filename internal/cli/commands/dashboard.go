package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/tui"
)

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive dashboard",
		Long: `Open a full-screen dashboard with tabs for querying, history,
dataset uploads, and the assistant chat.`,
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

			model := tui.New(tui.Config{
				Client:       cmdCtx.Client,
				Username:     sess.User.Username,
				ServerURL:    cmdCtx.Cfg.ServerURL,
				HistoryLimit: cmdCtx.Cfg.HistoryLimit,
				Logger:       cmdCtx.Logger,
			})

			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard failed: %w", err)
			}
			return nil
		},
	}
}
