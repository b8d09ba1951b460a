package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/query"
	"github.com/leapstack-labs/sqlpilot/internal/upload"
)

type initDoneMsg struct {
	datasets []api.Dataset
	entries  []api.HistoryEntry
	err      error
}

type queryDoneMsg struct {
	result *query.Result
}

type historyDoneMsg struct {
	entries []api.HistoryEntry
}

type datasetsDoneMsg struct {
	datasets []api.Dataset
}

type uploadDoneMsg struct {
	outcome upload.Outcome
}

type chatDoneMsg struct{}

// initCmd loads datasets and history in parallel for the first paint.
func (m Model) initCmd() tea.Cmd {
	client := m.cfg.Client
	feed := m.feed
	limit := m.cfg.HistoryLimit

	return func() tea.Msg {
		g, ctx := errgroup.WithContext(context.Background())

		var datasets []api.Dataset
		g.Go(func() error {
			var err error
			datasets, err = client.ListDatasets(ctx)
			return err
		})

		var entries []api.HistoryEntry
		g.Go(func() error {
			entries = feed.Load(ctx, limit)
			return nil
		})

		err := g.Wait()
		return initDoneMsg{datasets: datasets, entries: entries, err: err}
	}
}

func (m Model) queryCmd(text string) tea.Cmd {
	orch := m.queries
	mode := m.mode
	datasetID := m.datasetID
	return func() tea.Msg {
		return queryDoneMsg{result: orch.Submit(context.Background(), text, mode, datasetID)}
	}
}

func (m Model) historyCmd() tea.Cmd {
	feed := m.feed
	limit := m.cfg.HistoryLimit
	return func() tea.Msg {
		return historyDoneMsg{entries: feed.Load(context.Background(), limit)}
	}
}

func (m Model) datasetsCmd() tea.Cmd {
	client := m.cfg.Client
	return func() tea.Msg {
		datasets, err := client.ListDatasets(context.Background())
		if err != nil {
			// Keep whatever list we had; the upload already reported status
			return datasetsDoneMsg{}
		}
		return datasetsDoneMsg{datasets: datasets}
	}
}

func (m Model) uploadCmd(path string) tea.Cmd {
	orch := m.uploads
	return func() tea.Msg {
		return uploadDoneMsg{outcome: orch.HandleFile(context.Background(), path)}
	}
}

func (m Model) chatCmd(text string) tea.Cmd {
	orch := m.chats
	return func() tea.Msg {
		orch.Send(context.Background(), text)
		return chatDoneMsg{}
	}
}
