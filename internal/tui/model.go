// Package tui implements the interactive dashboard.
//
// The dashboard is a tabbed bubbletea program: Query, History, Upload,
// and Chat. All state changes happen on the event loop; network calls
// run as tea commands and report back via typed messages.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/chat"
	"github.com/leapstack-labs/sqlpilot/internal/history"
	"github.com/leapstack-labs/sqlpilot/internal/query"
	"github.com/leapstack-labs/sqlpilot/internal/upload"
)

type tabID int

const (
	tabQuery tabID = iota
	tabHistory
	tabUpload
	tabChat
)

var tabNames = []string{"Query", "History", "Upload", "Chat"}

// Config carries the dashboard's dependencies.
type Config struct {
	Client       *api.Client
	Username     string
	ServerURL    string
	HistoryLimit int
	Logger       *slog.Logger
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	cfg Config

	queries *query.Orchestrator
	feed    *history.Feed
	uploads *upload.Orchestrator
	chats   *chat.Orchestrator

	activeTab tabID
	width     int
	height    int
	busy      bool
	status    string
	errLine   string

	mode      api.QueryMode
	datasetID *int64

	queryInput  textinput.Model
	uploadInput textinput.Model
	chatInput   textinput.Model
	body        viewport.Model
	spin        spinner.Model

	result     *query.Result
	entries    []api.HistoryEntry
	datasets   []api.Dataset
	transcript []chat.Message

	theme theme
}

// New builds the dashboard model.
func New(cfg Config) Model {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = history.DefaultLimit
	}

	queryInput := textinput.New()
	queryInput.Prompt = "❯ "
	queryInput.Placeholder = "Ask a question about your data"
	queryInput.CharLimit = 2000
	queryInput.Focus()

	uploadInput := textinput.New()
	uploadInput.Prompt = "❯ "
	uploadInput.Placeholder = "Path to a CSV, JSON, or Excel file"

	chatInput := textinput.New()
	chatInput.Prompt = "❯ "
	chatInput.Placeholder = "Message the assistant"
	chatInput.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	chats := chat.New(cfg.Client, cfg.Logger)

	return Model{
		cfg:         cfg,
		queries:     query.New(cfg.Client, cfg.Logger),
		feed:        history.New(cfg.Client, cfg.Logger),
		uploads:     upload.New(cfg.Client, nil, cfg.Logger),
		chats:       chats,
		activeTab:   tabQuery,
		mode:        api.ModeNatural,
		queryInput:  queryInput,
		uploadInput: uploadInput,
		chatInput:   chatInput,
		body:        viewport.New(0, 0),
		spin:        sp,
		status:      "loading…",
		transcript:  chats.Messages(),
		theme:       newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.initCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width - 4
		m.body.Height = msg.Height - 8
		m.refreshBody()
		return m, nil

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case initDoneMsg:
		m.busy = false
		m.datasets = msg.datasets
		m.entries = msg.entries
		if msg.err != nil {
			m.errLine = msg.err.Error()
			m.status = "load failed"
		} else {
			m.errLine = ""
			m.status = "ready"
		}
		m.refreshBody()
		return m, nil

	case queryDoneMsg:
		m.busy = false
		m.result = msg.result
		m.status = "ready"
		m.refreshBody()
		// A settled query invalidates history; refetch in the background
		return m, m.historyCmd()

	case historyDoneMsg:
		m.entries = msg.entries
		m.refreshBody()
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		m.status = msg.outcome.Message
		if msg.outcome.State == upload.Succeeded {
			m.uploadInput.SetValue("")
			m.errLine = ""
			return m, m.datasetsCmd()
		}
		m.errLine = msg.outcome.Message
		m.refreshBody()
		return m, nil

	case datasetsDoneMsg:
		if msg.datasets != nil {
			m.datasets = msg.datasets
		}
		m.refreshBody()
		return m, nil

	case chatDoneMsg:
		m.busy = false
		m.status = "ready"
		m.transcript = m.chats.Messages()
		m.refreshBody()
		m.body.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.setTab((m.activeTab + 1) % tabID(len(tabNames)))
		m.refreshBody()
		return m, nil

	case "shift+tab":
		m.setTab((m.activeTab + tabID(len(tabNames)) - 1) % tabID(len(tabNames)))
		m.refreshBody()
		return m, nil

	case "ctrl+s":
		if m.activeTab == tabQuery {
			if m.mode == api.ModeNatural {
				m.mode = api.ModeSQL
			} else {
				m.mode = api.ModeNatural
			}
		}
		return m, nil

	case "ctrl+r":
		m.status = "refreshing…"
		return m, tea.Batch(m.historyCmd(), m.datasetsCmd())

	case "enter":
		return m.submit()
	}

	// Everything else feeds the focused input
	var cmd tea.Cmd
	switch m.activeTab {
	case tabQuery:
		m.queryInput, cmd = m.queryInput.Update(msg)
	case tabUpload:
		m.uploadInput, cmd = m.uploadInput.Update(msg)
	case tabChat:
		m.chatInput, cmd = m.chatInput.Update(msg)
	case tabHistory:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

// submit runs the active tab's action. One request at a time; a second
// enter while busy is ignored.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch m.activeTab {
	case tabQuery:
		text := m.queryInput.Value()
		if text == "" {
			return m, nil
		}
		m.busy = true
		m.status = "running query…"
		m.queryInput.SetValue("")
		return m, tea.Batch(m.spin.Tick, m.queryCmd(text))

	case tabUpload:
		path := m.uploadInput.Value()
		if path == "" {
			return m, nil
		}
		m.busy = true
		m.status = "uploading…"
		return m, tea.Batch(m.spin.Tick, m.uploadCmd(path))

	case tabChat:
		text := m.chatInput.Value()
		if text == "" {
			return m, nil
		}
		m.busy = true
		m.status = "thinking…"
		m.chatInput.SetValue("")
		// Echo the user's message right away; the reply arrives later.
		m.transcript = append(m.transcript, chat.Message{Role: chat.RoleUser, Text: text})
		m.refreshBody()
		m.body.GotoBottom()
		return m, tea.Batch(m.spin.Tick, m.chatCmd(text))

	case tabHistory:
		m.status = "refreshing…"
		return m, m.historyCmd()
	}
	return m, nil
}

func (m *Model) setTab(t tabID) {
	m.activeTab = t
	m.queryInput.Blur()
	m.uploadInput.Blur()
	m.chatInput.Blur()
	switch t {
	case tabQuery:
		m.queryInput.Focus()
	case tabUpload:
		m.uploadInput.Focus()
	case tabChat:
		m.chatInput.Focus()
	}
}

var _ tea.Model = Model{}
