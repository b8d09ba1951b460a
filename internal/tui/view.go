package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlpilot/internal/chat"
	"github.com/leapstack-labs/sqlpilot/internal/query"
)

type theme struct {
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	header      lipgloss.Style
	panel       lipgloss.Style
	footer      lipgloss.Style
	muted       lipgloss.Style
	errLine     lipgloss.Style
	sql         lipgloss.Style
	user        lipgloss.Style
	assistant   lipgloss.Style
}

func newTheme() theme {
	accent := lipgloss.Color("12")
	muted := lipgloss.Color("241")

	return theme{
		tabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(accent).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Foreground(muted),
		panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		footer:    lipgloss.NewStyle().Foreground(muted),
		muted:     lipgloss.NewStyle().Foreground(muted),
		errLine:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		sql:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewTabs())
	b.WriteString("\n")
	b.WriteString(m.theme.header.Render(fmt.Sprintf("%s · %s", m.cfg.Username, m.cfg.ServerURL)))
	b.WriteString("\n\n")

	b.WriteString(m.theme.panel.Render(m.body.View()))
	b.WriteString("\n")

	switch m.activeTab {
	case tabQuery:
		b.WriteString(m.queryInput.View())
	case tabUpload:
		b.WriteString(m.uploadInput.View())
	case tabChat:
		b.WriteString(m.chatInput.View())
	case tabHistory:
		b.WriteString(m.theme.muted.Render("enter to refresh, arrows to scroll"))
	}
	b.WriteString("\n")

	b.WriteString(m.viewFooter())
	return b.String()
}

func (m Model) viewTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tabID(i) == m.activeTab {
			parts[i] = m.theme.tabActive.Render(name)
		} else {
			parts[i] = m.theme.tabInactive.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewFooter() string {
	status := m.status
	if m.busy {
		status = m.spin.View() + " " + status
	}
	if m.errLine != "" {
		status += "  " + m.theme.errLine.Render(m.errLine)
	}

	help := "tab: switch · enter: submit · ctrl+r: refresh · ctrl+c: quit"
	if m.activeTab == tabQuery {
		help = fmt.Sprintf("mode: %s (ctrl+s) · %s", m.mode, help)
	}
	return status + "\n" + m.theme.footer.Render(help)
}

// refreshBody re-renders the viewport content for the active tab.
func (m *Model) refreshBody() {
	switch m.activeTab {
	case tabQuery:
		m.body.SetContent(m.renderResult())
	case tabHistory:
		m.body.SetContent(m.renderHistory())
	case tabUpload:
		m.body.SetContent(m.renderDatasets())
	case tabChat:
		m.body.SetContent(m.renderTranscript())
	}
}

func (m *Model) renderResult() string {
	res := m.result
	if res == nil {
		return m.theme.muted.Render("No query yet. Type a question and press enter.")
	}
	if res.IsError() {
		return m.theme.errLine.Render(res.Err)
	}

	var b strings.Builder
	if res.GeneratedQuery != "" {
		b.WriteString(m.theme.sql.Render("SQL: " + res.GeneratedQuery))
		b.WriteString("\n\n")
	}

	b.WriteString(renderRowsTable(res))
	b.WriteString(fmt.Sprintf("\n(%d rows)", len(res.Rows)))

	if res.ExecutionTime != nil {
		b.WriteString(m.theme.muted.Render(fmt.Sprintf("  %.3fs", *res.ExecutionTime)))
	}
	return b.String()
}

func renderRowsTable(res *query.Result) string {
	if len(res.Rows) == 0 {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range res.Rows {
		line := make(table.Row, len(res.Columns))
		for i, col := range res.Columns {
			line[i] = query.CellText(row[col])
		}
		t.AppendRow(line)
	}
	return t.Render()
}

func (m *Model) renderHistory() string {
	if len(m.entries) == 0 {
		return m.theme.muted.Render("No queries yet.")
	}

	var b strings.Builder
	for _, e := range m.entries {
		marker := m.theme.user.Render("✓")
		if e.ErrorMessage != "" {
			marker = m.theme.errLine.Render("✗")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", marker, e.Question))
		if e.SQLQuery != "" {
			b.WriteString("  " + m.theme.sql.Render(e.SQLQuery) + "\n")
		}
		if e.ErrorMessage != "" {
			b.WriteString("  " + m.theme.errLine.Render(e.ErrorMessage) + "\n")
		}
		b.WriteString("  " + m.theme.muted.Render(e.CreatedAt) + "\n\n")
	}
	return b.String()
}

func (m *Model) renderDatasets() string {
	var b strings.Builder
	b.WriteString("Drop a file path below to upload a new dataset.\n\n")

	if len(m.datasets) == 0 {
		b.WriteString(m.theme.muted.Render("No datasets uploaded yet."))
		return b.String()
	}

	b.WriteString("Datasets:\n")
	for _, d := range m.datasets {
		marker := " "
		if d.IsActive {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("  %s %d  %s\n", marker, d.ID, d.Name))
	}
	return b.String()
}

func (m *Model) renderTranscript() string {
	var b strings.Builder
	for _, msg := range m.transcript {
		label := m.theme.user.Render("you")
		if msg.Role == chat.RoleAssistant {
			label = m.theme.assistant.Render("assistant")
		}
		b.WriteString(label + ": " + msg.Text + "\n\n")
	}
	return b.String()
}
