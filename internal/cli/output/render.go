package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/chat"
	"github.com/leapstack-labs/sqlpilot/internal/query"
)

// RenderResult writes a query result in the renderer's effective mode.
// Failed queries render their message to the error stream and nothing else.
func (r *Renderer) RenderResult(res *query.Result) error {
	if res == nil {
		return nil
	}
	if res.IsError() {
		r.Error(res.Err)
		return nil
	}

	mode := r.EffectiveMode()

	if mode == ModeJSON {
		return r.resultJSON(res)
	}

	if res.GeneratedQuery != "" && mode == ModeTable {
		r.Println(r.styles.SQL.Render("SQL: " + res.GeneratedQuery))
	}

	cells := make([][]string, len(res.Rows))
	for i, row := range res.Rows {
		line := make([]string, len(res.Columns))
		for j, col := range res.Columns {
			line[j] = query.CellText(row[col])
		}
		cells[i] = line
	}

	switch mode {
	case ModeCSV:
		r.renderCSV(res.Columns, cells)
	case ModeMarkdown:
		r.renderMarkdown(res.Columns, cells)
	default:
		r.renderTable(res.Columns, cells)
	}

	if res.ExecutionTime != nil && mode == ModeTable {
		r.Println(r.styles.Muted.Render(fmt.Sprintf("Execution time: %.3fs", *res.ExecutionTime)))
	}
	return nil
}

func (r *Renderer) resultJSON(res *query.Result) error {
	out := struct {
		SQLQuery      string      `json:"sql_query,omitempty"`
		Columns       []string    `json:"columns"`
		Rows          []query.Row `json:"rows"`
		ExecutionTime *float64    `json:"execution_time,omitempty"`
	}{res.GeneratedQuery, res.Columns, res.Rows, res.ExecutionTime}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (r *Renderer) renderTable(cols []string, rows [][]string) {
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, cells := range rows {
		row := make(table.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}

	t.Render()
	r.Printf("(%d rows)\n", len(rows))
}

func (r *Renderer) renderCSV(cols []string, rows [][]string) {
	r.Println(strings.Join(cols, ","))
	for _, cells := range rows {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = escapeCSV(c)
		}
		r.Println(strings.Join(escaped, ","))
	}
}

func (r *Renderer) renderMarkdown(cols []string, rows [][]string) {
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return
	}

	r.Printf("| %s |\n", strings.Join(cols, " | "))
	seps := make([]string, len(cols))
	for i := range seps {
		seps[i] = "---"
	}
	r.Printf("| %s |\n", strings.Join(seps, " | "))

	for _, cells := range rows {
		r.Printf("| %s |\n", strings.Join(cells, " | "))
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// RenderHistory writes past queries, newest first as the server returns them.
func (r *Renderer) RenderHistory(entries []api.HistoryEntry) error {
	if r.EffectiveMode() == ModeJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		r.Println("No queries yet.")
		return nil
	}

	cols := []string{"ID", "Question", "SQL", "Status", "When"}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		status := "ok"
		if e.ErrorMessage != "" {
			status = "error"
		}
		rows[i] = []string{
			fmt.Sprintf("%d", e.ID),
			truncate(e.Question, 48),
			truncate(e.SQLQuery, 48),
			status,
			e.CreatedAt,
		}
	}

	switch r.EffectiveMode() {
	case ModeCSV:
		r.renderCSV(cols, rows)
	case ModeMarkdown:
		r.renderMarkdown(cols, rows)
	default:
		r.renderTable(cols, rows)
	}
	return nil
}

// RenderDatasets writes the dataset list.
func (r *Renderer) RenderDatasets(datasets []api.Dataset) error {
	if r.EffectiveMode() == ModeJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(datasets)
	}

	if len(datasets) == 0 {
		r.Println("No datasets. Upload one with: sqlpilot upload <file>")
		return nil
	}

	cols := []string{"ID", "Name", "Active", "Created"}
	rows := make([][]string, len(datasets))
	for i, d := range datasets {
		active := ""
		if d.IsActive {
			active = "*"
		}
		rows[i] = []string{fmt.Sprintf("%d", d.ID), d.Name, active, d.CreatedAt}
	}

	switch r.EffectiveMode() {
	case ModeCSV:
		r.renderCSV(cols, rows)
	case ModeMarkdown:
		r.renderMarkdown(cols, rows)
	default:
		r.renderTable(cols, rows)
	}
	return nil
}

// RenderProfile writes the signed-in user's details.
func (r *Renderer) RenderProfile(p *api.Profile) error {
	if r.EffectiveMode() == ModeJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	r.Println(r.styles.Header2.Render(p.Username))
	r.Printf("  Email:  %s\n", p.Email)
	r.Printf("  ID:     %d\n", p.ID)
	if !p.CreatedAt.IsZero() {
		r.Printf("  Since:  %s\n", p.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// RenderTranscript writes chat messages in conversation order.
func (r *Renderer) RenderTranscript(messages []chat.Message) {
	for _, m := range messages {
		label := "you"
		style := r.styles.Bold
		if m.Role == chat.RoleAssistant {
			label = "assistant"
			style = r.styles.SQL
		}
		r.Printf("%s %s\n", style.Render(label+">"), m.Text)
	}
}

// truncate shortens s to at most n runes, ending in an ellipsis. It
// counts runes, not bytes, so multibyte text is never cut mid-rune.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
