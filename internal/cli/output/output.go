// Package output handles terminal rendering for the sqlpilot CLI.
//
// A Renderer wraps the command's writers with an output mode and a set of
// lipgloss styles. ModeAuto picks a table for interactive terminals and
// CSV when output is piped.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Mode selects how results are rendered.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeTable    Mode = "table"
	ModeJSON     Mode = "json"
	ModeCSV      Mode = "csv"
	ModeMarkdown Mode = "markdown"
)

// Styles holds the lipgloss styles used across commands.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	SQL     lipgloss.Style
}

func newStyles(colored bool) Styles {
	if !colored {
		plain := lipgloss.NewStyle()
		return Styles{Header1: plain, Header2: plain, Bold: plain, Muted: plain, Error: plain, Success: plain, SQL: plain}
	}
	return Styles{
		Header1: lipgloss.NewStyle().Bold(true).Underline(true),
		Header2: lipgloss.NewStyle().Bold(true),
		Bold:    lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		SQL:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// Renderer writes formatted output for a single command invocation.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	tty    bool
	styles Styles
}

// NewRenderer creates a renderer. Styling is disabled when out is not a
// terminal or the environment asks for no color.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
// Used by tests to force interactive rendering onto a buffer.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	colored := isTTY && termenv.EnvColorProfile() != termenv.Ascii
	return &Renderer{out: out, errOut: errOut, mode: mode, tty: isTTY, styles: newStyles(colored)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves ModeAuto against the output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.tty {
		return ModeTable
	}
	return ModeCSV
}

func (r *Renderer) Writer() io.Writer    { return r.out }
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }
func (r *Renderer) Styles() Styles       { return r.styles }

func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Error writes a styled error line to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render(msg))
}

// Success writes a styled confirmation line.
func (r *Renderer) Success(msg string) {
	_, _ = fmt.Fprintln(r.out, r.styles.Success.Render(msg))
}
