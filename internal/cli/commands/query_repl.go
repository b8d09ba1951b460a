package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/history"
	"github.com/leapstack-labs/sqlpilot/internal/query"
)

// replState carries the mutable REPL settings between submissions.
type replState struct {
	mode    api.QueryMode
	dataset *int64
}

func (s *replState) prompt() string {
	return string(s.mode) + "> "
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext, opts *QueryOptions) error {
	mode, err := parseMode(opts.Mode)
	if err != nil {
		return err
	}
	state := &replState{mode: mode, dataset: opts.datasetID()}

	// Per-user history file next to the session database
	historyFile := filepath.Join(filepath.Dir(cmdCtx.Cfg.SessionPath), "repl_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          state.prompt(),
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	orch := query.New(cmdCtx.Client, cmdCtx.Logger)
	feed := history.New(cmdCtx.Client, cmdCtx.Logger)

	sess, _ := cmdCtx.Store.Current()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sqlpilot REPL (%s, signed in as %s)\n", cmdCtx.Cfg.ServerURL, sess.User.Username)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(cmd, cmdCtx, state, feed, line); quit {
				break
			}
			rl.SetPrompt(state.prompt())
			continue
		}

		ctx, cancel := cmdCtx.RequestContext(cmd.Context())
		result := orch.Submit(ctx, line, state.mode, state.dataset)
		cancel()

		if err := cmdCtx.Renderer.RenderResult(result); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand executes a REPL dot-command. Returns true when the
// REPL should exit.
func handleDotCommand(cmd *cobra.Command, cmdCtx *CommandContext, state *replState, feed *history.Feed, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".mode":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current mode: %s\n", state.mode)
			return false
		}
		mode, err := parseMode(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		state.mode = mode

	case ".dataset":
		if len(parts) < 2 {
			if state.dataset == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Using the active dataset")
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Using dataset %d\n", *state.dataset)
			}
			return false
		}
		if parts[1] == "none" {
			state.dataset = nil
			return false
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .dataset <id|none>")
			return false
		}
		state.dataset = &id

	case ".datasets":
		ctx, cancel := cmdCtx.RequestContext(cmd.Context())
		datasets, err := cmdCtx.Client.ListDatasets(ctx)
		cancel()
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		if err := cmdCtx.Renderer.RenderDatasets(datasets); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".history":
		ctx, cancel := cmdCtx.RequestContext(cmd.Context())
		entries := feed.Load(ctx, cmdCtx.Cfg.HistoryLimit)
		cancel()
		if err := cmdCtx.Renderer.RenderHistory(entries); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <dataset-id>")
			return false
		}
		id, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .schema <dataset-id>")
			return false
		}
		ctx, cancel := cmdCtx.RequestContext(cmd.Context())
		schema, err := cmdCtx.Client.DatasetSchema(ctx, id)
		cancel()
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), schema)

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help            Show this help message
  .mode [natural|sql]
                   Show or switch the query mode
  .dataset [id|none]
                   Show or switch the target dataset
  .datasets        List uploaded datasets
  .history         Show recent queries
  .schema <id>     Show the schema of a dataset
  .clear           Clear the screen
  .quit / .exit    Exit the REPL

Tips:
  - Everything else is sent to the service as a query
  - Use arrow keys to navigate input history
`
	_, _ = fmt.Fprintln(w, help)
}

// newREPLCompleter creates a readline completer for dot-commands.
func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".mode",
			readline.PcItem("natural"),
			readline.PcItem("sql"),
		),
		readline.PcItem(".dataset"),
		readline.PcItem(".datasets"),
		readline.PcItem(".history"),
		readline.PcItem(".schema"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
