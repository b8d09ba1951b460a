package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/query"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Mode    string
	Dataset int64
	Input   string
}

var errQueryFailed = errors.New("query failed")

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a question or run SQL against the service",
		Long: `Send a natural-language question or a raw SQL statement to the
text-to-SQL service and render the results.

In natural mode the service generates SQL from your question and shows
it alongside the results. In sql mode your input runs as-is.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Ask in plain English
  sqlpilot query "which customers spent the most last month?"

  # Run raw SQL
  sqlpilot query --mode sql "SELECT COUNT(*) FROM orders"

  # Target a specific dataset
  sqlpilot query --dataset 3 "total revenue by region"

  # Pipe a question in
  echo "top 5 products by sales" | sqlpilot query

  # Interactive mode
  sqlpilot query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "natural", "Query mode: natural or sql")
	cmd.Flags().Int64VarP(&opts.Dataset, "dataset", "d", 0, "Dataset ID to query (0 for the active dataset)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the question or SQL from file")

	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"natural", "sql"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func parseMode(s string) (api.QueryMode, error) {
	switch s {
	case "natural", "":
		return api.ModeNatural, nil
	case "sql":
		return api.ModeSQL, nil
	default:
		return "", fmt.Errorf("invalid mode %q (valid: natural, sql)", s)
	}
}

func (o *QueryOptions) datasetID() *int64 {
	if o.Dataset == 0 {
		return nil
	}
	id := o.Dataset
	return &id
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	mode, err := parseMode(opts.Mode)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := cmdCtx.RequireSession(); err != nil {
		return err
	}

	// Determine input source
	var text string
	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		text = string(content)
	case !stdinIsTerminal(cmd):
		// Read from stdin (piped input)
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(content)
	default:
		// No input, TTY detected - enter REPL mode
		return runQueryREPL(cmd, cmdCtx, opts)
	}

	orch := query.New(cmdCtx.Client, cmdCtx.Logger)
	ctx, cancel := cmdCtx.RequestContext(cmd.Context())
	defer cancel()

	result := orch.Submit(ctx, text, mode, opts.datasetID())
	if result == nil {
		return fmt.Errorf("empty query")
	}

	if err := cmdCtx.Renderer.RenderResult(result); err != nil {
		return err
	}
	if result.IsError() {
		return errQueryFailed
	}
	return nil
}

func stdinIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
