package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command group.
func NewDatasetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "Manage uploaded datasets",
		Long: `List and inspect the datasets available to your account.

The active dataset (marked with *) is the one queries run against when
no --dataset flag is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDatasetList(cmd)
		},
	}

	cmd.AddCommand(newDatasetListCommand())
	cmd.AddCommand(newDatasetSchemaCommand())
	cmd.AddCommand(newDatasetAddCommand())

	return cmd
}

func newDatasetListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all datasets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDatasetList(cmd)
		},
	}
}

func runDatasetList(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := cmdCtx.RequireSession(); err != nil {
		return err
	}

	ctx, cancel := cmdCtx.RequestContext(cmd.Context())
	defer cancel()

	datasets, err := cmdCtx.Client.ListDatasets(ctx)
	if err != nil {
		return err
	}
	return cmdCtx.Renderer.RenderDatasets(datasets)
}

func newDatasetSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <id>",
		Short: "Show the schema of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid dataset id %q", args[0])
			}

			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := cmdCtx.RequireSession(); err != nil {
				return err
			}

			ctx, cancel := cmdCtx.RequestContext(cmd.Context())
			defer cancel()

			schema, err := cmdCtx.Client.DatasetSchema(ctx, id)
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Println(schema)
			return nil
		},
	}
}

func newDatasetAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <path>",
		Short: "Register a server-side database file as a dataset",
		Long: `Register an existing database file on the server as a queryable
dataset. For uploading local files, use 'sqlpilot upload' instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := cmdCtx.RequireSession(); err != nil {
				return err
			}

			ctx, cancel := cmdCtx.RequestContext(cmd.Context())
			defer cancel()

			ds, err := cmdCtx.Client.AddDataset(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			cmdCtx.Renderer.Success(fmt.Sprintf("Dataset %q registered with id %d", ds.Name, ds.ID))
			return nil
		},
	}
}
