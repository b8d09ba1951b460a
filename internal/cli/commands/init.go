package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlpilot/internal/cli/config"
	"github.com/leapstack-labs/sqlpilot/internal/cli/output"
)

// starterConfig is what 'sqlpilot init' writes out. Kept as a struct so
// the generated file always matches the keys the loader reads.
type starterConfig struct {
	ServerURL      string `yaml:"server_url"`
	SessionPath    string `yaml:"session_path"`
	HistoryLimit   int    `yaml:"history_limit"`
	Output         string `yaml:"output"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var server string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter configuration file",
		Long: `Write a sqlpilot.yaml with the default settings so you can edit
them instead of remembering flags.`,
		Example: `  # Config in the current directory
  sqlpilot init

  # Point it at your deployment right away
  sqlpilot init --server https://sql.example.com

  # Overwrite an existing config
  sqlpilot init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			mode := output.Mode(cfg.OutputFormat)
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

			return runInit(r, dir, server, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&server, "server", config.DefaultServerURL, "Server URL to write into the config")

	return cmd
}

func runInit(r *output.Renderer, dir, server string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "sqlpilot.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("sqlpilot.yaml already exists. Use --force to overwrite")
	}

	starter := starterConfig{
		ServerURL:      server,
		SessionPath:    config.DefaultSessionPath(),
		HistoryLimit:   config.DefaultHistoryLimit,
		Output:         config.DefaultOutput,
		TimeoutSeconds: config.DefaultTimeout,
	}

	data, err := yaml.Marshal(&starter)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	r.Success("Wrote " + configPath)
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Run 'sqlpilot register' or 'sqlpilot login'")
	r.Println("  2. Upload a dataset with 'sqlpilot upload <file>'")
	r.Println("  3. Ask away: sqlpilot query \"total sales by region\"")

	return nil
}
