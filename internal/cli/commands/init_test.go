package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlpilot/internal/cli/config"
)

func TestInitCommand(t *testing.T) {
	tests := []struct {
		name     string
		setupDir func(t *testing.T, dir string)
		args     []string
		wantErr  bool
	}{
		{
			name: "init empty directory",
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "sqlpilot.yaml"), []byte("existing"), 0o600)
			},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "sqlpilot.yaml"), []byte("existing"), 0o600)
			},
			args: []string{"--force"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Chdir(dir)
			config.ResetConfig()

			if tt.setupDir != nil {
				tt.setupDir(t, dir)
			}

			_, _, err := execCommand(NewInitCommand(), tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join(dir, "sqlpilot.yaml"))
			require.NoError(t, err)

			var written map[string]any
			require.NoError(t, yaml.Unmarshal(data, &written))
			assert.Equal(t, config.DefaultServerURL, written["server_url"])
			assert.Contains(t, written, "history_limit")
			assert.Contains(t, written, "output")
		})
	}
}

func TestInitCommand_ServerFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()

	_, _, err := execCommand(NewInitCommand(), "--server", "https://sql.example.com")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "sqlpilot.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://sql.example.com")
}

func TestInitCommand_TargetDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()

	_, _, err := execCommand(NewInitCommand(), "project")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "project", "sqlpilot.yaml"))
	require.NoError(t, err)
}
