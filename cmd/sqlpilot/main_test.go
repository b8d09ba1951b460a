// Package main provides tests for the sqlpilot CLI.
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlpilot/internal/cli"
	"github.com/leapstack-labs/sqlpilot/internal/cli/config"
)

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"version"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("version command error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "sqlpilot") {
		t.Errorf("version output should contain 'sqlpilot', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	output := buf.String()
	expectedCommands := []string{"login", "query", "history", "datasets", "upload", "chat", "dashboard"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"frobnicate"})

	if err := cmd.Execute(); err == nil {
		t.Error("unknown command should return an error")
	}
}

func TestInvalidOutputFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	config.ResetConfig()

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--output", "xml", "version"})

	if err := cmd.Execute(); err == nil {
		t.Error("invalid output format should return an error")
	}
}
