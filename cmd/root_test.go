package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	original := rootCmd.Version
	defer func() { rootCmd.Version = original }()

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "fluorite-flake", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestSubcommandsRegistered(t *testing.T) {
	expected := []string{"create", "dashboard", "doctor", "ipc", "selfupdate", "version"}

	registered := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		registered[sub.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "missing subcommand %s", name)
	}
}

func TestIPCSubcommands(t *testing.T) {
	ipcCmd := newIPCCmd()
	names := make([]string, 0)
	for _, sub := range ipcCmd.Commands() {
		names = append(names, sub.Name())
	}
	require.ElementsMatch(t, []string{"serve", "call", "tools", "repl"}, names)
}

func TestDashboardWatchRequiresNoTUI(t *testing.T) {
	cmd := newDashboardCmd()
	cmd.SetArgs([]string{"--watch"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--no-tui")
}

func TestDashboardRejectsUnknownOutputFormat(t *testing.T) {
	cmd := newDashboardCmd()
	cmd.SetArgs([]string{"--no-tui", "--output", "csv"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
