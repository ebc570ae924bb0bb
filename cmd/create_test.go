package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGeneratesProjectFromFlags(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-app")

	cmd := newCreateCmd()
	cmd.SetArgs([]string{
		"my-app",
		"--framework", "nextjs",
		"--database", "turso",
		"--orm", "drizzle",
		"--deployment", "vercel",
		"--dir", dir,
		"--git=false",
		"--yes",
	})
	require.NoError(t, cmd.Execute())

	for _, path := range []string{"package.json", "README.md", "drizzle.config.ts", "vercel.json"} {
		_, err := os.Stat(filepath.Join(dir, path))
		assert.NoError(t, err, "expected %s to be generated", path)
	}
}

func TestCreateDryRunWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my-app")

	cmd := newCreateCmd()
	cmd.SetArgs([]string{
		"my-app",
		"--framework", "flutter",
		"--dir", dir,
		"--dry-run",
		"--yes",
	})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "dry-run must not create the target directory")
}

func TestCreateRejectsInvalidCombination(t *testing.T) {
	cmd := newCreateCmd()
	cmd.SetArgs([]string{
		"my-app",
		"--framework", "flutter",
		"--database", "turso",
		"--yes",
	})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database must be none")
}

func TestCreateRequiresName(t *testing.T) {
	cmd := newCreateCmd()
	cmd.SetArgs([]string{"--framework", "nextjs", "--yes"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}
