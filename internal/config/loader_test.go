package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0o644)
	require.NoError(t, err)
	return dir
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultRefreshInterval, cfg.RefreshInterval)
	assert.Equal(t, []string{"system"}, cfg.AutoInitServices)
	assert.Equal(t, "unix", cfg.Protocol.Primary)
	assert.True(t, cfg.Display.AutoRefresh)
	assert.Equal(t, "pnpm", cfg.Scaffold.PackageManager)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := writeConfig(t, `
refreshInterval: 10s
autoInitServices: [system, github]
auth:
  github:
    token: ghp_testtoken
protocol:
  primary: tcp
  tcpPort: 4000
display:
  theme: light
  layout: grid
  autoRefresh: false
services:
  aws:
    region: eu-central-1
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RefreshInterval.Std())
	assert.Equal(t, []string{"system", "github"}, cfg.AutoInitServices)
	assert.Equal(t, "ghp_testtoken", cfg.AuthFor("github")["token"])
	assert.Nil(t, cfg.AuthFor("vercel"))
	assert.Equal(t, "tcp", cfg.Protocol.Primary)
	assert.Equal(t, 4000, cfg.Protocol.TCPPort)
	// Unset fields keep their defaults.
	assert.Equal(t, defaultWSPort, cfg.Protocol.WSPort)
	assert.Equal(t, "light", cfg.Display.Theme)
	assert.False(t, cfg.Display.AutoRefresh)
	assert.Equal(t, "eu-central-1", cfg.ServiceSettings("aws").Get("region", ""))
}

func TestLoadNumericRefreshInterval(t *testing.T) {
	dir := writeConfig(t, "refreshInterval: 30\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval.Std())
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := writeConfig(t, "refreshInterval: [not, a, duration\n")

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := writeConfig(t, `
protocol:
  primary: carrier-pigeon
`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestServiceConfigGet(t *testing.T) {
	var nilCfg ServiceConfig
	assert.Equal(t, "fallback", nilCfg.Get("region", "fallback"))

	cfg := ServiceConfig{"region": "us-west-2", "empty": ""}
	assert.Equal(t, "us-west-2", cfg.Get("region", "fallback"))
	assert.Equal(t, "fallback", cfg.Get("empty", "fallback"))
	assert.Equal(t, "fallback", cfg.Get("missing", "fallback"))
}
