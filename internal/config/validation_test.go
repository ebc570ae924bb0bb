package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.RefreshInterval = 0
	cfg.Protocol.Primary = "smoke-signal"
	cfg.Protocol.TCPPort = 99999
	cfg.Display.Theme = "solarized"
	cfg.AutoInitServices = []string{"system", "system", ""}

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "refreshInterval")
	assert.Contains(t, msg, "smoke-signal")
	assert.Contains(t, msg, "out of range")
	assert.Contains(t, msg, "solarized")
	assert.Contains(t, msg, "more than once")
	assert.Contains(t, msg, "empty name")
}

func TestValidateUnixRequiresSocketPath(t *testing.T) {
	cfg := Default()
	cfg.Protocol.SocketPath = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "socketPath")
}
