package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultRefreshInterval is the auto-refresh period used when the config
	// file does not set one.
	DefaultRefreshInterval = Duration(5 * time.Second)

	defaultTCPPort  = 9743
	defaultWSPort   = 9744
	defaultHTTPPort = 9745
)

// Default returns the built-in configuration. Load merges the config file
// over this value.
func Default() Config {
	return Config{
		RefreshInterval:  DefaultRefreshInterval,
		AutoInitServices: []string{"system"},
		Protocol: ProtocolConfig{
			Primary:    "unix",
			SocketPath: defaultSocketPath(),
			TCPPort:    defaultTCPPort,
			WSPort:     defaultWSPort,
			HTTPPort:   defaultHTTPPort,
		},
		Display: DisplayConfig{
			Theme:       "dark",
			Layout:      "grid",
			AutoRefresh: true,
		},
		Scaffold: ScaffoldConfig{
			PackageManager: "pnpm",
		},
	}
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "fluorite-flake", "ipc.sock")
	}
	return filepath.Join(os.TempDir(), "fluorite-flake-ipc.sock")
}
