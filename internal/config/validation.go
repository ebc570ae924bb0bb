package config

import (
	"fmt"
	"strings"
)

var validPrimaryTransports = map[string]bool{
	"unix":  true,
	"tcp":   true,
	"ws":    true,
	"http":  true,
	"stdio": true,
}

var validThemes = map[string]bool{
	"dark":  true,
	"light": true,
}

var validLayouts = map[string]bool{
	"grid":    true,
	"stacked": true,
}

// Validate checks a configuration for errors. All problems are collected and
// reported together so the user can fix the file in one pass.
func Validate(cfg Config) error {
	var problems []string

	if cfg.RefreshInterval <= 0 {
		problems = append(problems, fmt.Sprintf("refreshInterval must be positive, got %s", cfg.RefreshInterval))
	}
	if !validPrimaryTransports[cfg.Protocol.Primary] {
		problems = append(problems, fmt.Sprintf("protocol.primary %q is not one of unix, tcp, ws, http, stdio", cfg.Protocol.Primary))
	}
	for field, port := range map[string]int{
		"protocol.tcpPort":  cfg.Protocol.TCPPort,
		"protocol.wsPort":   cfg.Protocol.WSPort,
		"protocol.httpPort": cfg.Protocol.HTTPPort,
	} {
		if port < 0 || port > 65535 {
			problems = append(problems, fmt.Sprintf("%s %d is out of range", field, port))
		}
	}
	if cfg.Protocol.Primary == "unix" && cfg.Protocol.SocketPath == "" {
		problems = append(problems, "protocol.socketPath is required when protocol.primary is unix")
	}
	if cfg.Display.Theme != "" && !validThemes[cfg.Display.Theme] {
		problems = append(problems, fmt.Sprintf("display.theme %q is not one of dark, light", cfg.Display.Theme))
	}
	if cfg.Display.Layout != "" && !validLayouts[cfg.Display.Layout] {
		problems = append(problems, fmt.Sprintf("display.layout %q is not one of grid, stacked", cfg.Display.Layout))
	}
	seen := make(map[string]bool)
	for _, name := range cfg.AutoInitServices {
		if name == "" {
			problems = append(problems, "autoInitServices contains an empty name")
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("autoInitServices lists %q more than once", name))
		}
		seen[name] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}
