package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use human-readable
// values like "5s" or "2m".
type Duration time.Duration

// UnmarshalYAML parses a duration from either a Go duration string or a
// plain number of seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asString string
	if err := value.Decode(&asString); err == nil {
		parsed, err := time.ParseDuration(asString)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", asString, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var asSeconds float64
	if err := value.Decode(&asSeconds); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(time.Duration(asSeconds * float64(time.Second)))
	return nil
}

// MarshalYAML renders the duration in Go's string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String makes Duration satisfy fmt.Stringer.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Config is the top-level configuration structure for fluorite-flake.
type Config struct {
	// RefreshInterval is the period between dashboard auto-refresh ticks.
	RefreshInterval Duration `yaml:"refreshInterval,omitempty"`

	// AutoInitServices lists the services the orchestrator registers during
	// Initialize. Startup aborts on the first failing service.
	AutoInitServices []string `yaml:"autoInitServices,omitempty"`

	// Auth holds per-service authentication material, keyed by service name.
	Auth map[string]AuthConfig `yaml:"auth,omitempty"`

	// Protocol configures the IPC server transports. It is consumed by the
	// IPC layer, not by the orchestrator itself.
	Protocol ProtocolConfig `yaml:"protocol,omitempty"`

	// Display configures the TUI and the orchestrator's auto-refresh switch.
	Display DisplayConfig `yaml:"display,omitempty"`

	// Services holds optional per-service settings (regions, org names, ...).
	Services map[string]ServiceConfig `yaml:"services,omitempty"`

	// Scaffold holds defaults for project generation.
	Scaffold ScaffoldConfig `yaml:"scaffold,omitempty"`
}

// AuthConfig carries credentials for one service. Keys depend on the service:
// "token" for GitHub/Vercel/Turso, "profile"/"region" for AWS.
type AuthConfig map[string]string

// ServiceConfig carries per-service settings passed to the adapter factory.
type ServiceConfig map[string]string

// Get returns the value for key, or def when the config is nil or the key
// is absent.
func (c ServiceConfig) Get(key, def string) string {
	if c == nil {
		return def
	}
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return def
}

// ProtocolConfig selects the IPC transports and their endpoints.
type ProtocolConfig struct {
	// Primary is the transport the ipc serve command starts by default:
	// unix, tcp, ws, http or stdio.
	Primary string `yaml:"primary,omitempty"`

	SocketPath string `yaml:"socketPath,omitempty"`
	TCPPort    int    `yaml:"tcpPort,omitempty"`
	WSPort     int    `yaml:"wsPort,omitempty"`
	HTTPPort   int    `yaml:"httpPort,omitempty"`

	// AuthToken, when set, is required as a bearer token on the network
	// transports (ws, http).
	AuthToken string `yaml:"authToken,omitempty"`
}

// DisplayConfig configures the dashboard presentation.
type DisplayConfig struct {
	Theme       string `yaml:"theme,omitempty"`
	Layout      string `yaml:"layout,omitempty"`
	AutoRefresh bool   `yaml:"autoRefresh"`
}

// ScaffoldConfig holds defaults for the project generator.
type ScaffoldConfig struct {
	PackageManager string `yaml:"packageManager,omitempty"`
}

// AuthFor returns the configured auth material for a service, or nil.
func (c *Config) AuthFor(service string) AuthConfig {
	if c.Auth == nil {
		return nil
	}
	return c.Auth[service]
}

// ServiceSettings returns the configured settings for a service, or nil.
func (c *Config) ServiceSettings(service string) ServiceConfig {
	if c.Services == nil {
		return nil
	}
	return c.Services[service]
}
