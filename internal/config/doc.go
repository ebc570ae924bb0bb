// Package config defines the fluorite-flake configuration structure and its
// YAML loading, validation and file-watching support.
//
// Configuration lives in $HOME/.config/fluorite-flake/config.yaml and is
// merged over built-in defaults; a missing file simply yields the defaults.
// Validation collects every problem in one error so a broken file can be
// fixed in a single pass. Watch provides debounced hot-reload for the
// dashboard's display settings.
package config
