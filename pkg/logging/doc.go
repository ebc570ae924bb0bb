// Package logging provides subsystem-tagged logging for fluorite-flake.
//
// The package wraps log/slog with two output modes. CLI mode writes text
// records to a configurable writer and filters by level in the handler.
// TUI mode routes every entry into a buffered channel consumed by the
// dashboard, which filters at render time; when the channel is full the
// entry is written to stderr instead of being dropped silently.
//
// Call sites tag each entry with the originating subsystem:
//
//	logging.Info("Orchestrator", "Registered service: %s", name)
//	logging.Error("IPC", err, "Listener failed on %s", addr)
package logging
