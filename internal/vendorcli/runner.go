package vendorcli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"fluorite-flake/pkg/logging"
)

// Runner abstracts vendor CLI execution so adapters can be tested against a
// fake. All methods are safe for concurrent use.
type Runner interface {
	// LookPath reports where the tool binary lives, or an error when it is
	// not installed.
	LookPath(tool string) (string, error)

	// Run executes the tool and returns its trimmed stdout. A non-zero exit
	// returns an error that includes the captured stderr.
	Run(ctx context.Context, tool string, args ...string) (string, error)

	// RunJSON executes the tool and unmarshals its stdout into out.
	RunJSON(ctx context.Context, out interface{}, tool string, args ...string) error

	// Tail starts the tool and streams its stdout line by line. The channel
	// closes when the process exits or the context is cancelled, so a
	// dead tail is always observable, never a silent hang.
	Tail(ctx context.Context, tool string, args ...string) (<-chan string, error)
}

// ExecRunner runs vendor CLIs through os/exec.
type ExecRunner struct {
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// NewExecRunner returns a Runner backed by the local PATH.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// LookPath reports where the tool binary lives.
func (r *ExecRunner) LookPath(tool string) (string, error) {
	return exec.LookPath(tool)
}

// Run executes the tool and returns its trimmed stdout.
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Debug("VendorCLI", "Running: %s %s", tool, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%s %s: %s", tool, strings.Join(args, " "), msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RunJSON executes the tool and unmarshals its stdout into out.
func (r *ExecRunner) RunJSON(ctx context.Context, out interface{}, tool string, args ...string) error {
	raw, err := r.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%s: parsing JSON output: %w", tool, err)
	}
	return nil
}

// Tail starts the tool and streams its stdout line by line.
func (r *ExecRunner) Tail(ctx context.Context, tool string, args ...string) (<-chan string, error) {
	cmd := exec.CommandContext(ctx, tool, args...)
	if r.Env != nil {
		cmd.Env = r.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: opening stdout pipe: %w", tool, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s: starting: %w", tool, err)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				// CommandContext kills the process on cancel; drain exits
				// via the closed pipe.
			}
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			logging.Debug("VendorCLI", "Tail of %s ended: %v", tool, err)
		}
	}()
	return lines, nil
}
