package vendorcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are keyed by the
// full command line ("tool arg1 arg2 ...").
type FakeRunner struct {
	mu sync.Mutex

	// Binaries lists the tools LookPath pretends are installed.
	Binaries map[string]string

	// Responses maps command lines to stdout. Errors maps command lines to
	// failures; an entry there wins over Responses.
	Responses map[string]string
	Errors    map[string]error

	// TailLines maps command lines to the lines a Tail call emits before
	// closing the channel.
	TailLines map[string][]string

	// Calls records every executed command line in order.
	Calls []string
}

// NewFakeRunner returns an empty scripted runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Binaries:  make(map[string]string),
		Responses: make(map[string]string),
		Errors:    make(map[string]error),
		TailLines: make(map[string][]string),
	}
}

func commandLine(tool string, args []string) string {
	if len(args) == 0 {
		return tool
	}
	return tool + " " + strings.Join(args, " ")
}

// Install marks a tool as present on the fake PATH.
func (f *FakeRunner) Install(tool string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Binaries[tool] = "/usr/local/bin/" + tool
}

// Script sets the stdout for one command line.
func (f *FakeRunner) Script(line, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[line] = stdout
}

// ScriptError sets a failure for one command line.
func (f *FakeRunner) ScriptError(line string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[line] = err
}

// LookPath consults the fake PATH.
func (f *FakeRunner) LookPath(tool string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if path, ok := f.Binaries[tool]; ok {
		return path, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", tool)
}

// Run replays the scripted response for the command line.
func (f *FakeRunner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	line := commandLine(tool, args)
	f.mu.Lock()
	f.Calls = append(f.Calls, line)
	err, hasErr := f.Errors[line]
	out, hasOut := f.Responses[line]
	f.mu.Unlock()

	if hasErr {
		return "", err
	}
	if !hasOut {
		return "", fmt.Errorf("fake runner: no response scripted for %q", line)
	}
	return out, nil
}

// RunJSON replays the scripted response and unmarshals it.
func (f *FakeRunner) RunJSON(ctx context.Context, out interface{}, tool string, args ...string) error {
	raw, err := f.Run(ctx, tool, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), out)
}

// Tail replays the scripted lines and closes the channel.
func (f *FakeRunner) Tail(ctx context.Context, tool string, args ...string) (<-chan string, error) {
	line := commandLine(tool, args)
	f.mu.Lock()
	f.Calls = append(f.Calls, line)
	err, hasErr := f.Errors[line]
	scripted := f.TailLines[line]
	f.mu.Unlock()

	if hasErr {
		return nil, err
	}
	ch := make(chan string, len(scripted))
	go func() {
		defer close(ch)
		for _, l := range scripted {
			select {
			case ch <- l:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

// CallCount returns how many times the command line was executed.
func (f *FakeRunner) CallCount(line string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == line {
			n++
		}
	}
	return n
}
