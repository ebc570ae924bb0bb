package vendorcli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerRun(t *testing.T) {
	r := NewExecRunner()
	out, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExecRunnerRunFailureIncludesStderr(t *testing.T) {
	r := NewExecRunner()
	_, err := r.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestExecRunnerRunJSON(t *testing.T) {
	r := NewExecRunner()
	var out map[string]int
	err := r.RunJSON(context.Background(), &out, "echo", `{"count": 7}`)
	require.NoError(t, err)
	assert.Equal(t, 7, out["count"])
}

func TestExecRunnerRunJSONMalformed(t *testing.T) {
	r := NewExecRunner()
	var out map[string]int
	err := r.RunJSON(context.Background(), &out, "echo", "not json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON output")
}

func TestExecRunnerTailClosesOnProcessExit(t *testing.T) {
	r := NewExecRunner()
	lines, err := r.Tail(context.Background(), "sh", "-c", "echo one; echo two")
	require.NoError(t, err)

	var got []string
	for line := range lines {
		got = append(got, line)
	}
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestExecRunnerTailCancellation(t *testing.T) {
	r := NewExecRunner()
	ctx, cancel := context.WithCancel(context.Background())

	lines, err := r.Tail(ctx, "sh", "-c", "echo started; sleep 60")
	require.NoError(t, err)

	// First line proves the tail is live before we cancel.
	select {
	case line := <-lines:
		assert.Equal(t, "started", line)
	case <-time.After(5 * time.Second):
		t.Fatal("tail produced no output")
	}

	cancel()
	select {
	case _, open := <-lines:
		if open {
			// Draining a buffered line is fine; the channel must still close.
			for range lines {
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tail channel did not close after cancellation")
	}
}

func TestFakeRunnerScripting(t *testing.T) {
	f := NewFakeRunner()
	f.Install("gh")
	f.Script("gh auth status", "Logged in to github.com")

	_, err := f.LookPath("gh")
	require.NoError(t, err)
	_, err = f.LookPath("vercel")
	assert.Error(t, err)

	out, err := f.Run(context.Background(), "gh", "auth", "status")
	require.NoError(t, err)
	assert.Equal(t, "Logged in to github.com", out)
	assert.Equal(t, 1, f.CallCount("gh auth status"))

	_, err = f.Run(context.Background(), "gh", "repo", "list")
	assert.Error(t, err, "unscripted command must fail loudly")
}
